package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/repository/store"
)

// MongoDBRepository implements store.Backend for MongoDB. Change
// notifications rely on change streams, so the server must run as a replica set.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

var _ store.Backend = (*MongoDBRepository)(nil)

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
		logger: logger,
	}, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// Insert stores a new document.
func (r *MongoDBRepository) Insert(ctx context.Context, collection string, doc bson.M) error {
	if _, err := r.collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}

// Update merges fields into an existing document.
func (r *MongoDBRepository) Update(ctx context.Context, collection, id string, fields bson.M) error {
	res, err := r.collection(collection).UpdateOne(ctx, bson.M{store.FieldID: id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Replace overwrites an existing document, keeping its id and creation time.
func (r *MongoDBRepository) Replace(ctx context.Context, collection, id string, doc bson.M) error {
	var current bson.M
	err := r.collection(collection).
		FindOne(ctx, bson.M{store.FieldID: id}, options.FindOne().SetProjection(bson.M{store.FieldCreatedAt: 1})).
		Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load %s/%s: %w", collection, id, err)
	}

	replacement := make(bson.M, len(doc)+2)
	for k, v := range doc {
		replacement[k] = v
	}
	replacement[store.FieldID] = id
	if created, ok := current[store.FieldCreatedAt]; ok {
		replacement[store.FieldCreatedAt] = created
	}

	res, err := r.collection(collection).ReplaceOne(ctx, bson.M{store.FieldID: id}, replacement)
	if err != nil {
		return fmt.Errorf("failed to replace %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Upsert merges set into the document, creating it with setOnInsert when absent.
func (r *MongoDBRepository) Upsert(ctx context.Context, collection, id string, set, setOnInsert bson.M) error {
	update := bson.M{"$set": set}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}
	_, err := r.collection(collection).UpdateOne(ctx, bson.M{store.FieldID: id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document.
func (r *MongoDBRepository) Delete(ctx context.Context, collection, id string) error {
	res, err := r.collection(collection).DeleteOne(ctx, bson.M{store.FieldID: id})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FindOne loads a single document by id.
func (r *MongoDBRepository) FindOne(ctx context.Context, collection, id string) (bson.Raw, error) {
	raw, err := r.collection(collection).FindOne(ctx, bson.M{store.FieldID: id}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s/%s: %w", collection, id, err)
	}
	return raw, nil
}

// FindAll loads the collection sorted by creation time, newest first.
func (r *MongoDBRepository) FindAll(ctx context.Context, collection string) ([]bson.Raw, error) {
	opts := options.Find().SetSort(bson.D{{Key: store.FieldCreatedAt, Value: -1}})
	cursor, err := r.collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.Raw
	for cursor.Next(ctx) {
		docs = append(docs, append(bson.Raw(nil), cursor.Current...))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	return docs, nil
}

// Watch opens a change stream on the collection and calls notify for every event.
func (r *MongoDBRepository) Watch(ctx context.Context, collection string, notify func()) (func(), error) {
	watchCtx, cancel := context.WithCancel(ctx)

	stream, err := r.collection(collection).Watch(watchCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch %s: %w", collection, err)
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(watchCtx) {
			notify()
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("change stream closed", zap.String("collection", collection), zap.Error(err))
		}
	}()

	return cancel, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
