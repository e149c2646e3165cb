package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Collection is a typed view over one backend collection. T must carry bson
// tags with an `_id` string field.
type Collection[T any] struct {
	backend Backend
	name    string
	now     func() time.Time
	newID   func() string
}

// NewCollection binds a typed collection to backend.
func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{
		backend: backend,
		name:    name,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Name returns the backend collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Create stores doc under a fresh id and stamps its creation time.
func (c *Collection[T]) Create(ctx context.Context, doc T) (string, error) {
	fields, err := toDocument(doc)
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", c.name, err)
	}

	id := c.newID()
	now := c.now().UTC()
	fields[FieldID] = id
	fields[FieldCreatedAt] = now
	fields[FieldUpdatedAt] = now

	if err := c.backend.Insert(ctx, c.name, fields); err != nil {
		return "", err
	}
	return id, nil
}

// Update merges fields into the document and stamps its update time.
func (c *Collection[T]) Update(ctx context.Context, id string, fields bson.M) error {
	set := make(bson.M, len(fields)+1)
	for k, v := range fields {
		set[k] = v
	}
	delete(set, FieldID)
	set[FieldUpdatedAt] = c.now().UTC()
	return c.backend.Update(ctx, c.name, id, set)
}

// Replace overwrites every field of an existing document except its id and
// creation time. Fields that doc omits, such as empty omitempty values, are
// removed from the stored document.
func (c *Collection[T]) Replace(ctx context.Context, id string, doc T) error {
	fields, err := toDocument(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c.name, err)
	}
	delete(fields, FieldID)
	delete(fields, FieldCreatedAt)
	fields[FieldUpdatedAt] = c.now().UTC()
	return c.backend.Replace(ctx, c.name, id, fields)
}

// Put upserts the document stored under a fixed id.
func (c *Collection[T]) Put(ctx context.Context, id string, fields bson.M) error {
	set := make(bson.M, len(fields)+1)
	for k, v := range fields {
		set[k] = v
	}
	delete(set, FieldID)
	now := c.now().UTC()
	set[FieldUpdatedAt] = now
	return c.backend.Upsert(ctx, c.name, id, set, bson.M{FieldCreatedAt: now})
}

// Delete removes the document.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.backend.Delete(ctx, c.name, id)
}

// Get loads one document. Missing documents return ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	raw, err := c.backend.FindOne(ctx, c.name, id)
	if err != nil {
		return doc, err
	}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return doc, nil
}

// List loads every document, newest first.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	raws, err := c.backend.FindAll(ctx, c.name)
	if err != nil {
		return nil, err
	}

	docs := make([]T, 0, len(raws))
	for _, raw := range raws {
		var doc T
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", c.name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Subscribe delivers the current snapshot to onChange and then a fresh
// snapshot after every change, until the returned function is called.
// Snapshot load failures are passed to onError when it is not nil.
func (c *Collection[T]) Subscribe(ctx context.Context, onChange func([]T), onError func(error)) (func(), error) {
	docs, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	onChange(docs)

	var mu sync.Mutex
	stop, err := c.backend.Watch(ctx, c.name, func() {
		mu.Lock()
		defer mu.Unlock()

		docs, err := c.List(ctx)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(docs)
	})
	if err != nil {
		return nil, err
	}
	return stop, nil
}

func toDocument(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
