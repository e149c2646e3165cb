// Package store exposes typed document collections on top of a keyed
// document backend with change notifications.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("document not found")

// Collection names used by the application.
const (
	CollectionItems    = "items"
	CollectionSales    = "sales"
	CollectionLots     = "lots"
	CollectionCashFlow = "cashflow"
	CollectionConfig   = "config"
)

// Document field names maintained by the store.
const (
	FieldID        = "_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Backend is a keyed document store. FindAll returns documents ordered by
// creation time, newest first.
type Backend interface {
	Insert(ctx context.Context, collection string, doc bson.M) error
	Update(ctx context.Context, collection, id string, fields bson.M) error
	// Replace overwrites every field of an existing document except _id and
	// created_at. Fields absent from doc are removed.
	Replace(ctx context.Context, collection, id string, doc bson.M) error
	Upsert(ctx context.Context, collection, id string, set, setOnInsert bson.M) error
	Delete(ctx context.Context, collection, id string) error
	FindOne(ctx context.Context, collection, id string) (bson.Raw, error)
	FindAll(ctx context.Context, collection string) ([]bson.Raw, error)
	// Watch calls notify after every change to the collection until the
	// returned stop function is called or ctx is done.
	Watch(ctx context.Context, collection string, notify func()) (stop func(), err error)
	Close(ctx context.Context) error
}
