// Package memory is an in-process document backend. It keeps documents as
// BSON so that decoding behaves exactly as with the MongoDB backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/solarie/joias/internal/repository/store"
)

// Op names a backend operation passed to a FaultHook.
type Op string

const (
	OpInsert  Op = "insert"
	OpUpdate  Op = "update"
	OpReplace Op = "replace"
	OpUpsert  Op = "upsert"
	OpDelete  Op = "delete"
)

// FaultHook lets tests fail chosen writes. A non-nil return aborts the write.
type FaultHook func(op Op, collection, id string) error

type document struct {
	raw bson.Raw
	seq uint64
}

type watcher struct {
	id     uint64
	notify func()
}

// Backend implements store.Backend in memory.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]map[string]document
	watchers    map[string][]watcher
	seq         uint64
	watchSeq    uint64
	hook        FaultHook
}

var _ store.Backend = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		collections: make(map[string]map[string]document),
		watchers:    make(map[string][]watcher),
	}
}

// SetFaultHook installs hook, replacing any previous one. Nil removes it.
func (b *Backend) SetFaultHook(hook FaultHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hook = hook
}

func (b *Backend) fault(op Op, collection, id string) error {
	if b.hook == nil {
		return nil
	}
	return b.hook(op, collection, id)
}

// Insert stores a new document. The document must carry an _id.
func (b *Backend) Insert(_ context.Context, collection string, doc bson.M) error {
	id, ok := doc[store.FieldID].(string)
	if !ok || id == "" {
		return fmt.Errorf("insert into %s: missing document id", collection)
	}

	b.mu.Lock()
	if err := b.fault(OpInsert, collection, id); err != nil {
		b.mu.Unlock()
		return err
	}
	docs := b.collection(collection)
	if _, exists := docs[id]; exists {
		b.mu.Unlock()
		return fmt.Errorf("insert into %s: duplicate id %s", collection, id)
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		b.mu.Unlock()
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	b.seq++
	docs[id] = document{raw: raw, seq: b.seq}
	b.mu.Unlock()

	b.broadcast(collection)
	return nil
}

// Update merges fields into an existing document.
func (b *Backend) Update(_ context.Context, collection, id string, fields bson.M) error {
	b.mu.Lock()
	if err := b.fault(OpUpdate, collection, id); err != nil {
		b.mu.Unlock()
		return err
	}
	docs := b.collection(collection)
	current, exists := docs[id]
	if !exists {
		b.mu.Unlock()
		return store.ErrNotFound
	}
	next, err := merge(current.raw, fields)
	if err != nil {
		b.mu.Unlock()
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	docs[id] = document{raw: next, seq: current.seq}
	b.mu.Unlock()

	b.broadcast(collection)
	return nil
}

// Replace overwrites an existing document, keeping its id and creation time.
func (b *Backend) Replace(_ context.Context, collection, id string, doc bson.M) error {
	b.mu.Lock()
	if err := b.fault(OpReplace, collection, id); err != nil {
		b.mu.Unlock()
		return err
	}
	docs := b.collection(collection)
	current, exists := docs[id]
	if !exists {
		b.mu.Unlock()
		return store.ErrNotFound
	}

	fields := make(bson.M, len(doc)+2)
	for k, v := range doc {
		fields[k] = v
	}
	fields[store.FieldID] = id
	if created, err := current.raw.LookupErr(store.FieldCreatedAt); err == nil {
		fields[store.FieldCreatedAt] = created
	} else {
		delete(fields, store.FieldCreatedAt)
	}

	next, err := bson.Marshal(fields)
	if err != nil {
		b.mu.Unlock()
		return fmt.Errorf("replace %s/%s: %w", collection, id, err)
	}
	docs[id] = document{raw: next, seq: current.seq}
	b.mu.Unlock()

	b.broadcast(collection)
	return nil
}

// Upsert merges set into the document, creating it with setOnInsert when absent.
func (b *Backend) Upsert(_ context.Context, collection, id string, set, setOnInsert bson.M) error {
	b.mu.Lock()
	if err := b.fault(OpUpsert, collection, id); err != nil {
		b.mu.Unlock()
		return err
	}
	docs := b.collection(collection)
	current, exists := docs[id]

	var next bson.Raw
	var err error
	if exists {
		next, err = merge(current.raw, set)
	} else {
		fields := bson.M{store.FieldID: id}
		for k, v := range setOnInsert {
			fields[k] = v
		}
		for k, v := range set {
			fields[k] = v
		}
		next, err = bson.Marshal(fields)
		b.seq++
		current.seq = b.seq
	}
	if err != nil {
		b.mu.Unlock()
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	docs[id] = document{raw: next, seq: current.seq}
	b.mu.Unlock()

	b.broadcast(collection)
	return nil
}

// Delete removes a document.
func (b *Backend) Delete(_ context.Context, collection, id string) error {
	b.mu.Lock()
	if err := b.fault(OpDelete, collection, id); err != nil {
		b.mu.Unlock()
		return err
	}
	docs := b.collection(collection)
	if _, exists := docs[id]; !exists {
		b.mu.Unlock()
		return store.ErrNotFound
	}
	delete(docs, id)
	b.mu.Unlock()

	b.broadcast(collection)
	return nil
}

// FindOne returns a copy of the stored document.
func (b *Backend) FindOne(_ context.Context, collection, id string) (bson.Raw, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	doc, exists := b.collections[collection][id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return clone(doc.raw), nil
}

// FindAll returns every document, newest first.
func (b *Backend) FindAll(_ context.Context, collection string) ([]bson.Raw, error) {
	b.mu.RLock()
	docs := make([]document, 0, len(b.collections[collection]))
	for _, doc := range b.collections[collection] {
		docs = append(docs, doc)
	}
	b.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		ti, tj := createdAt(docs[i].raw), createdAt(docs[j].raw)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return docs[i].seq > docs[j].seq
	})

	out := make([]bson.Raw, 0, len(docs))
	for _, doc := range docs {
		out = append(out, clone(doc.raw))
	}
	return out, nil
}

// Watch registers notify for changes to collection. Notifications are
// delivered synchronously after the write that caused them.
func (b *Backend) Watch(ctx context.Context, collection string, notify func()) (func(), error) {
	b.mu.Lock()
	b.watchSeq++
	id := b.watchSeq
	b.watchers[collection] = append(b.watchers[collection], watcher{id: id, notify: notify})
	b.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.watchers[collection]
			for i, w := range list {
				if w.id == id {
					b.watchers[collection] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			stop()
		}()
	}
	return stop, nil
}

// Close drops every watcher.
func (b *Backend) Close(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watchers = make(map[string][]watcher)
	return nil
}

func (b *Backend) collection(name string) map[string]document {
	docs, ok := b.collections[name]
	if !ok {
		docs = make(map[string]document)
		b.collections[name] = docs
	}
	return docs
}

func (b *Backend) broadcast(collection string) {
	b.mu.RLock()
	list := append([]watcher(nil), b.watchers[collection]...)
	b.mu.RUnlock()

	for _, w := range list {
		w.notify()
	}
}

func merge(raw bson.Raw, fields bson.M) (bson.Raw, error) {
	current := bson.M{}
	if err := bson.Unmarshal(raw, &current); err != nil {
		return nil, err
	}
	for k, v := range fields {
		current[k] = v
	}
	return bson.Marshal(current)
}

func createdAt(raw bson.Raw) time.Time {
	value, err := raw.LookupErr(store.FieldCreatedAt)
	if err != nil {
		return time.Time{}
	}
	t, ok := value.TimeOK()
	if !ok {
		return time.Time{}
	}
	return t
}

func clone(raw bson.Raw) bson.Raw {
	return append(bson.Raw(nil), raw...)
}
