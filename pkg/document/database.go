package document

import (
	"context"
	"sync"

	"github.com/gogotex/docstore/pkg/logger"
	"github.com/gogotex/docstore/pkg/metrics"
)

var log = logger.Named("document")

// Database is one named database of the store, reached through a Transport.
// It owns the bulk queue: writes deferred with the Bulk mode accumulate there
// until BulkSave submits them as a single batch.
//
// A Database is safe for concurrent use; enqueueing and flushing are
// serialized by one mutex.
type Database struct {
	name      string
	transport Transport
	bulkLimit int

	mu    sync.Mutex
	queue []pendingWrite
}

type pendingWrite struct {
	doc *Document
	// deletion entries hold a snapshot; their source document has already
	// been cleared and receives no write-back.
	deletion bool
}

type Option func(*Database)

// WithBulkLimit flushes the queue automatically once it holds n writes.
// Zero, the default, never flushes automatically.
func WithBulkLimit(n int) Option {
	return func(db *Database) { db.bulkLimit = n }
}

func NewDatabase(name string, t Transport, opts ...Option) *Database {
	db := &Database{name: name, transport: t}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

func (db *Database) Name() string { return db.name }

func (db *Database) Transport() Transport { return db.transport }

// Bind attaches doc to db and returns it.
func (db *Database) Bind(doc *Document) *Document {
	return doc.Bind(db)
}

// Pending returns the number of queued writes.
func (db *Database) Pending() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.queue)
}

// Get fetches the live document stored at id, bound to db.
func (db *Database) Get(ctx context.Context, id string) (*Document, error) {
	doc, err := db.transport.Get(ctx, db.name, id)
	if err != nil {
		return nil, err
	}
	return doc.Bind(db), nil
}

// SaveDoc binds doc to db and writes it. Direct writes patch the assigned id
// and revision into doc; Bulk writes only queue it.
func (db *Database) SaveDoc(ctx context.Context, doc *Document, mode WriteMode) (Result, error) {
	doc.Bind(db)
	if mode == Bulk {
		return Result{}, db.enqueue(ctx, pendingWrite{doc: doc})
	}
	res, err := db.transport.Save(ctx, db.name, doc)
	if err != nil {
		return Result{}, err
	}
	doc.SetID(res.ID)
	doc.SetRev(res.Rev)
	return res, nil
}

// DeleteDoc deletes doc. A Direct delete needs doc's id and current revision
// and clears both on success. A Bulk delete queues a deletion marker carrying
// them and clears them from doc immediately, before the store has deleted
// anything.
func (db *Database) DeleteDoc(ctx context.Context, doc *Document, mode WriteMode) error {
	if mode == Bulk {
		marker := New()
		marker.SetID(doc.ID())
		marker.SetRev(doc.Rev())
		marker.Set(DeletedKey, true)
		doc.SetID("")
		doc.SetRev("")
		return db.enqueue(ctx, pendingWrite{doc: marker, deletion: true})
	}
	if doc.ID() == "" {
		return ErrNoID
	}
	if _, err := db.transport.Delete(ctx, db.name, doc.ID(), doc.Rev()); err != nil {
		return err
	}
	doc.SetID("")
	doc.SetRev("")
	return nil
}

// CopyDoc duplicates the stored content of doc to dest. Without a revision
// in dest the copy fails with ErrConflict if dest already exists.
func (db *Database) CopyDoc(ctx context.Context, doc *Document, dest Destination) (Result, error) {
	if doc.ID() == "" {
		return Result{}, ErrNoID
	}
	if dest.ID == "" {
		return Result{}, ErrNoDestination
	}
	return db.transport.Copy(ctx, db.name, doc.ID(), "", dest)
}

// MoveDoc copies doc to dest, then deletes the source at doc's id and
// revision. If the copy fails the source is untouched and the copy's error is
// returned. If the deletion fails the copy stays in place and a *MoveError is
// returned. On success doc takes the destination's id and revision.
func (db *Database) MoveDoc(ctx context.Context, doc *Document, dest Destination) error {
	src, rev := doc.ID(), doc.Rev()
	if src == "" {
		return ErrNoID
	}
	if dest.ID == "" {
		return ErrNoDestination
	}
	res, err := db.transport.Copy(ctx, db.name, src, rev, dest)
	if err != nil {
		return err
	}
	if _, err := db.transport.Delete(ctx, db.name, src, rev); err != nil {
		log.Warnf("move %s/%s -> %s: source delete failed: %v", db.name, src, dest.ID, err)
		return &MoveError{Source: src, Destination: dest.ID, Err: err}
	}
	doc.SetID(res.ID)
	doc.SetRev(res.Rev)
	return nil
}

func (db *Database) enqueue(ctx context.Context, w pendingWrite) error {
	db.mu.Lock()
	db.queue = append(db.queue, w)
	n := len(db.queue)
	db.mu.Unlock()
	metrics.BulkQueued.Inc()

	if db.bulkLimit > 0 && n >= db.bulkLimit {
		log.Debugf("bulk queue of %s reached %d writes, flushing", db.name, n)
		_, err := db.BulkSave(ctx)
		return err
	}
	return nil
}

// BulkSave submits every queued write as one batch and empties the queue.
// The queue is kept intact if the batch request fails. Per-document failures,
// such as conflicts, do not fail the batch; they are reported in the results.
// Saved documents receive their assigned id and revision.
func (db *Database) BulkSave(ctx context.Context) ([]BulkResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.queue) == 0 {
		return nil, nil
	}

	docs := make([]*Document, len(db.queue))
	for i, w := range db.queue {
		docs[i] = w.doc
	}
	results, err := db.transport.BulkDocs(ctx, db.name, docs)
	if err != nil {
		metrics.BulkFlushes.WithLabelValues("error").Inc()
		log.Warnf("bulk save of %d writes to %s failed: %v", len(docs), db.name, err)
		return nil, err
	}
	metrics.BulkFlushes.WithLabelValues("ok").Inc()

	for i, r := range results {
		if i >= len(db.queue) {
			break
		}
		w := db.queue[i]
		if w.deletion || r.Error != "" {
			continue
		}
		w.doc.SetID(r.ID)
		w.doc.SetRev(r.Rev)
	}
	log.Debugf("bulk saved %d writes to %s", len(docs), db.name)
	db.queue = nil
	return results, nil
}
