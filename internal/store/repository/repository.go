package repository

import (
	"context"
	"time"

	"github.com/gogotex/docstore/pkg/document"
)

var (
	ErrNotFound = document.ErrNotFound
	ErrConflict = document.ErrConflict
)

// Record is one stored document revision. Body holds the JSON object without
// the reserved "_id", "_rev" and "_deleted" fields. Deleted records are kept
// as tombstones so that revisions keep increasing across re-creation.
type Record struct {
	DB        string    `json:"db" bson:"db" msgpack:"db"`
	ID        string    `json:"id" bson:"id" msgpack:"id"`
	Rev       string    `json:"rev" bson:"rev" msgpack:"rev"`
	Deleted   bool      `json:"deleted,omitempty" bson:"deleted" msgpack:"deleted,omitempty"`
	Body      []byte    `json:"body" bson:"body" msgpack:"body"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" msgpack:"updatedAt"`
}

// Repository stores records with compare-and-swap on the revision.
type Repository interface {
	// Get returns the current record at db/id, tombstones included, or
	// ErrNotFound if nothing was ever written there.
	Get(ctx context.Context, db, id string) (*Record, error)
	// Put replaces the record at rec.DB/rec.ID if prevRev matches the
	// stored revision (see CheckRev), and fails with ErrConflict otherwise.
	Put(ctx context.Context, rec *Record, prevRev string) error
}

// CheckRev reports whether a write expecting prevRev may replace cur, which
// is nil when nothing is stored. A new document needs an empty prevRev; a
// tombstone may be overwritten with an empty prevRev or its own revision; a
// live document only with its own revision.
func CheckRev(cur *Record, prevRev string) error {
	switch {
	case cur == nil:
		if prevRev != "" {
			return ErrConflict
		}
	case cur.Deleted:
		if prevRev != "" && prevRev != cur.Rev {
			return ErrConflict
		}
	default:
		if prevRev != cur.Rev {
			return ErrConflict
		}
	}
	return nil
}
