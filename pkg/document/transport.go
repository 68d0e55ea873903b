package document

import (
	"context"
	"fmt"
)

// Transport performs the store requests a Database needs. Implementations
// map a missing document to ErrNotFound, a revision mismatch to ErrConflict
// and any other failure to *TransportError.
type Transport interface {
	// Save creates the document (POST when it has no id) or writes the
	// given id (PUT), using the document's "_rev" as the expected revision.
	Save(ctx context.Context, db string, doc *Document) (Result, error)
	Get(ctx context.Context, db, id string) (*Document, error)
	Delete(ctx context.Context, db, id, rev string) (Result, error)
	// BulkDocs submits docs as one batch. An error means the batch as a
	// whole failed; per-document failures are reported in the results, in
	// the order of docs.
	BulkDocs(ctx context.Context, db string, docs []*Document) ([]BulkResult, error)
	// Copy duplicates the document at id (at revision rev, when not empty)
	// to dest.
	Copy(ctx context.Context, db, id, rev string, dest Destination) (Result, error)
}

// Result is the store's answer to a single write.
type Result struct {
	OK  bool   `json:"ok,omitempty"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// BulkResult is the outcome of one document in a bulk write.
type BulkResult struct {
	ID     string `json:"id"`
	Rev    string `json:"rev,omitempty"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Per-item error codes of a bulk write.
const (
	CodeConflict   = "conflict"
	CodeNotFound   = "not_found"
	CodeBadRequest = "bad_request"
)

// Err converts the item's error code into the error taxonomy, or returns nil
// when the item was written.
func (r BulkResult) Err() error {
	switch r.Error {
	case "":
		return nil
	case CodeConflict:
		return fmt.Errorf("%s: %w", r.ID, ErrConflict)
	case CodeNotFound:
		return fmt.Errorf("%s: %w", r.ID, ErrNotFound)
	default:
		return fmt.Errorf("%s: %s: %s", r.ID, r.Error, r.Reason)
	}
}
