package service

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gogotex/docstore/internal/store/repository"
	"github.com/gogotex/docstore/pkg/document"
	"github.com/gogotex/docstore/pkg/logger"
	"github.com/gogotex/docstore/pkg/metrics"
)

var log = logger.Named("store")

// Service implements the store's document semantics on top of a Repository:
// revision generation, optimistic concurrency, tombstones, bulk writes and
// copies. It satisfies document.Transport, so a Database can use it directly
// without going through HTTP.
type Service struct {
	repo  repository.Repository
	newID func() string
	now   func() time.Time
}

var _ document.Transport = (*Service)(nil)

func New(repo repository.Repository) *Service {
	return &Service{
		repo:  repo,
		newID: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the live document at id with its "_id" and "_rev" set.
func (s *Service) Get(ctx context.Context, db, id string) (doc *document.Document, err error) {
	defer observe("get", &err)
	rec, err := s.repo.Get(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if rec.Deleted {
		return nil, repository.ErrNotFound
	}
	doc = document.New()
	doc.SetID(rec.ID)
	doc.SetRev(rec.Rev)
	body := document.New()
	if err := body.UnmarshalJSON(rec.Body); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", db, id, err)
	}
	body.Range(func(k string, v any) bool {
		doc.Set(k, v)
		return true
	})
	return doc, nil
}

// Save writes doc. Without an id a new one is assigned. Its "_rev" must be
// the current revision of the stored document, or empty when creating. A
// true "_deleted" field turns the write into a deletion.
func (s *Service) Save(ctx context.Context, db string, doc *document.Document) (res document.Result, err error) {
	defer observe("save", &err)
	id := doc.ID()
	if id == "" {
		id = s.newID()
	}
	deleted, _ := doc.Get(document.DeletedKey).(bool)
	body, err := encodeBody(doc)
	if err != nil {
		return document.Result{}, err
	}
	return s.write(ctx, db, id, doc.Rev(), body, deleted)
}

// Delete stores a tombstone for the live document at id, currently at rev.
func (s *Service) Delete(ctx context.Context, db, id, rev string) (res document.Result, err error) {
	defer observe("delete", &err)
	return s.write(ctx, db, id, rev, []byte("{}"), true)
}

// BulkDocs saves each document independently, in order. A failing document
// does not stop the others; its failure is reported in its result.
func (s *Service) BulkDocs(ctx context.Context, db string, docs []*document.Document) ([]document.BulkResult, error) {
	results := make([]document.BulkResult, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.Save(ctx, db, doc)
		if err != nil {
			code, reason := ErrorCode(err)
			results[i] = document.BulkResult{ID: doc.ID(), Error: code, Reason: reason}
			continue
		}
		results[i] = document.BulkResult{ID: res.ID, Rev: res.Rev}
	}
	log.Debugf("bulk wrote %d documents to %s", len(docs), db)
	return results, nil
}

// Copy writes the body of the live document at id to dest. A non-empty rev
// must match the source's current revision. dest.Rev must match the current
// revision of an existing destination; a live destination without it is a
// conflict.
func (s *Service) Copy(ctx context.Context, db, id, rev string, dest document.Destination) (res document.Result, err error) {
	defer observe("copy", &err)
	if dest.ID == "" {
		return document.Result{}, document.ErrNoDestination
	}
	src, err := s.repo.Get(ctx, db, id)
	if err != nil {
		return document.Result{}, err
	}
	if src.Deleted {
		return document.Result{}, repository.ErrNotFound
	}
	if rev != "" && rev != src.Rev {
		return document.Result{}, repository.ErrConflict
	}
	return s.write(ctx, db, dest.ID, dest.Rev, src.Body, false)
}

func (s *Service) write(ctx context.Context, db, id, prevRev string, body []byte, deleted bool) (document.Result, error) {
	cur, err := s.repo.Get(ctx, db, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		cur = nil
	case err != nil:
		return document.Result{}, err
	}
	if deleted && (cur == nil || cur.Deleted) {
		return document.Result{}, repository.ErrNotFound
	}

	gen := 1
	if cur != nil {
		gen = generation(cur.Rev) + 1
	}
	rec := &repository.Record{
		DB:        db,
		ID:        id,
		Rev:       newRev(gen, prevRev, body, deleted),
		Deleted:   deleted,
		Body:      body,
		UpdatedAt: s.now(),
	}
	if err := s.repo.Put(ctx, rec, prevRev); err != nil {
		return document.Result{}, err
	}
	log.Debugf("%s/%s -> %s (deleted=%v)", db, id, rec.Rev, deleted)
	return document.Result{OK: true, ID: id, Rev: rec.Rev}, nil
}

// encodeBody marshals doc without its reserved fields.
func encodeBody(doc *document.Document) ([]byte, error) {
	body := doc.Clone()
	body.Delete(document.IDKey)
	body.Delete(document.RevKey)
	body.Delete(document.DeletedKey)
	b, err := body.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return b, nil
}

// ErrBadRequest marks documents the store cannot accept.
var ErrBadRequest = errors.New("bad request")

func generation(rev string) int {
	n, _, _ := strings.Cut(rev, "-")
	g, err := strconv.Atoi(n)
	if err != nil {
		return 0
	}
	return g
}

func newRev(gen int, prevRev string, body []byte, deleted bool) string {
	h := md5.New()
	h.Write([]byte(prevRev))
	h.Write(body)
	if deleted {
		h.Write([]byte{1})
	}
	return fmt.Sprintf("%d-%x", gen, h.Sum(nil))
}

// ErrorCode maps an error to the store's wire code and reason.
func ErrorCode(err error) (code, reason string) {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return document.CodeNotFound, "missing"
	case errors.Is(err, document.ErrConflict):
		return document.CodeConflict, "Document update conflict."
	case errors.Is(err, ErrBadRequest), errors.Is(err, document.ErrUsage):
		return document.CodeBadRequest, err.Error()
	default:
		return "internal_error", err.Error()
	}
}

func observe(op string, errp *error) {
	outcome := "ok"
	if err := *errp; err != nil {
		outcome, _ = ErrorCode(err)
	}
	metrics.StoreRequests.WithLabelValues(op, outcome).Inc()
}
