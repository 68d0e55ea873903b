package couchhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gogotex/docstore/internal/store/handler"
	"github.com/gogotex/docstore/internal/store/repository"
	"github.com/gogotex/docstore/internal/store/service"
	"github.com/gogotex/docstore/pkg/document"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	g := gin.New()
	handler.MatchEscapedIDs(g)
	handler.RegisterDocumentRoutes(g, service.New(repository.NewMemoryRepo()))
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDB(t *testing.T) *document.Database {
	srv := newTestServer(t)
	return document.NewDatabase("couchrest-test", New(srv.URL, WithTimeout(5*time.Second)))
}

func TestSaveGetDestroyOverHTTP(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	doc := db.Bind(document.FromMap(map[string]any{"key": []any{1, 2, 3}, "more": "values"}))
	require.NoError(t, doc.Save(ctx, document.Direct))
	require.NotEmpty(t, doc.ID())
	require.NotEmpty(t, doc.Rev())

	got, err := db.Get(ctx, doc.ID())
	require.NoError(t, err)
	require.Equal(t, []any{1.0, 2.0, 3.0}, got.Get("key"))
	require.Equal(t, doc.Rev(), got.Rev())

	got.Set("more", "keys")
	require.NoError(t, got.Save(ctx, document.Direct))
	require.ErrorIs(t, doc.Save(ctx, document.Direct), document.ErrConflict)

	require.NoError(t, got.Destroy(ctx, document.Direct))
	_, err = db.Get(ctx, doc.ID())
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestBulkOverHTTP(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	doc := db.Bind(document.FromMap(map[string]any{"_id": "bulkdoc", "val": 3}))
	require.NoError(t, doc.Save(ctx, document.Bulk))
	_, err := db.Get(ctx, "bulkdoc")
	require.ErrorIs(t, err, document.ErrNotFound)

	_, err = db.BulkSave(ctx)
	require.NoError(t, err)
	got, err := db.Get(ctx, "bulkdoc")
	require.NoError(t, err)
	require.Equal(t, 3.0, got.Get("val"))

	require.NoError(t, got.Destroy(ctx, document.Bulk))
	require.Empty(t, got.ID())
	_, err = db.Get(ctx, "bulkdoc")
	require.NoError(t, err)

	results, err := db.BulkSave(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err())
	_, err = db.Get(ctx, "bulkdoc")
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestCopyAndMoveOverHTTP(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	res, err := db.SaveDoc(ctx, document.FromMap(map[string]any{"key": "value"}), document.Direct)
	require.NoError(t, err)
	_, err = db.SaveDoc(ctx, document.FromMap(map[string]any{"_id": "new-location", "will-exist": "here"}), document.Direct)
	require.NoError(t, err)
	doc, err := db.Get(ctx, res.ID)
	require.NoError(t, err)

	require.ErrorIs(t, doc.Copy(ctx, document.To("new-location")), document.ErrConflict)
	require.ErrorIs(t, doc.Move(ctx, document.To("new-location")), document.ErrConflict)
	_, err = db.Get(ctx, res.ID)
	require.NoError(t, err)

	existing, err := db.Get(ctx, "new-location")
	require.NoError(t, err)
	require.NoError(t, doc.Move(ctx, document.Overwrite(existing)))

	moved, err := db.Get(ctx, "new-location")
	require.NoError(t, err)
	require.Equal(t, "value", moved.Get("key"))
	_, err = db.Get(ctx, res.ID)
	require.ErrorIs(t, err, document.ErrNotFound)

	require.NoError(t, moved.Copy(ctx, document.To("third")))
	third, err := db.Get(ctx, "third")
	require.NoError(t, err)
	require.Equal(t, "value", third.Get("key"))
}

func TestIDsWithReservedCharactersOverHTTP(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"_design/views", "a/b/c", "a+b/c", "x?y", "50%"} {
		doc := db.Bind(document.FromMap(map[string]any{"_id": id, "v": id}))
		require.NoError(t, doc.Save(ctx, document.Direct), id)
		require.Equal(t, id, doc.ID())
		require.NotEmpty(t, doc.Rev(), id)

		got, err := db.Get(ctx, id)
		require.NoError(t, err, id)
		require.Equal(t, id, got.ID())
		require.Equal(t, id, got.Get("v"))

		require.NoError(t, got.Destroy(ctx, document.Direct), id)
		_, err = db.Get(ctx, id)
		require.ErrorIs(t, err, document.ErrNotFound, id)
	}
}

func TestCopyToIDWithQuestionMarkOverHTTP(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := db.SaveDoc(ctx, document.FromMap(map[string]any{"_id": "x", "k": "original"}), document.Direct)
	require.NoError(t, err)
	src, err := db.SaveDoc(ctx, document.FromMap(map[string]any{"_id": "src/1", "k": "copied"}), document.Direct)
	require.NoError(t, err)
	doc, err := db.Get(ctx, src.ID)
	require.NoError(t, err)

	require.NoError(t, doc.Copy(ctx, document.To("x?y")))
	copied, err := db.Get(ctx, "x?y")
	require.NoError(t, err)
	require.Equal(t, "copied", copied.Get("k"))

	// the id before the "?" is untouched
	x, err := db.Get(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, "original", x.Get("k"))

	require.NoError(t, doc.Move(ctx, document.Overwrite(copied)))
	require.Equal(t, "x?y", doc.ID())
	_, err = db.Get(ctx, "src/1")
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestUnexpectedStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"unavailable","reason":"maintenance"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Get(context.Background(), "db", "a")
	var te *document.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, http.StatusServiceUnavailable, te.Status)
	require.Equal(t, "maintenance", te.Reason)
}

func TestConnectionFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	db := document.NewDatabase("db", New(url))
	require.NoError(t, db.Bind(document.New()).Save(context.Background(), document.Bulk))
	_, err := db.BulkSave(context.Background())
	var te *document.TransportError
	require.ErrorAs(t, err, &te)
	require.Error(t, te.Err)
	require.Equal(t, 1, db.Pending())
}

func TestCopySendsDestinationHeader(t *testing.T) {
	var gotMethod, gotDest, gotRev string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotDest, gotRev = r.Method, r.Header.Get("Destination"), r.URL.Query().Get("rev")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"b","rev":"1-b"}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Copy(context.Background(), "db", "a", "3-a", document.ToRev("b", "2-b"))
	require.NoError(t, err)
	require.Equal(t, "COPY", gotMethod)
	require.Equal(t, "b?rev=2-b", gotDest)
	require.Equal(t, "3-a", gotRev)
	require.Equal(t, "1-b", res.Rev)
}
