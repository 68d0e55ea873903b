package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/gogotex/docstore/internal/store/repository"
	"github.com/gogotex/docstore/pkg/document"
	"github.com/gogotex/docstore/pkg/metrics"
)

func newTestService() *Service {
	return New(repository.NewMemoryRepo())
}

func TestSaveAssignsIDAndRevision(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	doc := document.New()
	doc.Set("key", "value")
	res, err := svc.Save(ctx, "db", doc)
	require.NoError(t, err)
	require.Len(t, res.ID, 32)
	require.Equal(t, 1, generation(res.Rev))

	got, err := svc.Get(ctx, "db", res.ID)
	require.NoError(t, err)
	require.Equal(t, res.ID, got.ID())
	require.Equal(t, res.Rev, got.Rev())
	require.Equal(t, "value", got.Get("key"))
	require.Equal(t, []string{"_id", "_rev", "key"}, got.Keys())
}

func TestSaveRequiresCurrentRevision(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	doc := document.New()
	doc.SetID("a")
	first, err := svc.Save(ctx, "db", doc)
	require.NoError(t, err)

	// creating again without a revision conflicts
	_, err = svc.Save(ctx, "db", doc)
	require.ErrorIs(t, err, document.ErrConflict)

	doc.SetRev(first.Rev)
	doc.Set("more", "keys")
	second, err := svc.Save(ctx, "db", doc)
	require.NoError(t, err)
	require.Equal(t, 2, generation(second.Rev))

	// the first revision is stale now
	_, err = svc.Save(ctx, "db", doc)
	require.ErrorIs(t, err, document.ErrConflict)
}

func TestDeleteLeavesTombstone(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	doc := document.FromMap(map[string]any{"_id": "a", "k": 1})
	res, err := svc.Save(ctx, "db", doc)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "db", "a", "1-bogus")
	require.ErrorIs(t, err, document.ErrConflict)

	del, err := svc.Delete(ctx, "db", "a", res.Rev)
	require.NoError(t, err)
	require.Equal(t, 2, generation(del.Rev))

	_, err = svc.Get(ctx, "db", "a")
	require.ErrorIs(t, err, document.ErrNotFound)
	_, err = svc.Delete(ctx, "db", "a", del.Rev)
	require.ErrorIs(t, err, document.ErrNotFound)

	// re-creating continues the revision history
	again, err := svc.Save(ctx, "db", document.FromMap(map[string]any{"_id": "a"}))
	require.NoError(t, err)
	require.Equal(t, 3, generation(again.Rev))
}

func TestBulkDocsReportsPerDocument(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	existing, err := svc.Save(ctx, "db", document.FromMap(map[string]any{"_id": "taken"}))
	require.NoError(t, err)

	docs := []*document.Document{
		document.FromMap(map[string]any{"_id": "new", "n": 1}),
		document.FromMap(map[string]any{"_id": "taken"}),
		document.FromMap(map[string]any{"_id": "taken", "_rev": existing.Rev, "_deleted": true}),
		document.FromMap(map[string]any{"_id": "ghost", "_deleted": true}),
	}
	results, err := svc.BulkDocs(ctx, "db", docs)
	require.NoError(t, err)
	require.Len(t, results, 4)

	require.NoError(t, results[0].Err())
	require.Equal(t, "new", results[0].ID)
	require.ErrorIs(t, results[1].Err(), document.ErrConflict)
	require.NoError(t, results[2].Err())
	require.ErrorIs(t, results[3].Err(), document.ErrNotFound)

	_, err = svc.Get(ctx, "db", "taken")
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestCopy(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	src, err := svc.Save(ctx, "db", document.FromMap(map[string]any{"_id": "src", "key": "value"}))
	require.NoError(t, err)

	_, err = svc.Copy(ctx, "db", "src", "", document.To("dst"))
	require.NoError(t, err)
	got, err := svc.Get(ctx, "db", "dst")
	require.NoError(t, err)
	require.Equal(t, "value", got.Get("key"))

	// existing destination needs its revision
	_, err = svc.Copy(ctx, "db", "src", "", document.To("dst"))
	require.ErrorIs(t, err, document.ErrConflict)
	_, err = svc.Copy(ctx, "db", "src", "", document.Overwrite(got))
	require.NoError(t, err)

	// stale source revision
	_, err = svc.Copy(ctx, "db", "src", "9-stale", document.To("other"))
	require.ErrorIs(t, err, document.ErrConflict)
	_, err = svc.Copy(ctx, "db", "src", src.Rev, document.To("other"))
	require.NoError(t, err)

	_, err = svc.Copy(ctx, "db", "missing", "", document.To("x"))
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestOperationsAreCounted(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.StoreRequests.WithLabelValues("get", "not_found"))

	_, err := svc.Get(ctx, "db", "nope")
	require.ErrorIs(t, err, document.ErrNotFound)

	require.Equal(t, before+1, testutil.ToFloat64(metrics.StoreRequests.WithLabelValues("get", "not_found")))
}
