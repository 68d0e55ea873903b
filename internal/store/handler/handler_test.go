package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gogotex/docstore/internal/store/repository"
	"github.com/gogotex/docstore/internal/store/service"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	MatchEscapedIDs(g)
	RegisterDocumentRoutes(g, service.New(repository.NewMemoryRepo()))
	return g
}

func do(g *gin.Engine, method, path, body string, header ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	g.ServeHTTP(w, req)
	return w
}

func TestDocumentHandler_CRUD(t *testing.T) {
	g := newTestRouter()

	// create
	w := do(g, http.MethodPut, "/notes/a", `{"title":"hi","tags":[1,2]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	rev, _ := cr["rev"].(string)
	require.Equal(t, "a", cr["id"])
	require.NotEmpty(t, rev)

	// get keeps field order
	w = do(g, http.MethodGet, "/notes/a", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"_id":"a","_rev":"`+rev+`","title":"hi","tags":[1,2]}`, w.Body.String())

	// update without rev conflicts
	w = do(g, http.MethodPut, "/notes/a", `{"title":"again"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), `"error":"conflict"`)

	// update with ?rev=
	w = do(g, http.MethodPut, "/notes/a?rev="+rev, `{"title":"again"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	rev = cr["rev"].(string)

	// delete
	w = do(g, http.MethodDelete, "/notes/a?rev="+rev, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodGet, "/notes/a", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"not_found","reason":"missing"}`, w.Body.String())
}

func TestDocumentHandler_EscapedIDs(t *testing.T) {
	g := newTestRouter()

	w := do(g, http.MethodPut, "/notes/_design%2Fviews", `{"k":"v"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	require.Equal(t, "_design/views", cr["id"])

	w = do(g, http.MethodGet, "/notes/_design%2Fviews", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"_id":"_design/views"`)

	w = do(g, "COPY", "/notes/_design%2Fviews", "", "Destination", "x%3Fy")
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, http.StatusOK, do(g, http.MethodGet, "/notes/x%3Fy", "").Code)
	require.Equal(t, http.StatusNotFound, do(g, http.MethodGet, "/notes/x", "").Code)
}

func TestDocumentHandler_PostAssignsID(t *testing.T) {
	g := newTestRouter()

	w := do(g, http.MethodPost, "/notes", `{"k":"v"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	id, _ := cr["id"].(string)
	require.NotEmpty(t, id)

	w = do(g, http.MethodGet, "/notes/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodPost, "/notes", `[1,2]`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_BulkDocs(t *testing.T) {
	g := newTestRouter()

	w := do(g, http.MethodPost, "/notes/_bulk_docs", `{"docs":[{"_id":"x","v":1},{"_id":"x","v":2}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 2)
	require.Equal(t, "x", results[0]["id"])
	require.NotContains(t, results[0], "error")
	require.Equal(t, "conflict", results[1]["error"])

	w = do(g, http.MethodPost, "/notes/_bulk_docs", `{"docs":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_Copy(t *testing.T) {
	g := newTestRouter()

	require.Equal(t, http.StatusCreated, do(g, http.MethodPut, "/notes/src", `{"key":"value"}`).Code)

	w := do(g, "COPY", "/notes/src", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, "COPY", "/notes/src", "", "Destination", "dst")
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	dstRev := cr["rev"].(string)

	w = do(g, "COPY", "/notes/src", "", "Destination", "dst")
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(g, "COPY", "/notes/src", "", "Destination", "dst?rev="+dstRev)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(g, http.MethodGet, "/notes/dst", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"key":"value"`)
}
