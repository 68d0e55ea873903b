package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gogotex/docstore/internal/store/service"
	"github.com/gogotex/docstore/pkg/document"
)

// MatchEscapedIDs makes g route on the escaped request path, so an id sent
// as "a%2Fb" reaches the handlers as the single :id "a/b". Engines serving
// RegisterDocumentRoutes need it for ids containing "/".
func MatchEscapedIDs(g *gin.Engine) {
	g.UseRawPath = true
	g.UnescapePathValues = true
}

// RegisterDocumentRoutes registers the document REST protocol:
//
//	GET    /:db/:id              fetch a live document
//	PUT    /:db/:id              create or update (rev in body "_rev" or ?rev=)
//	POST   /:db                  create with a store-assigned id
//	DELETE /:db/:id?rev=         delete
//	POST   /:db/_bulk_docs       batch write {"docs":[...]}
//	COPY   /:db/:id[?rev=]       copy to the Destination header "id[?rev=]"
func RegisterDocumentRoutes(r gin.IRoutes, store document.Transport) {
	r.GET("/:db/:id", func(c *gin.Context) {
		doc, err := store.Get(c.Request.Context(), c.Param("db"), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	})

	r.PUT("/:db/:id", func(c *gin.Context) {
		doc, ok := bindDocument(c)
		if !ok {
			return
		}
		doc.SetID(c.Param("id"))
		if rev := c.Query("rev"); rev != "" && doc.Rev() == "" {
			doc.SetRev(rev)
		}
		save(c, store, doc)
	})

	r.POST("/:db", func(c *gin.Context) {
		doc, ok := bindDocument(c)
		if !ok {
			return
		}
		save(c, store, doc)
	})

	r.DELETE("/:db/:id", func(c *gin.Context) {
		rev := c.Query("rev")
		if rev == "" {
			rev = c.GetHeader("If-Match")
		}
		res, err := store.Delete(c.Request.Context(), c.Param("db"), c.Param("id"), rev)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	r.POST("/:db/_bulk_docs", func(c *gin.Context) {
		var req struct {
			Docs []*document.Document `json:"docs"`
		}
		body, err := c.GetRawData()
		if err == nil {
			err = json.Unmarshal(body, &req)
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": document.CodeBadRequest, "reason": err.Error()})
			return
		}
		for i, d := range req.Docs {
			if d == nil {
				req.Docs[i] = document.New()
			}
		}
		results, err := store.BulkDocs(c.Request.Context(), c.Param("db"), req.Docs)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, results)
	})

	r.Handle("COPY", "/:db/:id", func(c *gin.Context) {
		dest := document.ParseDestination(c.GetHeader("Destination"))
		if dest.ID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": document.CodeBadRequest, "reason": "Destination header is mandatory for COPY."})
			return
		}
		res, err := store.Copy(c.Request.Context(), c.Param("db"), c.Param("id"), c.Query("rev"), dest)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	})
}

func bindDocument(c *gin.Context) (*document.Document, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": document.CodeBadRequest, "reason": err.Error()})
		return nil, false
	}
	doc := document.New()
	if err := doc.UnmarshalJSON(body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": document.CodeBadRequest, "reason": "Document must be a JSON object"})
		return nil, false
	}
	return doc, true
}

func save(c *gin.Context, store document.Transport, doc *document.Document) {
	res, err := store.Save(c.Request.Context(), c.Param("db"), doc)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func abortWithError(c *gin.Context, err error) {
	code, reason := service.ErrorCode(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, document.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, document.ErrConflict):
		status = http.StatusConflict
	case code == document.CodeBadRequest:
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code, "reason": reason})
}
