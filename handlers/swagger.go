package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers Swagger/OpenAPI endpoints for the document store.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>docstore - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "docstore", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Document": { "type": "object", "properties": { "_id": {"type":"string"}, "_rev": {"type":"string"}, "_deleted": {"type":"boolean"} }, "additionalProperties": true },
      "Result": { "type": "object", "properties": { "ok": {"type":"boolean"}, "id": {"type":"string"}, "rev": {"type":"string"} } },
      "BulkResult": { "type": "object", "properties": { "id": {"type":"string"}, "rev": {"type":"string"}, "error": {"type":"string"}, "reason": {"type":"string"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "reason": {"type":"string"} } }
    }
  },
  "paths": {
    "/{db}": {
      "post": {
        "summary": "Create a document with a server-assigned id",
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Document" } } } },
        "responses": { "201": { "description": "created" }, "400": { "description": "body is not a JSON object" } }
      }
    },
    "/{db}/{id}": {
      "get": {
        "summary": "Fetch the current revision of a document",
        "responses": { "200": { "description": "document" }, "404": { "description": "missing or deleted" } }
      },
      "put": {
        "summary": "Create or update a document; updates must carry the current _rev",
        "parameters": [ { "name": "rev", "in": "query", "schema": {"type":"string"} } ],
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Document" } } } },
        "responses": { "201": { "description": "saved" }, "409": { "description": "revision conflict" } }
      },
      "delete": {
        "summary": "Delete a document at the given revision",
        "parameters": [ { "name": "rev", "in": "query", "schema": {"type":"string"} } ],
        "responses": { "200": { "description": "deleted" }, "404": { "description": "missing" }, "409": { "description": "revision conflict" } }
      },
      "copy": {
        "summary": "Copy a document to the id named by the Destination header (id or id?rev=REV)",
        "parameters": [
          { "name": "Destination", "in": "header", "required": true, "schema": {"type":"string"} },
          { "name": "rev", "in": "query", "schema": {"type":"string"} }
        ],
        "responses": { "201": { "description": "copied" }, "400": { "description": "no Destination header" }, "404": { "description": "source missing" }, "409": { "description": "destination exists or source rev stale" } }
      }
    },
    "/{db}/_bulk_docs": {
      "post": {
        "summary": "Write many documents; conflicts are reported per document",
        "requestBody": { "content": { "application/json": { "schema": { "type":"object", "properties": { "docs": { "type":"array", "items": { "$ref": "#/components/schemas/Document" } } } } } } },
        "responses": { "201": { "description": "one result per document, in order" } }
      }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
