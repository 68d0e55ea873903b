// Package couchhttp implements document.Transport over the store's REST
// protocol.
package couchhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gogotex/docstore/pkg/document"
)

// Client talks to one store server. It is safe for concurrent use.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

var _ document.Transport = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero leaves requests bounded only by the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5984".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{base: strings.TrimRight(baseURL, "/"), http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// escape path-escapes a segment. "+" is escaped too: the server unescapes
// escaped paths with query rules, where a bare "+" reads as a space.
func escape(segment string) string {
	return strings.ReplaceAll(url.PathEscape(segment), "+", "%2B")
}

func docPath(db, id string) string {
	return "/" + escape(db) + "/" + escape(id)
}

func (c *Client) Get(ctx context.Context, db, id string) (*document.Document, error) {
	doc := document.New()
	if err := c.do(ctx, "get "+id, http.MethodGet, docPath(db, id), nil, nil, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save PUTs documents that carry an id and POSTs the others.
func (c *Client) Save(ctx context.Context, db string, doc *document.Document) (document.Result, error) {
	var res document.Result
	var err error
	if id := doc.ID(); id != "" {
		err = c.do(ctx, "save "+id, http.MethodPut, docPath(db, id), nil, doc, &res)
	} else {
		err = c.do(ctx, "save", http.MethodPost, "/"+escape(db), nil, doc, &res)
	}
	return res, err
}

func (c *Client) Delete(ctx context.Context, db, id, rev string) (document.Result, error) {
	var res document.Result
	path := docPath(db, id) + "?rev=" + url.QueryEscape(rev)
	err := c.do(ctx, "delete "+id, http.MethodDelete, path, nil, nil, &res)
	return res, err
}

func (c *Client) BulkDocs(ctx context.Context, db string, docs []*document.Document) ([]document.BulkResult, error) {
	var results []document.BulkResult
	body := struct {
		Docs []*document.Document `json:"docs"`
	}{docs}
	err := c.do(ctx, "bulk_docs", http.MethodPost, "/"+escape(db)+"/_bulk_docs", nil, body, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) Copy(ctx context.Context, db, id, rev string, dest document.Destination) (document.Result, error) {
	var res document.Result
	path := docPath(db, id)
	if rev != "" {
		path += "?rev=" + url.QueryEscape(rev)
	}
	header := http.Header{"Destination": []string{dest.String()}}
	err := c.do(ctx, "copy "+id, "COPY", path, header, nil, &res)
	return res, err
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (c *Client) do(ctx context.Context, op, method, path string, header http.Header, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &document.TransportError{Op: op, Err: err}
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &document.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &document.TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, document.ErrNotFound)
		case http.StatusConflict, http.StatusPreconditionFailed:
			return fmt.Errorf("%s: %w", op, document.ErrConflict)
		}
		reason := eb.Reason
		if reason == "" {
			reason = eb.Error
		}
		return &document.TransportError{Op: op, Status: resp.StatusCode, Reason: reason}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &document.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
