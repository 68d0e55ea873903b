package document

import (
	"net/url"
	"strings"
)

// Destination names the target of a copy or move. An empty Rev means the
// target must not exist yet; a Rev authorizes overwriting the document
// currently stored at ID with that revision.
type Destination struct {
	ID  string
	Rev string
}

// To targets a new document at id.
func To(id string) Destination {
	return Destination{ID: id}
}

// ToRev targets the existing document at id, currently at revision rev.
func ToRev(id, rev string) Destination {
	return Destination{ID: id, Rev: rev}
}

// Overwrite targets the stored document that doc was fetched as.
func Overwrite(doc *Document) Destination {
	return Destination{ID: doc.ID(), Rev: doc.Rev()}
}

// ParseDestination reads the "id" or "id?rev=rev" form used by the COPY
// request's Destination header. The id is path-escaped, as String writes it.
func ParseDestination(s string) Destination {
	raw, query, ok := strings.Cut(s, "?")
	id, err := url.PathUnescape(raw)
	if err != nil {
		id = raw
	}
	if !ok {
		return Destination{ID: id}
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		return Destination{ID: id}
	}
	return Destination{ID: id, Rev: q.Get("rev")}
}

// String formats d for the Destination header. The id is escaped so that
// a "?" or "%" in it survives ParseDestination.
func (d Destination) String() string {
	id := url.PathEscape(d.ID)
	if d.Rev == "" {
		return id
	}
	return id + "?rev=" + url.QueryEscape(d.Rev)
}
