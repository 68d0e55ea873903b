// Package document is the client-side model of a REST document store: one
// JSON document per URL, optimistic concurrency through revision tokens.
//
// A Document is an ordered set of fields. The reserved fields "_id" and
// "_rev" carry the document identifier and the revision the store last
// assigned. A Document may be bound to a Database; only bound documents can
// be saved, destroyed, copied or moved.
//
//	db := document.NewDatabase("notes", couchhttp.New("http://localhost:5984"))
//	doc := document.New()
//	doc.Set("title", "hello")
//	if err := db.Bind(doc).Save(ctx, document.Direct); err != nil {
//		...
//	}
//	fmt.Println(doc.ID(), doc.Rev())
//
// Writes can also be deferred into the database's bulk queue and submitted
// together with Database.BulkSave.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Reserved field names.
const (
	IDKey      = "_id"      // document identifier
	RevKey     = "_rev"     // revision the store last assigned
	DeletedKey = "_deleted" // marks a queued bulk write as a deletion
)

// WriteMode selects between an immediate request and the bulk queue.
type WriteMode int

const (
	Direct WriteMode = iota
	Bulk
)

func (m WriteMode) String() string {
	if m == Bulk {
		return "bulk"
	}
	return "direct"
}

// Symbol is a field name given as a distinct type. Fields set through a
// Symbol are read back with the equal string and vice versa.
type Symbol string

func (s Symbol) String() string { return string(s) }

// KeyString coerces a field key of any type to its string form.
func KeyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	case []byte:
		return string(k)
	case int:
		return strconv.Itoa(k)
	case int64:
		return strconv.FormatInt(k, 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	case bool:
		return strconv.FormatBool(k)
	default:
		return fmt.Sprint(k)
	}
}

// Document is a mutable, ordered JSON object. The zero value is an empty
// unbound document ready for use.
type Document struct {
	keys   []string
	fields map[string]any
	db     *Database
}

// New returns an empty, unbound document.
func New() *Document {
	return &Document{}
}

// FromMap builds an unbound document from m. Go maps carry no order, so the
// keys are inserted sorted.
func FromMap(m map[string]any) *Document {
	d := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return d
}

// Get returns the value stored under key, or nil if there is none.
func (d *Document) Get(key string) any {
	return d.fields[key]
}

// Set stores v under key. New keys are appended after existing ones.
func (d *Document) Set(key string, v any) {
	if d.fields == nil {
		d.fields = make(map[string]any)
	}
	if _, ok := d.fields[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = v
}

// Field is Get with key coercion (see KeyString).
func (d *Document) Field(key any) any {
	return d.Get(KeyString(key))
}

// SetField is Set with key coercion (see KeyString).
func (d *Document) SetField(key any, v any) {
	d.Set(KeyString(key), v)
}

func (d *Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

func (d *Document) Delete(key string) {
	if _, ok := d.fields[key]; !ok {
		return
	}
	delete(d.fields, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *Document) Len() int { return len(d.keys) }

// Keys returns the field names in insertion order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Range calls fn for each field in order until fn returns false.
func (d *Document) Range(fn func(key string, v any) bool) {
	for _, k := range d.keys {
		if !fn(k, d.fields[k]) {
			return
		}
	}
}

// Map returns a shallow copy of the fields as a plain map.
func (d *Document) Map() map[string]any {
	m := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		m[k] = d.fields[k]
	}
	return m
}

// Clone returns a shallow copy of the fields. The copy is bound to the same
// database.
func (d *Document) Clone() *Document {
	c := &Document{db: d.db, keys: append([]string(nil), d.keys...)}
	if d.fields != nil {
		c.fields = make(map[string]any, len(d.fields))
		for k, v := range d.fields {
			c.fields[k] = v
		}
	}
	return c
}

// ID returns the "_id" field, or "" if it is unset.
func (d *Document) ID() string {
	s, _ := d.fields[IDKey].(string)
	return s
}

// Rev returns the "_rev" field, or "" if it is unset.
func (d *Document) Rev() string {
	s, _ := d.fields[RevKey].(string)
	return s
}

// SetID sets "_id"; an empty id removes the field.
func (d *Document) SetID(id string) {
	if id == "" {
		d.Delete(IDKey)
		return
	}
	d.Set(IDKey, id)
}

// SetRev sets "_rev"; an empty revision removes the field.
func (d *Document) SetRev(rev string) {
	if rev == "" {
		d.Delete(RevKey)
		return
	}
	d.Set(RevKey, rev)
}

// Database returns the database the document is bound to, or nil.
func (d *Document) Database() *Database {
	return d.db
}

// Bind attaches the document to db. The document does not own db; a nil db
// unbinds it.
func (d *Document) Bind(db *Database) *Document {
	d.db = db
	return d
}

// Save writes the document through its database. In Direct mode the
// identifier and revision assigned by the store are written back into the
// document. In Bulk mode the document is queued and left as is until the
// queue is flushed.
func (d *Document) Save(ctx context.Context, mode WriteMode) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	_, err := d.db.SaveDoc(ctx, d, mode)
	return err
}

// Destroy deletes the document from the store. In Bulk mode the deletion is
// queued and the document's "_id" and "_rev" are cleared right away: the
// document is locally cleared, remotely pending, and remains fetchable from
// the store until the queue is flushed.
func (d *Document) Destroy(ctx context.Context, mode WriteMode) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	return d.db.DeleteDoc(ctx, d, mode)
}

// Copy asks the store to duplicate this document's current content to dest.
// Neither the stored source nor this value is modified.
func (d *Document) Copy(ctx context.Context, dest Destination) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	_, err := d.db.CopyDoc(ctx, d, dest)
	return err
}

// Move copies the document to dest and then deletes the source. The two steps
// are not atomic; see Database.MoveDoc.
func (d *Document) Move(ctx context.Context, dest Destination) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	return d.db.MoveDoc(ctx, d, dest)
}

// MarshalJSON encodes the fields in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.fields[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the fields with the decoded object, keeping the
// order of its top-level keys. The database binding is left untouched.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document: expected JSON object, got %v", tok)
	}
	d.keys = nil
	d.fields = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("document: expected object key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		d.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
