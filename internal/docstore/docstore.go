// Package docstore abstracts the remote document database behind a small
// CRUD + query + batch + snapshot-listener surface so repositories can be
// wired against Firestore in production and the in-memory store in tests.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound distinguishes an absent document from a transport failure.
var ErrNotFound = errors.New("document not found")

// Doc is a loosely typed document body, as the backend stores it.
type Doc map[string]interface{}

// Snapshot is one document as delivered by a read or a listener push.
type Snapshot struct {
	ID   string
	Data Doc
}

// Filter is a single query predicate. Op is one of "==", "array-contains",
// ">=", "<".
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// Update sets one field. The value may be a plain value or an ArrayUnion /
// ArrayRemove op.
type Update struct {
	Field string
	Value interface{}
}

type arrayUnion struct{ elems []interface{} }
type arrayRemove struct{ elems []interface{} }

// ArrayUnion appends elems to an array field, skipping ones already present.
func ArrayUnion(elems ...interface{}) interface{} { return arrayUnion{elems: elems} }

// ArrayRemove removes all occurrences of elems from an array field.
func ArrayRemove(elems ...interface{}) interface{} { return arrayRemove{elems: elems} }

// Batch collects writes that commit atomically as one unit.
type Batch interface {
	Set(col, id string, data Doc)
	Update(col, id string, ups ...Update)
	Delete(col, id string)
	Commit(ctx context.Context) error
}

// CancelFunc tears down a listener. Safe to call more than once.
type CancelFunc func()

// Store is the document database contract.
//
// Collections are addressed by slash-separated path strings, e.g. "users" or
// "users/u1/notifications". Listeners deliver the current state once at
// subscribe time and then on every change, in order, on a background
// goroutine; two independent listeners have no ordering relationship.
type Store interface {
	Get(ctx context.Context, col, id string) (Snapshot, error)
	Create(ctx context.Context, col string, data Doc) (string, error)
	Set(ctx context.Context, col, id string, data Doc, merge bool) error
	Update(ctx context.Context, col, id string, ups ...Update) error
	Delete(ctx context.Context, col, id string) error
	Query(ctx context.Context, col string, filters ...Filter) ([]Snapshot, error)
	Batch() Batch
	ListenDoc(ctx context.Context, col, id string, fn func(snap Snapshot, exists bool)) CancelFunc
	ListenQuery(ctx context.Context, col string, f Filter, fn func(snaps []Snapshot)) CancelFunc
}

// ---- defensive accessors ----
//
// Documents have no enforced schema, so every read defaults missing or
// mistyped fields instead of failing.

func (d Doc) Has(key string) bool {
	_, ok := d[key]
	return ok
}

func (d Doc) String(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

func (d Doc) Bool(key string) bool {
	if v, ok := d[key].(bool); ok {
		return v
	}
	return false
}

func (d Doc) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (d Doc) Time(key string) time.Time {
	switch v := d[key].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

// Strings reads an array field as a string slice, dropping non-string elems.
func (d Doc) Strings(key string) []string {
	switch v := d[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Maps reads an array field as a slice of nested documents.
func (d Doc) Maps(key string) []Doc {
	raw, ok := d[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Doc, 0, len(raw))
	for _, e := range raw {
		switch m := e.(type) {
		case map[string]interface{}:
			out = append(out, Doc(m))
		case Doc:
			out = append(out, m)
		}
	}
	return out
}
