// Package docstore is a document store with the contract of the remote
// backend: collections of JSON records keyed by id, full-snapshot queries and
// create/update/delete writes.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a write targets a missing document.
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists is returned when Create is given an id already in use.
	ErrAlreadyExists = errors.New("document already exists")

	// ErrIndexRequired is matched by IndexError.
	ErrIndexRequired = errors.New("query requires a composite index")
)

// IndexError reports a query that filters on one field and orders by another
// without a declared index covering both.
type IndexError struct {
	Query Query
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIndexRequired, e.Query)
}

// Is lets errors.Is match IndexError against ErrIndexRequired.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndexRequired
}

// IsIndexError checks whether an error is (or wraps) an IndexError.
func IsIndexError(err error) bool {
	var ie *IndexError
	return errors.As(err, &ie)
}

// Document is one stored record.
type Document struct {
	ID         string
	Collection string
	Fields     map[string]any

	// Seq is the arrival position within the collection.
	Seq int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Server-managed field names merged into Data.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Data returns the record as seen by clients: the stored fields plus the id
// and server timestamps.
func (d Document) Data() map[string]any {
	out := make(map[string]any, len(d.Fields)+3)
	for k, v := range d.Fields {
		out[k] = v
	}
	out[FieldID] = d.ID
	out[FieldCreatedAt] = d.CreatedAt
	out[FieldUpdatedAt] = d.UpdatedAt
	return out
}

// Value returns a single field of Data.
func (d Document) Value(field string) any {
	switch field {
	case FieldID:
		return d.ID
	case FieldCreatedAt:
		return d.CreatedAt
	case FieldUpdatedAt:
		return d.UpdatedAt
	}
	return d.Fields[field]
}

// Filter is an equality predicate.
type Filter struct {
	Field string
	Value any
}

// Order sorts query results on one field.
type Order struct {
	Field string
	Desc  bool
}

// Query selects documents of one collection.
type Query struct {
	Collection string
	Where      []Filter
	OrderBy    *Order
}

// Unordered returns a copy of q without ordering.
func (q Query) Unordered() Query {
	q.OrderBy = nil
	return q
}

// NeedsIndex reports whether the store requires a composite index to serve
// q: ordering on a field other than one being filtered.
func (q Query) NeedsIndex() bool {
	if q.OrderBy == nil {
		return false
	}
	for _, f := range q.Where {
		if f.Field != q.OrderBy.Field {
			return true
		}
	}
	return false
}

// Matches reports whether d satisfies every filter of q.
func (q Query) Matches(d Document) bool {
	for _, f := range q.Where {
		v := d.Value(f.Field)
		if v == nil || f.Value == nil {
			if v != f.Value {
				return false
			}
			continue
		}
		if compareValues(v, f.Value) != 0 {
			return false
		}
	}
	return true
}

func (q Query) String() string {
	var b strings.Builder
	b.WriteString(q.Collection)
	for _, f := range q.Where {
		fmt.Fprintf(&b, " where %s == %v", f.Field, f.Value)
	}
	if q.OrderBy != nil {
		dir := "asc"
		if q.OrderBy.Desc {
			dir = "desc"
		}
		fmt.Fprintf(&b, " order by %s %s", q.OrderBy.Field, dir)
	}
	return b.String()
}

// Reader is the read side of the store.
type Reader interface {
	// Query returns the full current member set of q in arrival order, or
	// sorted when q is ordered.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Revision returns a counter that increases on every write to the
	// collection.
	Revision(ctx context.Context, collection string) (int64, error)
}

// Writer is the write side of the store.
type Writer interface {
	// Create stores a new document. An empty id gets a generated one.
	Create(ctx context.Context, collection, id string, fields map[string]any) (string, error)

	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	Delete(ctx context.Context, collection, id string) error
}

// Store is a complete document store.
type Store interface {
	Reader
	Writer
	EnsureIndex(ctx context.Context, collection, field, orderBy string) error
	Close() error
}
