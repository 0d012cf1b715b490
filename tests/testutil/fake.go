package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/worktrack/internal/docstore"
)

// WriteCall records one call made to a FlakyWriter.
type WriteCall struct {
	Op         string
	Collection string
	ID         string
	Fields     map[string]any
}

// FlakyWriter wraps a Writer and fails selected writes.
type FlakyWriter struct {
	Next docstore.Writer

	mu    sync.Mutex
	fail  map[string]error
	calls []WriteCall
}

// NewFlakyWriter wraps next. A nil next makes every unfailed write succeed
// without storing anything.
func NewFlakyWriter(next docstore.Writer) *FlakyWriter {
	return &FlakyWriter{Next: next, fail: map[string]error{}}
}

// FailOn makes writes to collection/id return err. An empty id matches every
// document of the collection.
func (w *FlakyWriter) FailOn(collection, id string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail[collection+"/"+id] = err
}

// Calls returns the recorded calls in order.
func (w *FlakyWriter) Calls() []WriteCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]WriteCall, len(w.calls))
	copy(out, w.calls)
	return out
}

func (w *FlakyWriter) record(op, collection, id string, fields map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, WriteCall{Op: op, Collection: collection, ID: id, Fields: fields})
	if err, ok := w.fail[collection+"/"+id]; ok {
		return fmt.Errorf("%s %s/%s: %w", op, collection, id, err)
	}
	if err, ok := w.fail[collection+"/"]; ok {
		return fmt.Errorf("%s %s/%s: %w", op, collection, id, err)
	}
	return nil
}

func (w *FlakyWriter) Create(ctx context.Context, collection, id string, fields map[string]any) (string, error) {
	if err := w.record("create", collection, id, fields); err != nil {
		return "", err
	}
	if w.Next == nil {
		return id, nil
	}
	return w.Next.Create(ctx, collection, id, fields)
}

func (w *FlakyWriter) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := w.record("update", collection, id, fields); err != nil {
		return err
	}
	if w.Next == nil {
		return nil
	}
	return w.Next.Update(ctx, collection, id, fields)
}

func (w *FlakyWriter) Delete(ctx context.Context, collection, id string) error {
	if err := w.record("delete", collection, id, nil); err != nil {
		return err
	}
	if w.Next == nil {
		return nil
	}
	return w.Next.Delete(ctx, collection, id)
}
