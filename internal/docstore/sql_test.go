package docstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/tests/testutil"
)

func TestCreateAndQuery(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	id, err := s.Create(ctx, "tasks", "", map[string]any{"title": "first"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.Create(ctx, "tasks", "t2", map[string]any{"title": "second", "id": "ignored"})
	require.NoError(t, err)

	docs, err := s.Query(ctx, docstore.Query{Collection: "tasks"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, "t2", docs[1].ID)
	assert.Equal(t, "second", docs[1].Data()["title"])
	assert.Equal(t, "t2", docs[1].Data()["id"])
	assert.True(t, docs[1].CreatedAt.After(docs[0].CreatedAt))
}

func TestCreateDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.Create(ctx, "notifications", "deadline-u1-t1", map[string]any{})
	require.NoError(t, err)

	_, err = s.Create(ctx, "notifications", "deadline-u1-t1", map[string]any{})
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)
}

func TestUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.Create(ctx, "tasks", "t1", map[string]any{"title": "a", "status": "todo"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "tasks", "t1", map[string]any{"status": "completed"}))

	doc, err := s.Get(ctx, "tasks", "t1")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Fields["title"])
	assert.Equal(t, "completed", doc.Fields["status"])
	assert.True(t, doc.UpdatedAt.After(doc.CreatedAt))
}

func TestWritesToMissingDocuments(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	assert.ErrorIs(t, s.Update(ctx, "tasks", "nope", map[string]any{"x": 1}), docstore.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "tasks", "nope"), docstore.ErrNotFound)

	_, err := s.Get(ctx, "tasks", "nope")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestRevisionAdvancesOnEveryWrite(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	rev, err := s.Revision(ctx, "projects")
	require.NoError(t, err)
	assert.Zero(t, rev)

	_, err = s.Create(ctx, "projects", "p1", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	r1, _ := s.Revision(ctx, "projects")

	require.NoError(t, s.Update(ctx, "projects", "p1", map[string]any{"name": "Acme 2"}))
	r2, _ := s.Revision(ctx, "projects")

	require.NoError(t, s.Delete(ctx, "projects", "p1"))
	r3, _ := s.Revision(ctx, "projects")

	assert.Less(t, rev, r1)
	assert.Less(t, r1, r2)
	assert.Less(t, r2, r3)

	other, _ := s.Revision(ctx, "tasks")
	assert.Zero(t, other)
}

func TestQueryOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	for _, f := range []map[string]any{
		{"recipientUid": "u1", "timestamp": "2024-03-01T10:00:00.000000000Z"},
		{"recipientUid": "u2", "timestamp": "2024-03-01T11:00:00.000000000Z"},
		{"recipientUid": "u1"},
		{"recipientUid": "u1", "timestamp": "2024-03-01T12:00:00.000000000Z"},
	} {
		_, err := s.Create(ctx, "notifications", "", f)
		require.NoError(t, err)
	}

	q := docstore.Query{
		Collection: "notifications",
		Where:      []docstore.Filter{{Field: "recipientUid", Value: "u1"}},
		OrderBy:    &docstore.Order{Field: "timestamp", Desc: true},
	}

	_, err := s.Query(ctx, q)
	require.Error(t, err)
	assert.True(t, errors.Is(err, docstore.ErrIndexRequired))
	assert.True(t, docstore.IsIndexError(err))

	require.NoError(t, s.EnsureIndex(ctx, "notifications", "recipientUid", "timestamp"))
	require.NoError(t, s.EnsureIndex(ctx, "notifications", "recipientUid", "timestamp"))

	docs, err := s.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "2024-03-01T12:00:00.000000000Z", docs[0].Fields["timestamp"])
	assert.Equal(t, "2024-03-01T10:00:00.000000000Z", docs[1].Fields["timestamp"])
	assert.Nil(t, docs[2].Fields["timestamp"])
}

func TestOrderingOnFilteredFieldNeedsNoIndex(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.Create(ctx, "tasks", "", map[string]any{"title": "x"})
	require.NoError(t, err)

	docs, err := s.Query(ctx, docstore.Query{
		Collection: "tasks",
		OrderBy:    &docstore.Order{Field: "createdAt", Desc: true},
	})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
