package crate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCrates(t *testing.T, s *Service, owner Identity, n int) []string {
	t.Helper()

	ids := make([]string, 0, n)

	// Distinct created_at values so ordering is deterministic
	base := time.Now().Unix() - int64(n)

	for i := range n {
		c := mustUpload(t, s, owner, UploadInput{
			Title: fmt.Sprintf("crate %02d", i),
			Data:  []byte("x"),
		})
		require.NoError(t, s.DB.Model(c).UpdateColumn("created_at", base+int64(i)).Error)
		ids = append(ids, c.ID)
	}

	return ids
}

func TestListNewestFirst(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}

	ids := seedCrates(t, s, owner, 5)

	crates, err := s.List(context.Background(), owner, 0, "")
	require.NoError(t, err)
	require.Len(t, crates, 5)

	// Last seeded crate has the newest created_at
	assert.Equal(t, ids[4], crates[0].ID)
	assert.Equal(t, ids[0], crates[4].ID)
}

func TestListPagination(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}
	ctx := context.Background()

	seedCrates(t, s, owner, 7)

	first, err := s.List(ctx, owner, 3, "")
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := s.List(ctx, owner, 3, first[2].ID)
	require.NoError(t, err)
	require.Len(t, second, 3)

	third, err := s.List(ctx, owner, 3, second[2].ID)
	require.NoError(t, err)
	require.Len(t, third, 1)

	seen := map[string]bool{}
	for _, c := range append(append(first, second...), third...) {
		assert.False(t, seen[c.ID], "crate %s returned twice", c.ID)
		seen[c.ID] = true
	}
	assert.Len(t, seen, 7)
}

func TestListUnknownCursor(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}

	seedCrates(t, s, owner, 2)

	_, err := s.List(context.Background(), owner, 10, "no-such-cursor")
	assert.True(t, IsValidation(err))
}

func TestListScopedToOwner(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	seedCrates(t, s, Identity{UserID: "u1"}, 2)
	seedCrates(t, s, Identity{UserID: "u2"}, 3)

	crates, err := s.List(ctx, Identity{UserID: "u1"}, 0, "")
	require.NoError(t, err)
	assert.Len(t, crates, 2)
}

func TestListExcludesExpired(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}

	ids := seedCrates(t, s, owner, 3)

	past := time.Now().Add(-time.Hour).Unix()
	require.NoError(t, s.DB.Table("crates").Where("id = ?", ids[1]).Update("expires_at", past).Error)

	crates, err := s.List(context.Background(), owner, 0, "")
	require.NoError(t, err)
	require.Len(t, crates, 2)

	for _, c := range crates {
		assert.NotEqual(t, ids[1], c.ID)
	}
}

func TestListRequiresAuth(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.List(context.Background(), Anonymous(), 0, "")
	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestListLimitClamped(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}

	seedCrates(t, s, owner, 3)

	// An absurd limit is capped, not rejected
	crates, err := s.List(context.Background(), owner, 100000, "")
	require.NoError(t, err)
	assert.Len(t, crates, 3)
}

func TestSearch(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}
	ctx := context.Background()

	mustUpload(t, s, owner, UploadInput{
		Title: "Deployment Runbook",
		Tags:  []string{"ops"},
		Data:  []byte("x"),
	})
	mustUpload(t, s, owner, UploadInput{
		Title:       "Meeting notes",
		Description: "Q3 planning and deployment targets",
		Data:        []byte("x"),
	})
	mustUpload(t, s, owner, UploadInput{
		Title:    "Grocery list",
		Metadata: map[string]string{"store": "corner shop"},
		Data:     []byte("x"),
	})

	// Case-insensitive substring across title and description
	results, err := s.Search(ctx, owner, "DEPLOY", 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Tag match
	results, err = s.Search(ctx, owner, "ops", 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Metadata value match
	results, err = s.Search(ctx, owner, "corner", 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = s.Search(ctx, owner, "nonexistent", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchScopedToOwner(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	mustUpload(t, s, Identity{UserID: "u1"}, UploadInput{Title: "shared term", Data: []byte("x")})
	mustUpload(t, s, Identity{UserID: "u2"}, UploadInput{Title: "shared term", Data: []byte("x")})

	results, err := s.Search(ctx, Identity{UserID: "u1"}, "shared", 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Search(context.Background(), Identity{UserID: "u1"}, "   ", 0)
	assert.True(t, IsValidation(err))

	_, err = s.Search(context.Background(), Anonymous(), "anything", 0)
	assert.ErrorIs(t, err, ErrNotPermitted)
}
