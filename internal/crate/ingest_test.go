package crate

import (
	"context"
	"testing"
	"time"

	"mcph/crate-api/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRejectsContradictorySharing(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Upload(context.Background(), Identity{UserID: "u1"}, UploadInput{
		FileName: "a.txt",
		Data:     []byte("x"),
		Public:   true,
		Password: "hunter2",
	})
	assert.ErrorIs(t, err, ErrPublicAndPassword)
}

func TestUploadRejectsUnknownCategory(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Upload(context.Background(), Identity{UserID: "u1"}, UploadInput{
		FileName: "a.txt",
		Data:     []byte("x"),
		Category: "video",
	})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestUploadAnonymous(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	res, err := s.Upload(ctx, Anonymous(), UploadInput{
		FileName: "paste.txt",
		Data:     []byte("anonymous paste"),
	})
	require.NoError(t, err)

	c := res.Crate
	assert.Equal(t, model.AnonymousOwner, c.OwnerID)
	require.NotNil(t, c.ExpiresAt)
	assert.WithinDuration(t,
		time.Now().Add(AnonymousTTL),
		time.Unix(*c.ExpiresAt, 0),
		5*time.Second,
	)

	_, ok := store.objects[c.StoragePath]
	assert.True(t, ok)

	// Anonymous uploads are link-accessible by everyone
	_, err = s.GetContent(ctx, Anonymous(), c.ID, "")
	assert.NoError(t, err)
	_, err = s.GetContent(ctx, Identity{UserID: "u2"}, c.ID, "")
	assert.NoError(t, err)
}

func TestUploadAnonymousRejectsExplicitTTL(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Upload(context.Background(), Anonymous(), UploadInput{
		FileName: "paste.txt",
		Data:     []byte("x"),
		TTL:      24 * time.Hour,
	})
	assert.ErrorIs(t, err, ErrAnonymousExpiry)
}

func TestUploadAuthenticatedDefaults(t *testing.T) {
	s, _ := newTestService(t)

	res, err := s.Upload(context.Background(), Identity{UserID: "u1"}, UploadInput{
		FileName: "report.json",
		Data:     []byte(`{"a":1}`),
	})
	require.NoError(t, err)

	c := res.Crate
	assert.Equal(t, "u1", c.OwnerID)
	assert.Nil(t, c.ExpiresAt)
	assert.Equal(t, model.CategoryJSON, c.Category)
	assert.Equal(t, model.StateReady, c.State)
	assert.Equal(t, int64(7), c.Size)
	assert.Equal(t, "report.json", c.Title)
	assert.False(t, c.Shared.Public)
}

func TestUploadPasswordImpliesGatedLink(t *testing.T) {
	s, _ := newTestService(t)

	res, err := s.Upload(context.Background(), Identity{UserID: "u1"}, UploadInput{
		FileName: "secret.txt",
		Data:     []byte("x"),
		Password: "hunter2",
	})
	require.NoError(t, err)

	// Password alone turns the sharing gate on
	assert.True(t, res.Crate.Shared.Public)
	assert.True(t, res.Crate.Shared.PasswordProtected())

	ok, err := s.Argon.VerifyPasswd("hunter2", res.Crate.Shared.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadTitleFallsBackToFileName(t *testing.T) {
	s, _ := newTestService(t)

	res, err := s.Upload(context.Background(), Identity{UserID: "u1"}, UploadInput{
		FileName: "data.csv",
		Data:     []byte("a,b"),
	})
	require.NoError(t, err)
	assert.Equal(t, "data.csv", res.Crate.Title)

	res, err = s.Upload(context.Background(), Identity{UserID: "u1"}, UploadInput{
		Data: []byte("bare paste"),
	})
	require.NoError(t, err)
	assert.Equal(t, "untitled", res.Crate.Title)
}

func TestUploadWithoutDataRequiresDeferrableContent(t *testing.T) {
	s, _ := newTestService(t)

	// Text content can't take the signed-URL path, it has to come inline
	_, err := s.Upload(context.Background(), Identity{UserID: "u1"}, UploadInput{
		FileName:    "notes.txt",
		ContentType: "text/plain",
	})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestConfirmUpload(t *testing.T) {
	s, store := newTestService(t)
	owner := Identity{UserID: "u1"}
	ctx := context.Background()

	res, err := s.Upload(ctx, owner, UploadInput{
		FileName:    "blob.bin",
		ContentType: "application/octet-stream",
	})
	require.NoError(t, err)
	require.Equal(t, model.StatePending, res.Crate.State)

	// Simulate the client PUT through the signed URL
	payload := []byte("raw bytes via signed url")
	require.NoError(t, store.Put(ctx, res.Crate.StoragePath, payload, "application/octet-stream"))

	c, err := s.ConfirmUpload(ctx, owner, res.Crate.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateReady, c.State)
	assert.Equal(t, int64(len(payload)), c.Size)

	var stored model.Crate
	require.NoError(t, s.DB.First(&stored, "id = ?", c.ID).Error)
	assert.Equal(t, model.StateReady, stored.State)
}

func TestDeriveCategory(t *testing.T) {
	tests := []struct {
		explicit    string
		contentType string
		fileName    string
		want        string
	}{
		{explicit: model.CategoryCode, contentType: "text/plain", want: model.CategoryCode},
		{contentType: "application/json", want: model.CategoryJSON},
		{contentType: "text/markdown", want: model.CategoryMarkdown},
		{contentType: "image/png", want: model.CategoryImage},
		{contentType: "text/plain; charset=utf-8", want: model.CategoryText},
		{fileName: "main.go", want: model.CategoryCode},
		{fileName: "README.md", want: model.CategoryMarkdown},
		{fileName: "data.json", want: model.CategoryJSON},
		{fileName: "photo.jpg", want: model.CategoryImage},
		{fileName: "notes.txt", want: model.CategoryText},
		{contentType: "application/octet-stream", fileName: "blob.dat", want: model.CategoryBinary},
		{want: model.CategoryBinary},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want,
			deriveCategory(tt.explicit, tt.contentType, tt.fileName),
			"explicit=%q contentType=%q fileName=%q", tt.explicit, tt.contentType, tt.fileName)
	}
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "mynotes", sanitizeFileName("my notes"))
	assert.Equal(t, "ab", sanitizeFileName(`a/\:*?"<>|%b`))
}

func TestSearchFieldCoversAllMetadata(t *testing.T) {
	c := &model.Crate{
		Title:       "Build Report",
		Description: "Nightly CI",
		Tags:        []string{"ci", "Nightly"},
		Metadata:    map[string]string{"Branch": "main"},
	}

	field := searchField(c)
	assert.Contains(t, field, "build report")
	assert.Contains(t, field, "nightly ci")
	assert.Contains(t, field, "ci")
	assert.Contains(t, field, "branch")
	assert.Contains(t, field, "main")
}

func TestUpdate(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}
	ctx := context.Background()

	c := mustUpload(t, s, owner, UploadInput{Title: "before"})

	newTitle := "after"
	newDesc := "now with a description"

	got, err := s.Update(ctx, owner, c.ID, UpdateInput{
		Title:       &newTitle,
		Description: &newDesc,
		Tags:        []string{"updated"},
	})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, "now with a description", got.Description)

	// The search field follows the edit
	var stored model.Crate
	require.NoError(t, s.DB.First(&stored, "id = ?", c.ID).Error)
	assert.Contains(t, stored.SearchField, "after")
	assert.Contains(t, stored.SearchField, "updated")
	assert.NotContains(t, stored.SearchField, "before")
}

func TestUpdateRejectsUnknownCategory(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}

	c := mustUpload(t, s, owner, UploadInput{Title: "typed"})

	bad := "video"
	_, err := s.Update(context.Background(), owner, c.ID, UpdateInput{Category: &bad})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestDeleteRemovesBytesAndRecord(t *testing.T) {
	s, store := newTestService(t)
	owner := Identity{UserID: "u1"}
	ctx := context.Background()

	c := mustUpload(t, s, owner, UploadInput{Title: "doomed"})

	require.NoError(t, s.Delete(ctx, owner, c.ID))

	_, ok := store.objects[c.StoragePath]
	assert.False(t, ok)

	_, err := s.GetMetadata(ctx, owner, c.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteHidesExistenceFromStrangers(t *testing.T) {
	s, _ := newTestService(t)
	owner := Identity{UserID: "u1"}
	ctx := context.Background()

	c := mustUpload(t, s, owner, UploadInput{Title: "mine"})

	assert.ErrorIs(t, s.Delete(ctx, Identity{UserID: "u2"}, c.ID), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, Anonymous(), c.ID), ErrNotFound)

	// Still there for the owner
	_, err := s.GetMetadata(ctx, owner, c.ID, "")
	assert.NoError(t, err)
}
