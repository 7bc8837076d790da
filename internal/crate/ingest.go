package crate

import (
	"context"
	"path"
	"slices"
	"strings"
	"time"

	"mcph/crate-api/model"

	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

var validCategories = []string{
	model.CategoryText,
	model.CategoryCode,
	model.CategoryJSON,
	model.CategoryMarkdown,
	model.CategoryImage,
	model.CategoryBinary,
}

// Extension appended when a filename has to be derived from the title
var categoryExt = map[string]string{
	model.CategoryJSON:     ".json",
	model.CategoryMarkdown: ".md",
	model.CategoryImage:    ".png",
	model.CategoryCode:     ".txt",
	model.CategoryText:     ".txt",
	model.CategoryBinary:   ".bin",
}

// How long a client has to PUT its bytes through a signed upload URL
const pendingUploadTTL = time.Hour

type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte // nil switches to the signed-URL upload flow
	Title       string
	Description string
	Category    string
	Tags        []string
	Metadata    map[string]string
	Public      bool
	Password    string
	TTL         time.Duration // optional explicit expiry, authenticated owners only
}

type UploadResult struct {
	Crate *model.Crate `json:"crate"`

	// Set when the client has to upload the bytes itself. The record
	// stays pending until the upload is confirmed
	UploadURL string `json:"upload_url,omitempty"`
}

// Upload validates and normalizes an upload request, stores the bytes
// (or hands out a signed PUT URL for the client to do it) and creates
// the crate record.
func (s *Service) Upload(ctx context.Context, id Identity, in UploadInput) (*UploadResult, error) {
	if in.Public && in.Password != "" {
		return nil, ErrPublicAndPassword
	}

	if in.Category != "" && !slices.Contains(validCategories, in.Category) {
		return nil, ErrInvalidCategory
	}

	ownerID := id.UserID
	if id.IsAnonymous() {
		ownerID = model.AnonymousOwner
	}

	now := time.Now()

	expiresAt, err := expiryAt(ownerID, in.TTL, now)
	if err != nil {
		return nil, err
	}

	contentType := in.ContentType
	if contentType == "" && len(in.Data) > 0 {
		contentType = mimetype.Detect(in.Data).String()
	}

	category := deriveCategory(in.Category, contentType, in.FileName)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.FileName
	}
	if title == "" {
		title = "untitled"
	}

	fileName := in.FileName
	if fileName == "" {
		fileName = sanitizeFileName(title) + categoryExt[category]
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	crateID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	shared := model.Shared{Public: in.Public}
	if in.Password != "" {
		hash, err := s.Argon.GenerateFromPassword(in.Password)
		if err != nil {
			return nil, err
		}

		// A password protected crate is still link-accessible, the
		// password gate sits behind the public flag
		shared = model.Shared{Public: true, PasswordHash: hash}
	}

	c := &model.Crate{
		ID:          crateID,
		OwnerID:     ownerID,
		Title:       title,
		Description: in.Description,
		Category:    category,
		MimeType:    contentType,
		StoragePath: crateID + "/" + fileName,
		Shared:      shared,
		Tags:        in.Tags,
		Metadata:    in.Metadata,
		CreatedAt:   now.Unix(),
		ExpiresAt:   expiresAt,
	}
	c.SearchField = searchField(c)

	res := &UploadResult{Crate: c}

	if len(in.Data) == 0 {
		if !deferredUpload(category, contentType) {
			return nil, ErrNoContent
		}

		// Client PUTs the bytes directly, record stays pending with
		// size 0 until confirmed
		url, err := s.Store.SignedPutURL(ctx, c.StoragePath, contentType, pendingUploadTTL)
		if err != nil {
			return nil, err
		}

		c.State = model.StatePending
		res.UploadURL = url
	} else {
		if err := s.Store.Put(ctx, c.StoragePath, in.Data, contentType); err != nil {
			return nil, err
		}

		c.Size = int64(len(in.Data))
		c.State = model.StateReady
	}

	if err := s.DB.Create(c).Error; err != nil {
		// Don't leave orphaned bytes behind a failed record insert
		if c.State == model.StateReady {
			if derr := s.Store.Delete(context.Background(), c.StoragePath); derr != nil {
				zap.L().Error("Failed to cleanup after failed upload", zap.Error(derr))
			}
		}

		return nil, err
	}

	return res, nil
}

// ConfirmUpload finalizes a pending signed-URL upload: reads the stored
// byte length and flips the record to ready.
func (s *Service) ConfirmUpload(ctx context.Context, id Identity, crateID string) (*model.Crate, error) {
	c, err := s.load(crateID)
	if err != nil {
		return nil, err
	}

	if c == nil || Expired(c, time.Now()) {
		return nil, ErrNotFound
	}

	// The anonymous uploader confirms its own pending crates
	if !id.Owns(c) && c.OwnerID != model.AnonymousOwner {
		return nil, ErrNotFound
	}

	if c.State != model.StatePending {
		return c, nil
	}

	size, err := s.Store.Head(ctx, c.StoragePath)
	if err != nil {
		return nil, err
	}

	c.Size = size
	c.State = model.StateReady

	err = s.DB.
		Model(c).
		Updates(map[string]any{
			"size":  size,
			"state": model.StateReady,
		}).
		Error
	if err != nil {
		return nil, err
	}

	return c, nil
}

type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Tags        []string
	Metadata    map[string]string
}

// Update applies owner metadata edits and recomputes the search field.
// Last writer wins, concurrent edits are not reconciled.
func (s *Service) Update(ctx context.Context, id Identity, crateID string, in UpdateInput) (*model.Crate, error) {
	c, err := s.loadOwned(id, crateID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Category != nil {
		if !slices.Contains(validCategories, *in.Category) {
			return nil, ErrInvalidCategory
		}
		c.Category = *in.Category
	}
	if in.Tags != nil {
		c.Tags = in.Tags
	}
	if in.Metadata != nil {
		c.Metadata = in.Metadata
	}

	c.SearchField = searchField(c)

	err = s.DB.
		Model(c).
		Updates(map[string]any{
			"title":        c.Title,
			"description":  c.Description,
			"category":     c.Category,
			"tags":         c.Tags,
			"metadata":     c.Metadata,
			"search_field": c.SearchField,
		}).
		Error
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Delete removes an owned crate, bytes first, then the record.
func (s *Service) Delete(ctx context.Context, id Identity, crateID string) error {
	c, err := s.loadOwned(id, crateID)
	if err != nil {
		return err
	}

	if err := s.Store.Delete(ctx, c.StoragePath); err != nil {
		return err
	}

	return s.DB.Delete(&model.Crate{}, "id = ?", c.ID).Error
}

// deriveCategory picks a crate category: explicit caller input wins, then
// the MIME type, then the file extension, then the binary default.
func deriveCategory(explicit, contentType, fileName string) string {
	if explicit != "" {
		return explicit
	}

	mt := contentType
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.TrimSpace(strings.ToLower(mt))

	switch {
	case mt == "application/json", strings.HasSuffix(mt, "+json"):
		return model.CategoryJSON
	case mt == "text/markdown":
		return model.CategoryMarkdown
	case strings.HasPrefix(mt, "image/"):
		return model.CategoryImage
	case mt == "text/x-go", mt == "text/x-python", mt == "text/x-c",
		mt == "application/javascript", mt == "text/javascript":
		return model.CategoryCode
	case strings.HasPrefix(mt, "text/"):
		return model.CategoryText
	}

	switch strings.ToLower(path.Ext(fileName)) {
	case ".json":
		return model.CategoryJSON
	case ".md", ".markdown":
		return model.CategoryMarkdown
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return model.CategoryImage
	case ".go", ".py", ".js", ".ts", ".c", ".h", ".rs", ".java", ".sh":
		return model.CategoryCode
	case ".txt", ".log", ".csv":
		return model.CategoryText
	}

	return model.CategoryBinary
}

// deferredUpload reports whether an upload with no inline data may use
// the signed PUT flow. That's the large-payload escape hatch for binary
// and bulk text formats.
func deferredUpload(category, contentType string) bool {
	if category == model.CategoryBinary {
		return true
	}

	switch contentType {
	case "text/csv", "application/octet-stream":
		return true
	}

	return false
}

const unsafeFileNameChars = "/\\\x00?%*:|\"<>"

// sanitizeFileName strips path and shell hostile characters plus
// whitespace from a title so it can serve as a storage filename.
func sanitizeFileName(title string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeFileNameChars, r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, title)
}

// searchField derives the lower-cased haystack used by Search. Always
// recomputed here, never written directly by anything else.
func searchField(c *model.Crate) string {
	parts := []string{c.Title, c.Description}
	parts = append(parts, c.Tags...)

	for k, v := range c.Metadata {
		parts = append(parts, k, v)
	}

	return strings.ToLower(strings.Join(parts, " "))
}
