package crate

import (
	"context"
	"encoding/base64"
	"time"

	"mcph/crate-api/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultLinkTTL = 24 * time.Hour
	MinLinkTTL     = time.Second
	MaxLinkTTL     = 24 * time.Hour
)

// Content is a resolved crate representation. Text-like categories come
// back as plain UTF-8 in Data, images as base64.
type Content struct {
	Crate    *model.Crate
	Data     string
	Base64   bool
	MimeType string
}

// GetMetadata returns the crate record after a policy check. Counters are
// untouched, only content fetches count as usage.
func (s *Service) GetMetadata(ctx context.Context, id Identity, crateID, password string) (*model.Crate, error) {
	c, err := s.load(crateID)
	if err != nil {
		return nil, err
	}

	if err := s.Evaluate(c, id, password).Err(); err != nil {
		return nil, err
	}

	return c, nil
}

// GetContent fetches the stored bytes and returns them inline. Images are
// base64 encoded, text-like categories are returned as UTF-8 strings and
// binary crates are refused outright. Bumps the view counter on success.
func (s *Service) GetContent(ctx context.Context, id Identity, crateID, password string) (*Content, error) {
	c, err := s.load(crateID)
	if err != nil {
		return nil, err
	}

	if err := s.Evaluate(c, id, password).Err(); err != nil {
		return nil, err
	}

	// Bytes aren't there yet for pending presigned uploads
	if c.State != model.StateReady {
		return nil, ErrNotFound
	}

	if c.Category == model.CategoryBinary {
		return nil, ErrBinaryInline
	}

	data, err := s.Store.Get(ctx, c.StoragePath)
	if err != nil {
		return nil, err
	}

	out := &Content{
		Crate:    c,
		MimeType: c.MimeType,
	}

	if c.Category == model.CategoryImage {
		out.Data = base64.StdEncoding.EncodeToString(data)
		out.Base64 = true
	} else {
		out.Data = string(data)
	}

	s.bumpCounter(c.ID, "view_count")

	return out, nil
}

// GetDownloadLink returns a signed URL for the raw bytes. The requested
// TTL is clamped into [1s, 24h], zero means the 24h default. Bumps the
// download counter at issuance: the download route redirects straight to
// the signed URL, so issuance is the closest observable point to the
// actual transfer.
func (s *Service) GetDownloadLink(ctx context.Context, id Identity, crateID, password string, ttl time.Duration) (string, time.Time, error) {
	c, err := s.load(crateID)
	if err != nil {
		return "", time.Time{}, err
	}

	if err := s.Evaluate(c, id, password).Err(); err != nil {
		return "", time.Time{}, err
	}

	if c.State != model.StateReady {
		return "", time.Time{}, ErrNotFound
	}

	ttl = ClampLinkTTL(ttl)

	url, err := s.Store.SignedGetURL(ctx, c.StoragePath, ttl)
	if err != nil {
		return "", time.Time{}, err
	}

	s.bumpCounter(c.ID, "download_count")

	return url, time.Now().Add(ttl), nil
}

// ClampLinkTTL normalizes a requested signed-URL validity.
func ClampLinkTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return DefaultLinkTTL
	}
	if ttl < MinLinkTTL {
		return MinLinkTTL
	}
	if ttl > MaxLinkTTL {
		return MaxLinkTTL
	}

	return ttl
}

// bumpCounter atomically increments a usage counter. Failures are logged
// and dropped, a broken counter must never fail the content response.
func (s *Service) bumpCounter(crateID, column string) {
	err := s.DB.
		Model(model.Crate{}).
		Where("id = ?", crateID).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).
		Error
	if err != nil {
		zap.L().Warn("Failed to bump usage counter",
			zap.String("crate", crateID),
			zap.String("counter", column),
			zap.Error(err),
		)
	}
}
