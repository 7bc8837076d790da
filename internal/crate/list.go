package crate

import (
	"context"
	"errors"
	"strings"
	"time"

	"mcph/crate-api/model"

	"gorm.io/gorm"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// List returns the caller's own crates, newest first. startAfter is a
// crate ID cursor from a previous page. Expired crates are filtered out,
// they read as gone everywhere else too.
func (s *Service) List(ctx context.Context, id Identity, limit int, startAfter string) ([]model.Crate, error) {
	if id.IsAnonymous() {
		return nil, ErrNotPermitted
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	q := s.DB.
		Where("owner_id = ?", id.UserID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().Unix())

	if startAfter != "" {
		var cursor model.Crate

		err := s.DB.
			Select("created_at", "id").
			Where("id = ? AND owner_id = ?", startAfter, id.UserID).
			First(&cursor).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationErr("unknown startAfter cursor")
			}

			return nil, err
		}

		q = q.Where("created_at < ? OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var crates []model.Crate

	err := q.
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&crates).
		Error
	if err != nil {
		return nil, err
	}

	return crates, nil
}

// Search matches the caller's crates against the derived search field,
// plain lower-cased substring match.
func (s *Service) Search(ctx context.Context, id Identity, query string, limit int) ([]model.Crate, error) {
	if id.IsAnonymous() {
		return nil, ErrNotPermitted
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, validationErr("no search query provided")
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var results []model.Crate

	err := s.DB.
		Where("owner_id = ? AND search_field LIKE ?", id.UserID, "%"+query+"%").
		Where("expires_at IS NULL OR expires_at > ?", time.Now().Unix()).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).
		Error
	if err != nil {
		return nil, err
	}

	return results, nil
}
