package crate

import (
	"context"
	"time"

	"mcph/crate-api/model"
)

// Per-item transfer outcomes
const (
	TransferErrNotFound     = "not_found"
	TransferErrAlreadyOwned = "already_owned"
)

type TransferResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TransferOwnership claims a batch of anonymously uploaded crates for an
// authenticated user. Each ID is handled on its own: missing crates and
// crates that already have a real owner are reported per item and never
// fail the batch, so a retried transfer is harmless. Claimed crates lose
// their anonymous 30 day expiry, the owned default is no expiry.
func (s *Service) TransferOwnership(ctx context.Context, id Identity, crateIDs []string) ([]TransferResult, []model.Crate, error) {
	if id.IsAnonymous() {
		return nil, nil, ErrNotPermitted
	}

	results := make([]TransferResult, 0, len(crateIDs))
	claimed := make([]model.Crate, 0, len(crateIDs))

	for _, crateID := range crateIDs {
		c, err := s.load(crateID)
		if err != nil {
			return nil, nil, err
		}

		// Expired crates are gone as far as callers can tell
		if c == nil || Expired(c, time.Now()) {
			results = append(results, TransferResult{ID: crateID, Error: TransferErrNotFound})
			continue
		}

		if c.OwnerID != model.AnonymousOwner {
			results = append(results, TransferResult{ID: crateID, Error: TransferErrAlreadyOwned})
			continue
		}

		// Guarded update: the claim only lands while the crate is still
		// anonymous, so two callers racing for the same crate can't both
		// win. The loser sees zero rows and reports already_owned
		res := s.DB.
			Model(&model.Crate{}).
			Where("id = ? AND owner_id = ?", crateID, model.AnonymousOwner).
			Updates(map[string]any{
				"owner_id":   id.UserID,
				"expires_at": nil,
			})
		if res.Error != nil {
			return nil, nil, res.Error
		}

		if res.RowsAffected == 0 {
			results = append(results, TransferResult{ID: crateID, Error: TransferErrAlreadyOwned})
			continue
		}

		c.OwnerID = id.UserID
		c.ExpiresAt = nil

		results = append(results, TransferResult{ID: crateID, Success: true})
		claimed = append(claimed, *c)
	}

	return results, claimed, nil
}
