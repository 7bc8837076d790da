package crate

import (
	"context"
	"time"

	"mcph/crate-api/model"
)

const (
	// Anonymous uploads always get this TTL at creation
	AnonymousTTL = 30 * 24 * time.Hour

	// Explicit expiry requests must fall inside this inclusive range.
	// Matches the UI's "min 1 hour / max 29 days" validation
	MinExpiry = time.Hour
	MaxExpiry = 29 * 24 * time.Hour
)

// Expired reports whether c is past its expiry at the given instant.
// Crates without an expiry never expire. There is no background sweeper,
// this check at read time is the only enforcement.
func Expired(c *model.Crate, now time.Time) bool {
	return c.ExpiresAt != nil && now.Unix() > *c.ExpiresAt
}

// ValidateExpiry checks an explicit expiry duration against the allowed
// range. Out-of-range requests are rejected, not clamped.
func ValidateExpiry(d time.Duration) error {
	if d < MinExpiry {
		return ErrExpiryTooShort
	}
	if d > MaxExpiry {
		return ErrExpiryTooLong
	}

	return nil
}

// expiryAt computes the creation-time expiry for a new crate. Anonymous
// owners always get the 30 day TTL, authenticated owners get none unless
// they asked for one.
func expiryAt(ownerID string, requested time.Duration, now time.Time) (*int64, error) {
	if ownerID == model.AnonymousOwner {
		if requested != 0 {
			return nil, ErrAnonymousExpiry
		}

		at := now.Add(AnonymousTTL).Unix()
		return &at, nil
	}

	if requested == 0 {
		return nil, nil
	}

	if err := ValidateExpiry(requested); err != nil {
		return nil, err
	}

	at := now.Add(requested).Unix()
	return &at, nil
}

// SetExpiry resets the expiry of an owned crate to now + d. Only the
// owner may do this, and only within the allowed range.
func (s *Service) SetExpiry(ctx context.Context, id Identity, crateID string, d time.Duration) (*model.Crate, error) {
	if err := ValidateExpiry(d); err != nil {
		return nil, err
	}

	c, err := s.loadOwned(id, crateID)
	if err != nil {
		return nil, err
	}

	at := time.Now().Add(d).Unix()
	c.ExpiresAt = &at

	err = s.DB.
		Model(c).
		Update("expires_at", at).
		Error
	if err != nil {
		return nil, err
	}

	return c, nil
}

// ClearExpiry removes the expiry of an owned crate entirely.
func (s *Service) ClearExpiry(ctx context.Context, id Identity, crateID string) (*model.Crate, error) {
	c, err := s.loadOwned(id, crateID)
	if err != nil {
		return nil, err
	}

	c.ExpiresAt = nil

	err = s.DB.
		Model(c).
		Update("expires_at", nil).
		Error
	if err != nil {
		return nil, err
	}

	return c, nil
}
