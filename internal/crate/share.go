package crate

import (
	"context"

	"mcph/crate-api/model"
)

// Share opens a crate up for non-owner access. With an empty password
// the crate becomes plainly public, with a password it becomes
// link-accessible behind a password gate. Asking for both an open public
// crate and a password in one request is contradictory and rejected.
func (s *Service) Share(ctx context.Context, id Identity, crateID string, public bool, password string) (*model.Crate, error) {
	if public && password != "" {
		return nil, ErrPublicAndPassword
	}

	c, err := s.loadOwned(id, crateID)
	if err != nil {
		return nil, err
	}

	shared := model.Shared{Public: true}

	if password != "" {
		hash, err := s.Argon.GenerateFromPassword(password)
		if err != nil {
			return nil, err
		}

		shared.PasswordHash = hash
	}

	err = s.DB.
		Model(c).
		Updates(map[string]any{
			"shared_public":        shared.Public,
			"shared_password_hash": shared.PasswordHash,
		}).
		Error
	if err != nil {
		return nil, err
	}

	c.Shared = shared
	return c, nil
}

// Unshare makes a crate private again and drops any password gate.
func (s *Service) Unshare(ctx context.Context, id Identity, crateID string) (*model.Crate, error) {
	c, err := s.loadOwned(id, crateID)
	if err != nil {
		return nil, err
	}

	err = s.DB.
		Model(c).
		Updates(map[string]any{
			"shared_public":        false,
			"shared_password_hash": "",
		}).
		Error
	if err != nil {
		return nil, err
	}

	c.Shared = model.Shared{}
	return c, nil
}
