// Package crate implements the access control, sharing and lifecycle rules
// for crates. The web routes and the MCP tools are both thin adapters over
// this package, so every policy decision lives here exactly once.
package crate

import (
	"context"
	"errors"
	"time"

	"mcph/crate-api/model"
	"mcph/crate-api/pkg/security"

	"gorm.io/gorm"
)

// Storage is the blob store capability the service runs against. In
// production this is the S3 client, tests swap in an in-memory fake.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	SignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// Identity is a caller identity already resolved by the transport layer
// (JWT cookie for the browser, API key for MCP). The zero value is an
// anonymous caller.
type Identity struct {
	UserID string
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity {
	return Identity{}
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// Owns reports whether i is the owner of c. Anonymous callers own nothing,
// not even anonymous-owned crates.
func (i Identity) Owns(c *model.Crate) bool {
	return !i.IsAnonymous() && i.UserID == c.OwnerID
}

type Service struct {
	DB    *gorm.DB
	Store Storage
	Argon *security.ArgonHash
}

func NewService(db *gorm.DB, store Storage, argon *security.ArgonHash) *Service {
	return &Service{
		DB:    db,
		Store: store,
		Argon: argon,
	}
}

// load fetches a crate by ID. A missing record comes back as a nil crate
// with no error so that callers can funnel it through the policy evaluator
// together with the expired case.
func (s *Service) load(id string) (*model.Crate, error) {
	var c model.Crate

	err := s.DB.
		Where("id = ?", id).
		First(&c).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &c, nil
}

// loadOwned fetches a crate only if id owns it. Used by every mutating
// operation: non-owners get the same answer as a missing crate, so a
// denied edit never confirms that a crate exists.
func (s *Service) loadOwned(id Identity, crateID string) (*model.Crate, error) {
	if id.IsAnonymous() {
		return nil, ErrNotFound
	}

	c, err := s.load(crateID)
	if err != nil {
		return nil, err
	}

	if c == nil || Expired(c, time.Now()) || !id.Owns(c) {
		return nil, ErrNotFound
	}

	return c, nil
}
