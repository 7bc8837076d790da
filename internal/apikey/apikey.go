// Package apikey issues and verifies the API keys MCP callers
// authenticate with
package apikey

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mcph/crate-api/model"
	"mcph/crate-api/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

// Keys look like mcph_<id>_<secret>. The ID travels in plain text so a
// lookup doesn't have to hash-compare every stored key, only the secret
// part is hashed.
const (
	keyPrefix    = "mcph"
	keyIDLen     = 10
	keySecretLen = 32

	// No underscores or dashes, the underscore is the key separator
	keyCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var ErrInvalidKey = errors.New("invalid API key")

type Service struct {
	DB    *gorm.DB
	Argon *security.ArgonHash
}

func NewService(db *gorm.DB, argon *security.ArgonHash) *Service {
	return &Service{DB: db, Argon: argon}
}

// Create mints a new key for a user. The returned plain key is shown
// exactly once and never stored.
func (s *Service) Create(userID, label string) (*model.ApiKey, string, error) {
	id, err := gonanoid.Generate(keyCharset, keyIDLen)
	if err != nil {
		return nil, "", err
	}

	secret, err := gonanoid.Generate(keyCharset, keySecretLen)
	if err != nil {
		return nil, "", err
	}

	hash, err := s.Argon.GenerateFromPassword(secret)
	if err != nil {
		return nil, "", err
	}

	key := &model.ApiKey{
		ID:         id,
		UserID:     userID,
		SecretHash: hash,
		Label:      label,
		CreatedAt:  time.Now().Unix(),
	}

	if err := s.DB.Create(key).Error; err != nil {
		return nil, "", err
	}

	return key, fmt.Sprintf("%s_%s_%s", keyPrefix, id, secret), nil
}

// List returns a user's keys, secrets excluded by the model's json tags.
func (s *Service) List(userID string) ([]model.ApiKey, error) {
	var keys []model.ApiKey

	err := s.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&keys).
		Error
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// Delete revokes a key. Deleting someone else's key reads as not found.
func (s *Service) Delete(userID, keyID string) error {
	res := s.DB.
		Where("id = ? AND user_id = ?", keyID, userID).
		Delete(model.ApiKey{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Verify resolves a plain key to the owning user ID.
func (s *Service) Verify(plain string) (string, error) {
	parts := strings.Split(plain, "_")
	if len(parts) != 3 || parts[0] != keyPrefix {
		return "", ErrInvalidKey
	}

	var key model.ApiKey

	err := s.DB.
		Where("id = ?", parts[1]).
		First(&key).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidKey
		}

		return "", err
	}

	ok, err := s.Argon.VerifyPasswd(parts[2], key.SecretHash)
	if err != nil || !ok {
		return "", ErrInvalidKey
	}

	// Best effort, a failed timestamp update shouldn't fail auth
	s.DB.
		Model(key).
		UpdateColumn("last_used_at", time.Now().Unix())

	return key.UserID, nil
}
