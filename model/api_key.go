package model

type ApiKey struct {
	// Public key ID, embedded as a prefix in the full key so lookups
	// don't have to hash every candidate
	ID     string `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"index" json:"-"`

	// Argon2id hash of the secret part. The plain secret is shown to the
	// user exactly once, at creation
	SecretHash string `json:"-"`

	Label      string `json:"label"`
	CreatedAt  int64  `gorm:"not null" json:"created_at"`
	LastUsedAt int64  `json:"last_used_at,omitempty"`
}
