// Package model defines database models
package model

// Owner sentinel for crates uploaded without an authenticated session.
// Anonymous crates are link-accessible by anyone until claimed.
const AnonymousOwner = "anonymous"

// Crate categories. The category decides how content is returned to
// callers: inline text, inline base64 or a signed download link.
const (
	CategoryText     = "text"
	CategoryCode     = "code"
	CategoryJSON     = "json"
	CategoryMarkdown = "markdown"
	CategoryImage    = "image"
	CategoryBinary   = "binary"
)

// Crate upload states
const (
	StatePending = "pending" // record exists, client still PUTs bytes via a signed URL
	StateReady   = "ready"
)

// Shared holds the sharing settings of a crate. A password hash is only
// meaningful together with Public: private crates are owner-only no matter
// what, and the owner never gets challenged for a password.
type Shared struct {
	Public       bool   `json:"public"`
	PasswordHash string `json:"-"`
}

// PasswordProtected reports whether accessing the crate requires a password
// for non-owner callers.
func (s Shared) PasswordProtected() bool {
	return s.PasswordHash != ""
}

type Crate struct {
	// Also used as the S3 object key prefix, so it has to stay unique
	ID      string `gorm:"primaryKey" json:"id"`
	OwnerID string `gorm:"index" json:"-"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`

	// Location key in the blob store. Never handed to callers directly,
	// only through signed URLs
	StoragePath string `json:"-"`

	State  string `json:"state"`
	Shared Shared `gorm:"embedded;embeddedPrefix:shared_" json:"shared"`

	Tags     StringSlice `json:"tags"`
	Metadata StringMap   `json:"metadata,omitempty"`

	// Lower-cased concatenation of title, description, tags and metadata.
	// Recomputed by the ingestion layer whenever any of those change
	SearchField string `json:"-"`

	DownloadCount int64 `json:"download_count"`
	ViewCount     int64 `json:"view_count"`

	// All are unix second timestamps
	CreatedAt int64  `gorm:"not null" json:"created_at"`
	ExpiresAt *int64 `json:"expires_at,omitzero"`
}
