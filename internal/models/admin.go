package models

import (
	"strings"
	"time"
)

// Admin statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Admin represents an administrator account stored in the database.
type Admin struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"` // Server-generated opaque id.

	FirstName string `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(50);not null" json:"last_name"`

	Email    string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`      // Unique login email.
	Username string `gorm:"type:varchar(30);not null;uniqueIndex" json:"username"`    // Unique handle.
	Slug     string `gorm:"type:varchar(30);not null;uniqueIndex" json:"slug"`        // Derived from username.
	Password string `gorm:"type:varchar(191);not null;default:''" json:"-"`           // Hashed, never serialized.
	Avatar   string `gorm:"type:text" json:"avatar,omitempty"`                        // Optional asset URL.
	Status   string `gorm:"type:varchar(16);not null;default:'active'" json:"status"` // active or inactive.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// AdminSearchableAttributes lists the fields free-text search matches against,
// in order.
var AdminSearchableAttributes = []string{"first_name", "last_name", "email", "username", "slug"}

// GetID returns the record id.
func (a *Admin) GetID() string { return a.ID }

// SetID assigns the record id.
func (a *Admin) SetID(id string) { a.ID = id }

// CredentialHash returns the stored password hash.
func (a *Admin) CredentialHash() string { return a.Password }

// SetCredentialHash replaces the stored password hash. Called with the empty
// string to scrub the credential from records handed back to callers.
func (a *Admin) SetCredentialHash(hash string) { a.Password = hash }

// RefreshSlug re-derives the slug from the current username.
func (a *Admin) RefreshSlug() { a.Slug = DeriveSlug(a.Username) }

// ApplyDefaults fills optional fields that creation may leave empty.
func (a *Admin) ApplyDefaults() {
	if a.Status == "" {
		a.Status = StatusActive
	}
}

// DeriveSlug builds a URL-safe slug from a username. Usernames are unique and
// alphanumeric, so the slug inherits uniqueness.
func DeriveSlug(username string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(username)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteRune('-')
		}
	}
	return b.String()
}
