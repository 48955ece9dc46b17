package auth

import "time"

// Identity is a user account. It is reachable through a local name/password
// pair, an external provider subject, or both. IDs are assigned by the store
// and never reused; identities are never deleted by any handler here.
type Identity struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	Name                *string `gorm:"uniqueIndex" json:"name,omitempty"`
	PasswordHash        *string `json:"-"`
	ExternalSubjectHash *string `json:"-"`
}

// Session is the server-side state behind a browser's opaque session_id
// cookie. IdentityID is nil while the session is anonymous. OAuthState holds
// the single-use anti-forgery token between the login page and the provider
// callback; it is cleared the moment a callback consumes it. Flash is a
// one-shot message for the next rendered page.
type Session struct {
	SessionID  string    `gorm:"primaryKey" json:"-"`
	IdentityID *uint     `json:"-"`
	OAuthState string    `json:"-"`
	Flash      string    `json:"-"`
	ExpiresAt  time.Time `gorm:"not null" json:"-"`
}

func (Identity) TableName() string { return "app_auth.identities" }
func (Session) TableName() string  { return "app_auth.sessions" }
