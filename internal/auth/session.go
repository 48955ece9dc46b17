package auth

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/wallowawildlife/ww-backend/internal/utils"
	"gorm.io/gorm"
)

// SessionTTL is how long a session row stays valid without re-authentication.
const SessionTTL = 6 * time.Hour

// SessionManager owns the session lifecycle: issuing the opaque cookie,
// resolving the bound identity on each request, and the single-use
// anti-forgery state used during the external login handshake.
type SessionManager struct {
	db    *gorm.DB
	store CredentialStore
}

func NewSessionManager(db *gorm.DB, store CredentialStore) *SessionManager {
	return &SessionManager{db: db, store: store}
}

// sessionCookie builds the session_id cookie. Deployed instances set PORT and
// sit behind TLS, so the cookie is Secure there; local dev over plain HTTP
// gets Secure=false so the browser will actually store it.
func sessionCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if os.Getenv("PORT") != "" {
		c.Secure = true
	}
	return c
}

// Current returns the session for this request, creating an anonymous one
// (and setting the cookie) if the browser presented no valid token. A bound
// identity that no longer resolves in the credential store silently demotes
// the session to anonymous; that path never errors to the caller.
func (m *SessionManager) Current(w http.ResponseWriter, r *http.Request) (*Session, error) {
	// The session middleware already resolved a session for this request;
	// reuse it rather than minting a second one off the stale cookie header.
	if sid, ok := utils.GetSessionIDFromContext(r.Context()); ok {
		var sess Session
		if err := m.db.First(&sess, "session_id = ?", sid).Error; err == nil {
			return &sess, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if cookie, err := r.Cookie("session_id"); err == nil && cookie.Value != "" {
		var sess Session
		err := m.db.First(&sess, "session_id = ?", cookie.Value).Error
		if err == nil && sess.ExpiresAt.After(time.Now()) {
			if sess.IdentityID != nil {
				if _, ferr := m.store.FindByID(*sess.IdentityID); errors.Is(ferr, ErrIdentityNotFound) {
					// Stale binding. Demote to anonymous, keep the session.
					sess.IdentityID = nil
					sess.OAuthState = ""
					if serr := m.db.Save(&sess).Error; serr != nil {
						return nil, serr
					}
				} else if ferr != nil {
					return nil, ferr
				}
			}
			return &sess, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	sess := Session{
		SessionID: uuid.NewString(),
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := m.db.Create(&sess).Error; err != nil {
		return nil, err
	}
	http.SetCookie(w, sessionCookie(sess.SessionID, sess.ExpiresAt))
	return &sess, nil
}

// ResolveIdentity implements the session middleware's resolver contract:
// ensure a session exists and report its id plus the bound identity, if any.
// Anonymous is not an error.
func (m *SessionManager) ResolveIdentity(w http.ResponseWriter, r *http.Request) (string, uint, bool, error) {
	sess, err := m.Current(w, r)
	if err != nil {
		return "", 0, false, err
	}
	if sess.IdentityID == nil {
		return sess.SessionID, 0, false, nil
	}
	return sess.SessionID, *sess.IdentityID, true, nil
}

// Bind wipes any prior session state and binds the identity, moving the
// session from Anonymous to Authenticated.
func (m *SessionManager) Bind(sess *Session, identityID uint) error {
	sess.IdentityID = &identityID
	sess.OAuthState = ""
	sess.Flash = ""
	sess.ExpiresAt = time.Now().Add(SessionTTL)
	return m.db.Save(sess).Error
}

// Clear logs the session out: identity unbound, handshake state and flash
// discarded. The session row itself survives for the anonymous browser.
func (m *SessionManager) Clear(sess *Session) error {
	sess.IdentityID = nil
	sess.OAuthState = ""
	sess.Flash = ""
	return m.db.Save(sess).Error
}

// SetState stores a freshly issued anti-forgery token on the session,
// replacing any token from an abandoned earlier attempt.
func (m *SessionManager) SetState(sess *Session, state string) error {
	sess.OAuthState = state
	return m.db.Save(sess).Error
}

// ConsumeState returns the pending anti-forgery token and clears it in the
// same step. The token is single use: a second consume returns "", which the
// authenticator rejects as a replay.
func (m *SessionManager) ConsumeState(sess *Session) (string, error) {
	state := sess.OAuthState
	sess.OAuthState = ""
	if err := m.db.Save(sess).Error; err != nil {
		return "", err
	}
	return state, nil
}

// SetFlash stores a one-shot message for the next rendered page.
func (m *SessionManager) SetFlash(sess *Session, msg string) error {
	sess.Flash = msg
	return m.db.Save(sess).Error
}

// PopFlash returns the pending flash message and clears it.
func (m *SessionManager) PopFlash(sess *Session) (string, error) {
	msg := sess.Flash
	if msg == "" {
		return "", nil
	}
	sess.Flash = ""
	if err := m.db.Save(sess).Error; err != nil {
		return "", err
	}
	return msg, nil
}
