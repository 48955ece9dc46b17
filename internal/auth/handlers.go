package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[auth] encode response: %v", err)
	}
}

// flashAndRedirect stores a one-shot message on the session and 303s the
// browser to target. Validation failures never produce raw error bodies.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, sess *Session, msg, target string) {
	if err := manager.SetFlash(sess, msg); err != nil {
		log.Printf("[auth] set flash: %v", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// RegisterFormHandler returns the data mapping the rendering layer needs for
// the registration form.
func RegisterFormHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := manager.Current(w, r)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	flash, _ := manager.PopFlash(sess)
	writeJSON(w, http.StatusOK, map[string]string{"flash": flash})
}

// RegisterHandler creates a local identity from the submitted form.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := manager.Current(w, r)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	name := r.FormValue("name")
	password := r.FormValue("password")

	_, err = authenticator.Register(name, password)
	switch {
	case errors.Is(err, ErrMissingField):
		flashAndRedirect(w, r, sess, "Name and password are required.", "/auth/register")
	case errors.Is(err, ErrDuplicateIdentity):
		flashAndRedirect(w, r, sess, "That name is already registered.", "/auth/register")
	case err != nil:
		log.Printf("[auth] register: %v", err)
		http.Error(w, "Registration failed", http.StatusInternalServerError)
	default:
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
	}
}

// LoginFormHandler returns the login form payload. When the external provider
// is configured it also issues the anti-forgery state token for this session;
// the client echoes it back on the callback leg.
func LoginFormHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := manager.Current(w, r)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	flash, _ := manager.PopFlash(sess)

	payload := map[string]interface{}{
		"flash":            flash,
		"external_enabled": providerCfg.Enabled(),
	}
	if providerCfg.Enabled() {
		state, err := authenticator.BeginExternal()
		if err != nil {
			log.Printf("[auth] issue state token: %v", err)
			http.Error(w, "Login unavailable", http.StatusInternalServerError)
			return
		}
		if err := manager.SetState(sess, state); err != nil {
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
		payload["state"] = state
		payload["client_id"] = providerCfg.ClientID
	}
	writeJSON(w, http.StatusOK, payload)
}

// LoginHandler handles the local credentials leg.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := manager.Current(w, r)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	name := r.FormValue("name")
	password := r.FormValue("password")

	identityID, err := authenticator.LoginLocal(name, password)
	switch {
	case errors.Is(err, ErrMissingField):
		flashAndRedirect(w, r, sess, "Name and password are required.", "/auth/login")
	case errors.Is(err, ErrInvalidCredentials):
		// One message for unknown name and wrong password alike.
		flashAndRedirect(w, r, sess, "Invalid credentials.", "/auth/login")
	case err != nil:
		log.Printf("[auth] login: %v", err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
	default:
		if err := manager.Bind(sess, identityID); err != nil {
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// CallbackHandler handles the external provider's redirect back to us. The
// session's anti-forgery token is consumed before anything else, so a
// replayed callback always fails regardless of how far the first one got.
// Error bodies stay generic; provider internals and tokens never appear.
func CallbackHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := manager.Current(w, r)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	stored, err := manager.ConsumeState(sess)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	echoed := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	identityID, err := authenticator.CompleteExternal(r.Context(), stored, echoed, code)
	switch {
	case errors.Is(err, ErrInvalidState):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_state"})
	case errors.Is(err, ErrClientMismatch):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "client_mismatch"})
	case errors.Is(err, ErrSubjectMismatch):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "subject_mismatch"})
	case errors.Is(err, ErrExternalAuthFailure):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "external_auth_failure"})
	case err != nil:
		log.Printf("[auth] callback: %v", err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
	default:
		if err := manager.Bind(sess, identityID); err != nil {
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler unbinds the identity and discards handshake state.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := manager.Current(w, r)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	if err := manager.Clear(sess); err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type MeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name,omitempty"`
}

// MeHandler reports the currently authenticated identity.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	identityID, err := RequireAuthenticated(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	identity, err := store.FindByID(identityID)
	if err != nil {
		http.Error(w, "Couldn't find identity", http.StatusNotFound)
		return
	}

	resp := MeResponse{ID: identity.ID}
	if identity.Name != nil {
		resp.Name = *identity.Name
	}
	writeJSON(w, http.StatusOK, resp)
}
