package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// dummyHash is a valid bcrypt hash compared against when a login names an
// unknown identity, so the unknown-name path costs the same as a real verify.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// Authenticator resolves local credentials or an external-provider callback
// to a credential-store identity id. It holds no per-request state; the
// session manager owns what is bound where.
type Authenticator struct {
	Store    CredentialStore
	Provider ProviderExchanger
	ClientID string
}

func NewAuthenticator(store CredentialStore, provider ProviderExchanger, clientID string) *Authenticator {
	return &Authenticator{Store: store, Provider: provider, ClientID: clientID}
}

// normalizeName canonicalizes a submitted name so that lookup equality is
// well-defined across differently-composed Unicode input.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Register creates a local-auth identity and returns its assigned id.
func (a *Authenticator) Register(name, password string) (uint, error) {
	name = normalizeName(name)
	if name == "" || password == "" {
		return 0, ErrMissingField
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	hashStr := string(hash)
	identity := Identity{Name: &name, PasswordHash: &hashStr}
	if err := a.Store.Create(&identity); err != nil {
		return 0, err
	}
	return identity.ID, nil
}

// LoginLocal verifies a name/password pair. Unknown names and wrong passwords
// return the identical ErrInvalidCredentials, and the unknown-name path still
// performs a hash comparison so the two are not distinguishable by timing.
func (a *Authenticator) LoginLocal(name, password string) (uint, error) {
	name = normalizeName(name)
	if name == "" || password == "" {
		return 0, ErrMissingField
	}

	identity, err := a.Store.FindByName(name)
	if err == ErrIdentityNotFound {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}
	if identity.PasswordHash == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return 0, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*identity.PasswordHash), []byte(password)) != nil {
		return 0, ErrInvalidCredentials
	}
	return identity.ID, nil
}

// stateTokenBytes gives 256 bits of entropy, comfortably above the 128-bit
// floor required for the anti-forgery token.
const stateTokenBytes = 32

// BeginExternal issues a fresh anti-forgery state token from the
// operating system's CSPRNG. The caller stores it on the session and sends it
// to the provider for echo-back on the callback leg.
func (a *Authenticator) BeginExternal() (string, error) {
	buf := make([]byte, stateTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CompleteExternal finishes the external login handshake. storedState is the
// token the caller consumed from the session (already single-use by the time
// it gets here); echoedState and code arrive from the provider redirect.
// On first login the subject is provisioned as a new identity.
func (a *Authenticator) CompleteExternal(ctx context.Context, storedState, echoedState, code string) (uint, error) {
	if storedState == "" || echoedState == "" {
		return 0, ErrInvalidState
	}
	if subtle.ConstantTimeCompare([]byte(storedState), []byte(echoedState)) != 1 {
		return 0, ErrInvalidState
	}

	exchanged, err := a.Provider.Exchange(ctx, code)
	if err != nil {
		return 0, err
	}

	introspected, err := a.Provider.Introspect(ctx, exchanged.AccessToken)
	if err != nil {
		return 0, err
	}
	if introspected.Audience != a.ClientID {
		return 0, ErrClientMismatch
	}
	if introspected.Subject != exchanged.Subject {
		return 0, ErrSubjectMismatch
	}

	identity, err := a.Store.FindByExternalSubject(exchanged.Subject)
	if err == ErrIdentityNotFound {
		return a.provisionExternal(exchanged.Subject)
	}
	if err != nil {
		return 0, err
	}
	return identity.ID, nil
}

// provisionExternal creates an identity for a subject seen for the first
// time. Only the one-way hash of the subject is ever stored.
func (a *Authenticator) provisionExternal(subject string) (uint, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(subject), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash subject: %w", err)
	}
	hashStr := string(hash)
	identity := Identity{ExternalSubjectHash: &hashStr}
	if err := a.Store.Create(&identity); err != nil {
		return 0, err
	}
	return identity.ID, nil
}
