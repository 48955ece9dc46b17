package auth_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/wallowawildlife/ww-backend/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore is an in-memory CredentialStore with the same observable
// behavior as the database-backed one: sequential ids starting at 1, name
// uniqueness, verify-based external subject lookup.
type fakeStore struct {
	identities []*auth.Identity
	nextID     uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) FindByID(id uint) (*auth.Identity, error) {
	for _, identity := range s.identities {
		if identity.ID == id {
			return identity, nil
		}
	}
	return nil, auth.ErrIdentityNotFound
}

func (s *fakeStore) FindByName(name string) (*auth.Identity, error) {
	for _, identity := range s.identities {
		if identity.Name != nil && *identity.Name == name {
			return identity, nil
		}
	}
	return nil, auth.ErrIdentityNotFound
}

func (s *fakeStore) FindByExternalSubject(subject string) (*auth.Identity, error) {
	for _, identity := range s.identities {
		if identity.ExternalSubjectHash == nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(*identity.ExternalSubjectHash), []byte(subject)) == nil {
			return identity, nil
		}
	}
	return nil, auth.ErrIdentityNotFound
}

func (s *fakeStore) Create(identity *auth.Identity) error {
	if identity.Name != nil {
		if _, err := s.FindByName(*identity.Name); err == nil {
			return auth.ErrDuplicateIdentity
		}
	}
	identity.ID = s.nextID
	s.nextID++
	s.identities = append(s.identities, identity)
	return nil
}

// fakeProvider is a canned ProviderExchanger.
type fakeProvider struct {
	exchange      auth.ExchangeResult
	exchangeErr   error
	introspect    auth.IntrospectResult
	introspectErr error
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (auth.ExchangeResult, error) {
	if p.exchangeErr != nil {
		return auth.ExchangeResult{}, p.exchangeErr
	}
	return p.exchange, nil
}

func (p *fakeProvider) Introspect(ctx context.Context, accessToken string) (auth.IntrospectResult, error) {
	if p.introspectErr != nil {
		return auth.IntrospectResult{}, p.introspectErr
	}
	return p.introspect, nil
}

const testClientID = "ww-backend-client"

func newAuthenticator(store auth.CredentialStore, provider auth.ProviderExchanger) *auth.Authenticator {
	return auth.NewAuthenticator(store, provider, testClientID)
}

func TestRegisterMissingFields(t *testing.T) {
	store := newFakeStore()
	a := newAuthenticator(store, &fakeProvider{})

	cases := []struct {
		name, password string
	}{
		{"", "secret123"},
		{"alice", ""},
		{"", ""},
		{"   ", "secret123"}, // whitespace-only name normalizes to empty
	}
	for _, c := range cases {
		if _, err := a.Register(c.name, c.password); !errors.Is(err, auth.ErrMissingField) {
			t.Errorf("Register(%q, %q): expected ErrMissingField, got %v", c.name, c.password, err)
		}
	}
	if len(store.identities) != 0 {
		t.Errorf("expected no identities created, got %d", len(store.identities))
	}
}

// TestRegisterDuplicateName verifies that a second registration with an
// already-used name fails and creates no new identity row.
func TestRegisterDuplicateName(t *testing.T) {
	store := newFakeStore()
	a := newAuthenticator(store, &fakeProvider{})

	if _, err := a.Register("alice", "secret123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := a.Register("alice", "other"); !errors.Is(err, auth.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
	if len(store.identities) != 1 {
		t.Errorf("expected 1 identity after duplicate attempt, got %d", len(store.identities))
	}
}

// TestRegisterLoginScenario runs the reference scenario end to end:
// register alice → id 1, duplicate fails, wrong password fails, correct
// password resolves back to id 1.
func TestRegisterLoginScenario(t *testing.T) {
	store := newFakeStore()
	a := newAuthenticator(store, &fakeProvider{})

	id, err := a.Register("alice", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}

	if _, err := a.Register("alice", "other"); !errors.Is(err, auth.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}

	if _, err := a.LoginLocal("alice", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	gotID, err := a.LoginLocal("alice", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if gotID != id {
		t.Errorf("expected login to resolve id %d, got %d", id, gotID)
	}

	// Round trip: the registered name finds the same identity id.
	identity, err := store.FindByName("alice")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if identity.ID != id {
		t.Errorf("expected FindByName id %d, got %d", id, identity.ID)
	}
}

// TestLoginFailureIsUniform verifies that an unknown name and a wrong
// password yield the exact same error value, leaving no signal for account
// enumeration.
func TestLoginFailureIsUniform(t *testing.T) {
	store := newFakeStore()
	a := newAuthenticator(store, &fakeProvider{})

	if _, err := a.Register("alice", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, unknownErr := a.LoginLocal("nobody", "secret123")
	_, wrongErr := a.LoginLocal("alice", "wrong")

	if !errors.Is(unknownErr, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown name: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("error messages differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestBeginExternalTokenShape(t *testing.T) {
	a := newAuthenticator(newFakeStore(), &fakeProvider{})

	first, err := a.BeginExternal()
	if err != nil {
		t.Fatalf("BeginExternal: %v", err)
	}
	second, err := a.BeginExternal()
	if err != nil {
		t.Fatalf("BeginExternal: %v", err)
	}

	if first == second {
		t.Error("two issued state tokens are identical")
	}

	raw, err := base64.RawURLEncoding.DecodeString(first)
	if err != nil {
		t.Fatalf("state token is not base64url: %v", err)
	}
	if len(raw) < 16 {
		t.Errorf("state token carries %d bytes of randomness, want >= 16", len(raw))
	}
}

func validProvider(subject string) *fakeProvider {
	return &fakeProvider{
		exchange:   auth.ExchangeResult{Subject: subject, AccessToken: "token-abc"},
		introspect: auth.IntrospectResult{Subject: subject, Audience: testClientID, Active: true},
	}
}

func TestCompleteExternalStateMismatch(t *testing.T) {
	a := newAuthenticator(newFakeStore(), validProvider("subject-1"))

	if _, err := a.CompleteExternal(context.Background(), "issued-token", "echoed-other", "code"); !errors.Is(err, auth.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// Once the session's token is consumed (empty stored state), even the
	// correct echo fails. Replay protection, not a bug.
	if _, err := a.CompleteExternal(context.Background(), "", "issued-token", "code"); !errors.Is(err, auth.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after consumption, got %v", err)
	}
}

func TestCompleteExternalClientMismatch(t *testing.T) {
	p := validProvider("subject-1")
	p.introspect.Audience = "some-other-client"
	a := newAuthenticator(newFakeStore(), p)

	if _, err := a.CompleteExternal(context.Background(), "tok", "tok", "code"); !errors.Is(err, auth.ErrClientMismatch) {
		t.Fatalf("expected ErrClientMismatch, got %v", err)
	}
}

func TestCompleteExternalSubjectMismatch(t *testing.T) {
	p := validProvider("subject-1")
	p.introspect.Subject = "subject-2"
	a := newAuthenticator(newFakeStore(), p)

	if _, err := a.CompleteExternal(context.Background(), "tok", "tok", "code"); !errors.Is(err, auth.ErrSubjectMismatch) {
		t.Fatalf("expected ErrSubjectMismatch, got %v", err)
	}
}

func TestCompleteExternalProviderFailure(t *testing.T) {
	p := &fakeProvider{exchangeErr: auth.ErrExternalAuthFailure}
	a := newAuthenticator(newFakeStore(), p)

	if _, err := a.CompleteExternal(context.Background(), "tok", "tok", "code"); !errors.Is(err, auth.ErrExternalAuthFailure) {
		t.Fatalf("expected ErrExternalAuthFailure, got %v", err)
	}
}

// TestCompleteExternalProvisionsFirstLogin verifies first-login provisioning
// and that a repeat login resolves to the same identity id rather than
// creating another row.
func TestCompleteExternalProvisionsFirstLogin(t *testing.T) {
	store := newFakeStore()
	a := newAuthenticator(store, validProvider("subject-1"))

	firstID, err := a.CompleteExternal(context.Background(), "tok", "tok", "code")
	if err != nil {
		t.Fatalf("first external login: %v", err)
	}
	if len(store.identities) != 1 {
		t.Fatalf("expected 1 provisioned identity, got %d", len(store.identities))
	}
	provisioned := store.identities[0]
	if provisioned.ExternalSubjectHash == nil {
		t.Fatal("provisioned identity has no external subject hash")
	}
	if *provisioned.ExternalSubjectHash == "subject-1" {
		t.Error("external subject stored in plaintext")
	}

	secondID, err := a.CompleteExternal(context.Background(), "tok2", "tok2", "code")
	if err != nil {
		t.Fatalf("second external login: %v", err)
	}
	if secondID != firstID {
		t.Errorf("repeat login resolved id %d, want %d", secondID, firstID)
	}
	if len(store.identities) != 1 {
		t.Errorf("repeat login created a new identity, total %d", len(store.identities))
	}
}
