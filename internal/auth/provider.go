package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

// DefaultExchangeTimeout bounds the provider round trips. No response within
// the deadline is an ErrExternalAuthFailure, never a hang.
const DefaultExchangeTimeout = 10 * time.Second

// ProviderConfig holds the external identity provider endpoints and this
// application's registered client credentials.
type ProviderConfig struct {
	TokenURL      string
	IntrospectURL string
	ClientID      string
	ClientSecret  string
	Timeout       time.Duration
}

// LoadProviderConfig reads the provider configuration from environment
// variables.
//
// Environment variables:
//   - OAUTH_TOKEN_URL: provider token-exchange endpoint
//   - OAUTH_INTROSPECT_URL: provider token-introspection endpoint
//   - OAUTH_CLIENT_ID: this application's registered client identifier
//   - OAUTH_CLIENT_SECRET: the matching client secret
//   - OAUTH_TIMEOUT_SECONDS: round-trip deadline (default: 10)
func LoadProviderConfig() ProviderConfig {
	timeout := DefaultExchangeTimeout
	if s := os.Getenv("OAUTH_TIMEOUT_SECONDS"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	return ProviderConfig{
		TokenURL:      os.Getenv("OAUTH_TOKEN_URL"),
		IntrospectURL: os.Getenv("OAUTH_INTROSPECT_URL"),
		ClientID:      os.Getenv("OAUTH_CLIENT_ID"),
		ClientSecret:  os.Getenv("OAUTH_CLIENT_SECRET"),
		Timeout:       timeout,
	}
}

// Enabled reports whether external login is configured at all. When it is
// not, the login page simply omits the external flow.
func (c ProviderConfig) Enabled() bool {
	return c.TokenURL != "" && c.IntrospectURL != "" && c.ClientID != ""
}

// Validate checks that an enabled configuration is complete.
func (c ProviderConfig) Validate() error {
	if c.TokenURL == "" {
		return fmt.Errorf("provider config: OAUTH_TOKEN_URL is required")
	}
	if c.IntrospectURL == "" {
		return fmt.Errorf("provider config: OAUTH_INTROSPECT_URL is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("provider config: OAUTH_CLIENT_ID is required")
	}
	return nil
}

// ExchangeResult is what a successful authorization-code exchange yields.
type ExchangeResult struct {
	Subject     string
	AccessToken string
}

// IntrospectResult is the provider's view of an access token.
type IntrospectResult struct {
	Subject  string
	Audience string
	Active   bool
}

// ProviderExchanger is the collaborator interface the authenticator talks to.
// The HTTP client below is the production implementation; tests substitute
// fakes.
type ProviderExchanger interface {
	Exchange(ctx context.Context, code string) (ExchangeResult, error)
	Introspect(ctx context.Context, accessToken string) (IntrospectResult, error)
}

// ProviderClient is an HTTP client for the external identity provider's
// token-exchange and token-introspection endpoints.
type ProviderClient struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewProviderClient(cfg ProviderConfig) *ProviderClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}
	return &ProviderClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type exchangeRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	Subject     string `json:"sub"`
}

// Exchange trades an authorization code for the provider-verified subject and
// an access token. Every transport or protocol failure wraps
// ErrExternalAuthFailure; the code itself is never logged.
func (c *ProviderClient) Exchange(ctx context.Context, code string) (ExchangeResult, error) {
	var resp exchangeResponse
	err := c.postJSON(ctx, "exchange", c.cfg.TokenURL, exchangeRequest{
		GrantType:    "authorization_code",
		Code:         code,
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
	}, &resp)
	if err != nil {
		return ExchangeResult{}, err
	}
	if resp.AccessToken == "" || resp.Subject == "" {
		logProviderError("exchange", fmt.Errorf("incomplete token response"))
		return ExchangeResult{}, fmt.Errorf("incomplete token response: %w", ErrExternalAuthFailure)
	}
	return ExchangeResult{Subject: resp.Subject, AccessToken: resp.AccessToken}, nil
}

type introspectRequest struct {
	Token        string `json:"token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type introspectResponse struct {
	Active   bool   `json:"active"`
	Subject  string `json:"sub"`
	Audience string `json:"aud"`
}

// Introspect asks the provider who an access token belongs to and which
// client it was minted for.
func (c *ProviderClient) Introspect(ctx context.Context, accessToken string) (IntrospectResult, error) {
	var resp introspectResponse
	err := c.postJSON(ctx, "introspect", c.cfg.IntrospectURL, introspectRequest{
		Token:        accessToken,
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
	}, &resp)
	if err != nil {
		return IntrospectResult{}, err
	}
	if !resp.Active {
		logProviderError("introspect", fmt.Errorf("token reported inactive"))
		return IntrospectResult{}, fmt.Errorf("token inactive: %w", ErrExternalAuthFailure)
	}
	return IntrospectResult{Subject: resp.Subject, Audience: resp.Audience, Active: resp.Active}, nil
}

func (c *ProviderClient) postJSON(ctx context.Context, op, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logProviderError(op, err)
		return fmt.Errorf("provider %s: %w", op, ErrExternalAuthFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logProviderError(op, fmt.Errorf("status %d", resp.StatusCode))
		return fmt.Errorf("provider %s status %d: %w", op, resp.StatusCode, ErrExternalAuthFailure)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logProviderError(op, err)
		return fmt.Errorf("decode %s response: %w", op, ErrExternalAuthFailure)
	}

	logProviderResponse(op, resp.StatusCode, time.Since(start))
	return nil
}

// Logging deliberately omits codes, tokens, and subjects.
func logProviderResponse(op string, statusCode int, duration time.Duration) {
	log.Printf("[provider] %s status=%d duration=%dms", op, statusCode, duration.Milliseconds())
}

func logProviderError(op string, err error) {
	log.Printf("[provider] %s error: %v", op, err)
}
