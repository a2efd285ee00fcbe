// Package taara is the client for the Taara hotspot subscriber API.
package taara

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bundlewatch/bundlewatch/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the upstream client.
var Module = fx.Provide(NewClient)

// Session is the immutable result of one login. It is threaded
// explicitly through FetchBundle and Logout so session lifetime is
// unambiguous when ticks overlap.
type Session struct {
	AccessToken  string
	SubscriberID string
}

// AuthError means the upstream rejected or never answered the login.
type AuthError struct {
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("taara login failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("taara login failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError means the bundle request failed after a successful login.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("taara bundle fetch failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("taara bundle fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to the subscriber endpoints. It holds no session state;
// no retries either - retry policy belongs to the scheduler.
type Client struct {
	cfg        config.TaaraConfig
	log        *zap.Logger
	httpClient *http.Client
}

// NewClient builds a client with the configured bounded timeout.
func NewClient(cfg config.Config, log *zap.Logger) *Client {
	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg.Taara,
		log: log.Named("taara"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type loginRequest struct {
	PhoneNumber struct {
		CountryCode    string `json:"countryCode"`
		NationalNumber string `json:"nationalNumber"`
	} `json:"phoneNumber"`
	Passcode  string `json:"passcode"`
	PartnerID string `json:"partnerId"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login authenticates and returns a session. The subscriber id comes
// from the token's JWT claims; if the token cannot be decoded the
// session is still usable, just without a subscriber id.
func (c *Client) Login(ctx context.Context) (Session, error) {
	var payload loginRequest
	payload.PhoneNumber.CountryCode = c.cfg.PhoneCountryCode
	payload.PhoneNumber.NationalNumber = c.cfg.PhoneNumber
	payload.Passcode = c.cfg.Passcode
	payload.PartnerID = c.cfg.PartnerID

	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, &AuthError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/users/subscriber/login", bytes.NewReader(body))
	if err != nil {
		return Session{}, &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Session{}, &AuthError{StatusCode: resp.StatusCode}
	}

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Session{}, &AuthError{Err: fmt.Errorf("decoding login response: %w", err)}
	}
	if decoded.AccessToken == "" {
		return Session{}, &AuthError{Err: fmt.Errorf("login response missing access token")}
	}

	session := Session{AccessToken: decoded.AccessToken}
	subscriberID, err := subjectFromToken(decoded.AccessToken)
	if err != nil {
		c.log.Warn("could not decode subscriber id from token", zap.Error(err))
	} else {
		session.SubscriberID = subscriberID
	}

	return session, nil
}

// FetchBundle retrieves the raw bundle payload for the configured
// hotspot.
func (c *Client) FetchBundle(ctx context.Context, session Session) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/customers/get-customer-bundle?hotspotId=%s", c.cfg.BaseURL, c.cfg.HotspotID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("reading bundle response: %w", err)}
	}
	return json.RawMessage(body), nil
}

// Logout ends the upstream session. Best effort: callers log failures
// and move on. A session without a subscriber id has nothing to log
// out.
func (c *Client) Logout(ctx context.Context, session Session) error {
	if session.SubscriberID == "" {
		return nil
	}

	url := fmt.Sprintf("%s/users/subscriber/logout/%s", c.cfg.BaseURL, session.SubscriberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logout status %d", resp.StatusCode)
	}
	return nil
}

// subjectFromToken reads the sub claim from the middle segment of a JWT
// without verifying the signature. Padding is restored before decoding
// because upstream strips it.
func subjectFromToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("token has %d segments, want 3", len(parts))
	}

	payload := parts[1]
	if padding := len(payload) % 4; padding != 0 {
		payload += strings.Repeat("=", 4-padding)
	}

	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decoding token claims: %w", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return "", fmt.Errorf("parsing token claims: %w", err)
	}
	return claims.Sub, nil
}
