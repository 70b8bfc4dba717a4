package milesight

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const loginPath = "/api/internal/login"

// session is the authentication state of a Client. It is only written by
// [Client.Login].
type session struct {
	sync.Mutex

	token  string
	bearer string

	claims *jwt.RegisteredClaims
}

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Username string `json:"username"`
	// Password is the output of [Cipher.Encrypt], never the plain text.
	Password string `json:"password"`
}

// LoginResponse is the part of the login answer the client uses.
type LoginResponse struct {
	JWT string `json:"jwt"`
}

// Login encrypts the password, exchanges the credentials for a token and
// stores it on the client. The token is attached to every later request.
//
// A rejected login wraps [ErrAuthentication] and leaves the previous session
// untouched. An answer without a token clears the session; later calls are
// then rejected by the gateway.
func (c *Client) Login(ctx context.Context) (string, error) {
	logger := c.logger.With().Str("operation", "login").Str("username", c.creds.Username).Logger()

	password, err := EncryptPassword(c.creds.Password, c.creds.Key, c.creds.IV)
	if err != nil {
		logger.Error().Err(err).Msg("cannot encrypt password")
		return "", fmt.Errorf("encrypt password: %w", err)
	}

	req, err := c.newRequest(ctx,
		http.MethodPost,
		loginPath,
		nil,
		LoginRequest{Username: c.creds.Username, Password: password},
	)
	if err != nil {
		return "", err
	}

	resp, err := c.send(req)
	if err != nil {
		logger.Error().Err(err).Msg("login request failed")
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("login: %w: %w", ErrAuthentication, newStatusError(resp))
		logger.Error().Err(err).Int("status", resp.StatusCode).Msg("login rejected")
		return "", err
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		err = fmt.Errorf("login: decode response: %w", err)
		logger.Error().Err(err).Msg("cannot decode login response")
		return "", err
	}

	c.auth.update(loginResp.JWT)
	if loginResp.JWT == "" {
		logger.Warn().Msg("login response did not contain a token")
	} else {
		logger.Debug().Msg("successfully retrieved token")
	}

	return loginResp.JWT, nil
}

// IsAuthenticated reports whether a token from a successful login is held.
func (c *Client) IsAuthenticated() bool {
	return c.auth.current() != ""
}

// Token returns the current session token, or "" before login.
func (c *Client) Token() string {
	return c.auth.current()
}

// TokenExpiry returns the expiry claimed by the session token, if it is a
// JWT carrying one. The client never refreshes tokens; callers that hold a
// client for long can use this to decide when to call [Client.Login] again.
func (c *Client) TokenExpiry() (time.Time, bool) {
	c.auth.Lock()
	defer c.auth.Unlock()

	if c.auth.claims == nil || c.auth.claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return c.auth.claims.ExpiresAt.Time, true
}

// update replaces the session with token and caches the header value.
func (s *session) update(token string) {
	s.Lock()
	defer s.Unlock()

	s.token = token
	s.bearer = ""
	s.claims = nil
	if token == "" {
		return
	}

	s.bearer = "Bearer " + token
	s.claims = parseClaims(token)
}

func (s *session) current() string {
	s.Lock()
	defer s.Unlock()

	return s.token
}

// header returns the Authorization header value, or "" without a token.
func (s *session) header() string {
	s.Lock()
	defer s.Unlock()

	return s.bearer
}

// parseClaims reads the registered claims of a JWT without verifying it.
// The gateway signs tokens with a key the client never sees, so the claims
// are informational only. Non-JWT tokens yield nil.
func parseClaims(token string) *jwt.RegisteredClaims {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	return claims
}
