// Package authgw wraps the external session-based identity provider
// behind a small client, mapping provider errors to a closed local set.
// The provider is an opaque collaborator; nothing else in the app talks
// to it directly.
package authgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the provider's account record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Session is the opaque credential bundle issued by the provider, valid
// until expiry or explicit sign-out.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Client talks to a GoTrue-style identity endpoint.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewClient creates a provider client for the given base URL and API key.
func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// providerSession is the provider's token response shape.
type providerSession struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    int64         `json:"expires_at"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *providerUser `json:"user"`
}

type providerUser struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

type providerError struct {
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	Description string `json:"error_description"`
}

func (e providerError) text() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	case e.Description != "":
		return e.Description
	}
	return "unknown provider error"
}

// SignUp registers a new account and returns the created user.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (User, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}
	var resp struct {
		ID       string         `json:"id"`
		Email    string         `json:"email"`
		Metadata map[string]any `json:"user_metadata"`
		User     *providerUser  `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &resp); err != nil {
		return User{}, err
	}

	// Some provider versions nest the user, some return it flat.
	pu := resp.User
	if pu == nil {
		if resp.ID == "" {
			return User{}, &Error{Code: CodeSignupFailed, Message: "provider returned no user"}
		}
		pu = &providerUser{ID: resp.ID, Email: resp.Email, Metadata: resp.Metadata}
	}
	return userFromProvider(pu), nil
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp providerSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return Session{}, err
	}
	return sessionFromProvider(resp), nil
}

// SignOut revokes the session behind the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// ResetPassword asks the provider to send a recovery email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/recover", "", map[string]string{"email": email}, nil)
}

// RestoreSession refreshes a persisted session. Any failure yields
// (nil, nil): ambiguous provider errors default to logged-out rather
// than surfacing.
func (c *Client) RestoreSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, nil
	}
	body := map[string]string{"refresh_token": refreshToken}
	var resp providerSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &resp); err != nil {
		return nil, nil
	}
	s := sessionFromProvider(resp)
	return &s, nil
}

func userFromProvider(pu *providerUser) User {
	u := User{ID: pu.ID, Email: pu.Email}
	if name, ok := pu.Metadata["name"].(string); ok {
		u.Name = name
	}
	return u
}

func sessionFromProvider(ps providerSession) Session {
	s := Session{
		AccessToken:  ps.AccessToken,
		RefreshToken: ps.RefreshToken,
	}
	switch {
	case ps.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(ps.ExpiresAt, 0)
	case ps.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(ps.ExpiresIn) * time.Second)
	default:
		s.ExpiresAt = tokenExpiry(ps.AccessToken)
	}
	if ps.User != nil {
		s.User = userFromProvider(ps.User)
	}
	return s
}

// tokenExpiry recovers the expiry from the access token's exp claim when
// the provider response omits it. The signature is not verified here; the
// provider is the authority, this is metadata extraction only.
func tokenExpiry(accessToken string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// do runs one provider request. Non-2xx responses are decoded and mapped
// into the closed error set.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("authgw: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("authgw: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Code: CodeUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var pe providerError
		_ = json.NewDecoder(resp.Body).Decode(&pe)
		return mapError(pe.text())
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Code: CodeUnknown, Message: "decode provider response: " + err.Error()}
		}
	}
	return nil
}
