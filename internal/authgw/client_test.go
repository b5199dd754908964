package authgw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		msg  string
		want Code
	}{
		{"Invalid login credentials", CodeInvalidCredentials},
		{"Email not confirmed", CodeEmailNotConfirmed},
		{"User already registered", CodeUserAlreadyExists},
		{"Password should be at least 8 characters", CodeWeakPassword},
		{"Unable to validate email address: invalid format", CodeInvalidEmail},
		{"something exploded", CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := mapError(tt.msg)
			if got.Code != tt.want {
				t.Errorf("code = %q, want %q", got.Code, tt.want)
			}
			if got.Message != tt.msg {
				t.Errorf("message = %q, original text must be preserved", got.Message)
			}
		})
	}
}

func TestSignInSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") == "" {
			t.Error("apikey header missing")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at",
			"refresh_token": "rt",
			"expires_at":    time.Now().Add(time.Hour).Unix(),
			"user": map[string]any{
				"id":            "u1",
				"email":         "yuki@example.com",
				"user_metadata": map[string]any{"name": "Yuki"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	s, err := c.SignIn(context.Background(), "yuki@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s.AccessToken != "at" || s.RefreshToken != "rt" {
		t.Errorf("session = %+v", s)
	}
	if s.User.ID != "u1" || s.User.Name != "Yuki" {
		t.Errorf("user = %+v", s.User)
	}
	if s.ExpiresAt.Before(time.Now()) {
		t.Error("expiry not parsed")
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	_, err := c.SignIn(context.Background(), "yuki@example.com", "wrong")
	authErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %T(%v), want *Error", err, err)
	}
	if authErr.Code != CodeInvalidCredentials {
		t.Errorf("code = %q", authErr.Code)
	}
	if authErr.UserMessage() != "メールアドレスまたはパスワードが間違っています" {
		t.Errorf("user message = %q", authErr.UserMessage())
	}
}

func TestSignUpDuplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"msg": "User already registered"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	_, err := c.SignUp(context.Background(), "yuki@example.com", "password123", "Yuki")
	authErr, ok := err.(*Error)
	if !ok || authErr.Code != CodeUserAlreadyExists {
		t.Errorf("err = %v, want user_already_exists", err)
	}
}

func TestRestoreSessionFailureIsLoggedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"msg": "refresh token expired"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	s, err := c.RestoreSession(context.Background(), "stale")
	if err != nil {
		t.Errorf("restore failure must not propagate, got %v", err)
	}
	if s != nil {
		t.Errorf("session = %+v, want nil", s)
	}
}

func TestRestoreSessionEmptyToken(t *testing.T) {
	c := NewClient("http://unused.invalid", "anon")
	s, err := c.RestoreSession(context.Background(), "")
	if err != nil || s != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", s, err)
	}
}

func TestSessionExpiryFromJWTClaims(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Neither expires_at nor expires_in: the client falls back to the claim.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  signed,
			"refresh_token": "rt",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	s, err := c.SignIn(context.Background(), "a@b.c", "p")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !s.ExpiresAt.Equal(exp) {
		t.Errorf("expires_at = %v, want %v", s.ExpiresAt, exp)
	}
}
