package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type mapSettings map[string]string

func (m mapSettings) GetSetting(key string) string { return m[key] }

func (m mapSettings) SetSetting(key, value string) error {
	m[key] = value
	return nil
}

func newTestAdmin(t *testing.T, secret string, settings SettingStore) *Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAdmin(string(hash), secret, settings)
	if err != nil {
		t.Fatalf("NewAdmin: %v", err)
	}
	return a
}

func TestNewAdminRejectsBadHash(t *testing.T) {
	if _, err := NewAdmin("plaintext", "s", nil); err == nil {
		t.Error("expected error for a non-bcrypt hash")
	}
}

func TestLoginAndValidate(t *testing.T) {
	a := newTestAdmin(t, "secret", nil)

	if _, err := a.Login("wrong", "1.2.3.4"); !errors.Is(err, ErrBadPassword) {
		t.Errorf("expected ErrBadPassword, got %v", err)
	}
	token, err := a.Login("hunter2", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.ValidateToken(token); err != nil {
		t.Errorf("fresh token rejected: %v", err)
	}

	other := newTestAdmin(t, "other-secret", nil)
	if err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token from another secret accepted: %v", err)
	}
}

func TestValidateRejectsExpiredAndForeignSubject(t *testing.T) {
	a := newTestAdmin(t, "secret", nil)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": jwtSubject,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	s, _ := expired.SignedString([]byte("secret"))
	if err := a.ValidateToken(s); err == nil {
		t.Error("expired token accepted")
	}

	player := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "player",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	s, _ = player.SignedString([]byte("secret"))
	if err := a.ValidateToken(s); err == nil {
		t.Error("token with a foreign subject accepted")
	}
}

func TestLoginRateLimit(t *testing.T) {
	a := newTestAdmin(t, "secret", nil)
	for i := 0; i < maxLoginAttempts; i++ {
		if _, err := a.Login("wrong", "5.6.7.8"); errors.Is(err, ErrRateLimited) {
			t.Fatalf("attempt %d rate limited too early", i+1)
		}
	}
	if _, err := a.Login("hunter2", "5.6.7.8"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if _, err := a.Login("hunter2", "9.9.9.9"); err != nil {
		t.Errorf("other addresses should not be limited: %v", err)
	}
}

func TestSecretPersistedInSettings(t *testing.T) {
	settings := mapSettings{}
	a := newTestAdmin(t, "", settings)
	if len(settings[secretKey]) != 64 {
		t.Fatalf("expected a hex secret to be stored, got %q", settings[secretKey])
	}

	token, err := a.Login("hunter2", "1.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	restarted := newTestAdmin(t, "", settings)
	if err := restarted.ValidateToken(token); err != nil {
		t.Errorf("token should survive a restart: %v", err)
	}
}

func TestRequire(t *testing.T) {
	a := newTestAdmin(t, "secret", nil)
	token, _ := a.Login("hunter2", "1.1.1.1")
	h := a.Require(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer nonsense", http.StatusUnauthorized},
		{"Bearer " + token, http.StatusTeapot},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin/sessions", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != c.want {
			t.Errorf("%q: expected %d, got %d", c.header, c.want, rec.Code)
		}
	}
}
