package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"arena-server/internal/logger"
)

const (
	jwtExpiry        = 12 * time.Hour
	jwtSubject       = "admin"
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	secretKey        = "jwt_secret"
)

var (
	ErrBadPassword  = errors.New("invalid password")
	ErrRateLimited  = errors.New("too many login attempts, try again later")
	ErrInvalidToken = errors.New("invalid token")
)

// SettingStore keeps small key/value settings across restarts.
type SettingStore interface {
	GetSetting(key string) string
	SetSetting(key, value string) error
}

// Admin checks the admin password and issues bearer tokens for the admin
// HTTP routes.
type Admin struct {
	hash      []byte
	jwtSecret []byte

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAdmin creates an Admin for a bcrypt password hash. The signing secret is
// secret when set, otherwise loaded from (or created into) settings.
func NewAdmin(hash, secret string, settings SettingStore) (*Admin, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("admin hash: %w", err)
	}
	key := []byte(secret)
	if secret == "" {
		key = loadOrCreateSecret(settings)
	}
	return &Admin{
		hash:      []byte(hash),
		jwtSecret: key,
		rateMap:   make(map[string]*rateEntry),
	}, nil
}

// loadOrCreateSecret loads the JWT secret from the settings store, or
// generates and persists a new one if none exists.
func loadOrCreateSecret(settings SettingStore) []byte {
	if settings != nil {
		if h := settings.GetSetting(secretKey); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if settings != nil {
		if err := settings.SetSetting(secretKey, hex.EncodeToString(secret)); err != nil {
			logger.Log.WithError(err).Warn("could not persist JWT secret")
		}
	}
	return secret
}

// Login checks password and returns a signed token.
func (a *Admin) Login(password, ip string) (string, error) {
	if !a.checkRate(ip) {
		return "", ErrRateLimited
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", ErrBadPassword
	}
	return a.generateToken()
}

// ValidateToken accepts tokens signed by this admin that have not expired.
func (a *Admin) ValidateToken(tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != jwtSubject {
		return ErrInvalidToken
	}
	return nil
}

func (a *Admin) generateToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": jwtSubject,
		"exp": now.Add(jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Admin) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

// Require wraps h so it only runs for requests carrying a valid bearer token.
func (a *Admin) Require(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || a.ValidateToken(tok) != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}
