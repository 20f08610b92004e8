// Package auth issues and checks the session tokens that let a dropped
// player reclaim their seat, plus the hashed passcodes guarding private
// lobbies. There are no accounts; identity is the id and display name
// minted at login.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type Auth struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// New loads the signing key from dataDir/jwt.key, generating one on first
// boot so tokens survive restarts.
func New(dataDir string, ttl time.Duration) (*Auth, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("auth: data dir: %w", err)
	}
	keyPath := filepath.Join(dataDir, "jwt.key")
	key, err := os.ReadFile(keyPath)
	if err != nil || len(key) < 32 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("auth: key generation: %w", err)
		}
		if err := os.WriteFile(keyPath, key, 0o600); err != nil {
			return nil, fmt.Errorf("auth: persist key: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{key: key, issuer: "wormfall", ttl: ttl}, nil
}

// Mint signs a session token binding the player id and display name.
func (a *Auth) Mint(playerID int64, name string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(playerID, 10),
		"name": name,
		"iss":  a.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(a.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

var errInvalidToken = errors.New("auth: invalid token")

// Parse validates a session token and returns the identity it carries.
func (a *Auth) Parse(token string) (int64, string, error) {
	if token == "" {
		return 0, "", errInvalidToken
	}
	t, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return a.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(a.issuer))
	if err != nil || !t.Valid {
		return 0, "", errInvalidToken
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, "", errInvalidToken
	}
	name, _ := claims["name"].(string)
	return id, name, nil
}

// HashPasscode hashes a lobby passcode for storage. An empty passcode
// means a public lobby and hashes to nil.
func HashPasscode(pass string) ([]byte, error) {
	if pass == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
}

// CheckPasscode reports whether pass opens a lobby with the given hash.
// A nil hash is a public lobby and admits anything.
func CheckPasscode(hash []byte, pass string) bool {
	if len(hash) == 0 {
		return true
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
}
