// Package auth is the identity provider seen by the game: accounts with
// bcrypt passwords and JWT session tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUserExists         = errors.New("auth: username already taken")
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrNotFound           = errors.New("auth: account not found")
	ErrInvalidUsername    = errors.New("auth: username must be 3-16 letters, digits or _")
	ErrWeakPassword       = errors.New("auth: password must be at least 4 characters")
)

// Account is the identity record. Only DisplayName and Color ever reach
// the live simulation.
type Account struct {
	Username    string
	DisplayName string
	Color       string
	Photo       string
	CreatedAt   time.Time
	LastLogin   time.Time
}

// Provider registers and authenticates accounts. Implementations must be
// safe for concurrent use: calls run off the game loop.
type Provider interface {
	Register(ctx context.Context, username, password, displayName string) (*Account, error)
	Login(ctx context.Context, username, password string) (*Account, error)
	Lookup(ctx context.Context, username string) (*Account, error)
}

// Result is what the client receives after register/login.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Name    string `json:"name,omitempty"`
	Color   string `json:"color,omitempty"`
}

var fold = cases.Fold()

// NormalizeName folds case and unicode forms so "Ann", "ANN" and "ann"
// are the same account or admin name.
func NormalizeName(s string) string {
	return fold.String(norm.NFKC.String(strings.TrimSpace(s)))
}

// ValidateUsername checks the allowed username shape.
func ValidateUsername(u string) error {
	u = strings.TrimSpace(u)
	n := 0
	for _, r := range u {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return ErrInvalidUsername
		}
		n++
	}
	if n < 3 || n > 16 {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(p string) error {
	if len(p) < 4 {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword returns a bcrypt hash of the password using DefaultCost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash with a plaintext candidate.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DefaultColor derives a stable display color from the username.
func DefaultColor(username string) string {
	palette := []string{"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4", "#46f0f0", "#f032e6"}
	h := 0
	for _, r := range NormalizeName(username) {
		h = h*31 + int(r)
	}
	if h < 0 {
		h = -h
	}
	return palette[h%len(palette)]
}
