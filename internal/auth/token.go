package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the session token claims.
type Claims struct {
	Username    string `json:"username"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer uses secret when set, otherwise a random per-process key
// (tokens then die with the process).
func NewTokenIssuer(secret string, ttl time.Duration, issuer string) (*TokenIssuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: key, ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for the account.
func (t *TokenIssuer) Issue(a *Account) (string, error) {
	now := t.now()
	claims := &Claims{
		Username:    a.Username,
		DisplayName: a.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   a.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return s, nil
}

// Verify parses and validates a token.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("verify jwt: %w", err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// Authenticate runs register or login against p and turns the outcome
// into a client Result with a fresh token.
func Authenticate(ctx context.Context, p Provider, tokens *TokenIssuer, register bool, username, password, displayName string) Result {
	var (
		acc *Account
		err error
	)
	if register {
		acc, err = p.Register(ctx, username, password, displayName)
	} else {
		acc, err = p.Login(ctx, username, password)
	}
	if err != nil {
		return Result{Success: false, Message: Message(err)}
	}
	tok, err := tokens.Issue(acc)
	if err != nil {
		return Result{Success: false, Message: "internal error"}
	}
	msg := "logged in"
	if register {
		msg = "account created"
	}
	return Result{Success: true, Message: msg, Token: tok, Name: acc.DisplayName, Color: acc.Color}
}

// Message maps provider errors to client text. Anything unexpected is
// reported generically.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrUserExists):
		return "username already taken"
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNotFound):
		return "invalid username or password"
	case errors.Is(err, ErrInvalidUsername):
		return "username must be 3-16 letters, digits or _"
	case errors.Is(err, ErrWeakPassword):
		return "password must be at least 4 characters"
	default:
		return "internal error"
	}
}
