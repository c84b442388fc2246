package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hvz-game/server/internal/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AccountRepo is the PostgreSQL identity provider.
type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

var _ auth.Provider = (*AccountRepo)(nil)

type accountRow struct {
	auth.Account
	hash string
}

func (r *AccountRepo) load(ctx context.Context, username string) (*accountRow, error) {
	row := &accountRow{}
	var last *time.Time
	err := r.db.Pool.QueryRow(ctx,
		`SELECT username, password_hash, display_name, color, photo, created_at, last_login
		 FROM accounts WHERE username_key = $1`, auth.NormalizeName(username),
	).Scan(
		&row.Username, &row.hash, &row.DisplayName, &row.Color, &row.Photo, &row.CreatedAt, &last,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if last != nil {
		row.LastLogin = *last
	}
	return row, nil
}

func (r *AccountRepo) Register(ctx context.Context, username, password, displayName string) (*auth.Account, error) {
	if err := auth.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}
	acc := &auth.Account{
		Username:    username,
		DisplayName: displayName,
		Color:       auth.DefaultColor(username),
		CreatedAt:   time.Now(),
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO accounts (username, username_key, password_hash, display_name, color, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		acc.Username, auth.NormalizeName(username), hash, acc.DisplayName, acc.Color, acc.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, auth.ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepo) Login(ctx context.Context, username, password string) (*auth.Account, error) {
	row, err := r.load(ctx, username)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(row.hash, password) {
		return nil, auth.ErrInvalidCredentials
	}
	row.LastLogin = time.Now()
	if _, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET last_login = $1 WHERE username_key = $2`,
		row.LastLogin, auth.NormalizeName(username),
	); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	return &row.Account, nil
}

func (r *AccountRepo) Lookup(ctx context.Context, username string) (*auth.Account, error) {
	row, err := r.load(ctx, username)
	if err != nil {
		return nil, err
	}
	return &row.Account, nil
}

// isUniqueViolation reports a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
