package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shortfall/api/internal/util"
)

// ErrNoDraft is returned when a user has no persisted draft yet.
var ErrNoDraft = errors.New("no draft")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash)
		VALUES ($1, $2, LOWER($3), $4)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, user User, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, user.ID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.display_name, u.email
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.DisplayName, &user.Email)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// LatestDraftByOwner resolves "the" draft: the most recently updated
// document owned by the user. The sort and limit live in the query, not in
// client-side filtering.
func (s *PostgresStore) LatestDraftByOwner(ctx context.Context, ownerID string) (Draft, error) {
	var d Draft
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, branch_name, department, entered_by, report_date, rows, created_at, updated_at
		FROM drafts
		WHERE owner_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, ownerID).Scan(&d.ID, &d.OwnerID, &d.BranchName, &d.Department, &d.EnteredBy, &d.Date, &d.Rows, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNoDraft
	}
	if err != nil {
		return Draft{}, fmt.Errorf("latest draft: %w", err)
	}
	return d, nil
}

// CreateDraft inserts a new draft and returns the assigned identifier.
func (s *PostgresStore) CreateDraft(ctx context.Context, d Draft) (string, error) {
	id := util.NewID("draft")
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, owner_id, branch_name, department, entered_by, report_date, rows)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, d.OwnerID, d.BranchName, d.Department, d.EnteredBy, d.Date, d.Rows)
	if err != nil {
		return "", fmt.Errorf("insert draft: %w", err)
	}
	return id, nil
}

// UpdateDraft replaces the fields of an existing draft and bumps updated_at.
func (s *PostgresStore) UpdateDraft(ctx context.Context, id string, d Draft) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE drafts
		SET branch_name=$2, department=$3, entered_by=$4, report_date=$5, rows=$6, updated_at=NOW()
		WHERE id=$1
	`, id, d.BranchName, d.Department, d.EnteredBy, d.Date, d.Rows)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update draft %s: %w", id, ErrNoDraft)
	}
	return nil
}

func (s *PostgresStore) GetDraft(ctx context.Context, id string) (Draft, error) {
	var d Draft
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, branch_name, department, entered_by, report_date, rows, created_at, updated_at
		FROM drafts
		WHERE id = $1
	`, id).Scan(&d.ID, &d.OwnerID, &d.BranchName, &d.Department, &d.EnteredBy, &d.Date, &d.Rows, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNoDraft
	}
	if err != nil {
		return Draft{}, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}
