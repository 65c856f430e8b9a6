// Package postgres implements [store.UserStore] on PostgreSQL through pgx.
//
// Every mutation is a single UPDATE ... RETURNING on the user row. The
// refresh-token list is a jsonb array rebuilt inside the statement, so
// concurrent rotations of one token serialize on the row lock and the loser
// re-evaluates its WHERE clause against the winner's result.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/authcore/store"
)

const emailConstraint = "users_email_key"

// DB is the subset of pgxpool.Pool (or pgx.Conn / pgx.Tx) the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL credential store.
type Store struct {
	db DB
}

var _ store.UserStore = (*Store)(nil)

func New(db DB) *Store {
	return &Store{db: db}
}

const userColumns = `
	id::text, email, name, avatar, password_hash, role, is_active, is_email_verified,
	login_attempts, lock_until, refresh_tokens,
	COALESCE(email_verification_token_hash, ''), email_verification_expires_at,
	COALESCE(password_reset_token_hash, ''), password_reset_expires_at,
	COALESCE(google_id, ''), COALESCE(github_id, ''),
	last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Avatar, &u.PasswordHash, &u.Role, &u.IsActive, &u.IsEmailVerified,
		&u.LoginAttempts, &u.LockUntil, &u.RefreshTokens,
		&u.EmailVerificationTokenHash, &u.EmailVerificationExpiresAt,
		&u.PasswordResetTokenHash, &u.PasswordResetExpiresAt,
		&u.GoogleID, &u.GitHubID,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, user *store.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, email, name, avatar, password_hash, role, is_active, is_email_verified,
			google_id, github_id, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $11)
	`, user.ID, user.Email, user.Name, user.Avatar, user.PasswordHash, user.Role, user.IsActive,
		user.IsEmailVerified, user.GoogleID, user.GitHubID, createdAt(user))
	return mapErr(err)
}

func createdAt(u *store.User) time.Time {
	if u.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return u.CreatedAt
}

func (s *Store) FindByID(ctx context.Context, id string) (*store.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email))
}

func (s *Store) PushRefreshToken(ctx context.Context, userID string, record store.RefreshToken, keep int, now time.Time) error {
	if keep <= 0 {
		keep = store.MaxRefreshTokens
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET
			refresh_tokens = (
				SELECT COALESCE(jsonb_agg(t.elem ORDER BY t.ord), '[]'::jsonb)
				FROM jsonb_array_elements(users.refresh_tokens || jsonb_build_array($2::jsonb))
					WITH ORDINALITY AS t(elem, ord)
				WHERE t.ord > jsonb_array_length(users.refresh_tokens) + 1 - $3::int
			),
			last_login = $4,
			updated_at = now()
		WHERE id = $1::uuid
	`, userID, record, keep, now)
	return affected(tag, err)
}

func (s *Store) TakeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*store.User, error) {
	return scanUser(s.db.QueryRow(ctx, `
		UPDATE users SET
			refresh_tokens = (
				SELECT COALESCE(jsonb_agg(t.elem ORDER BY t.ord), '[]'::jsonb)
				FROM jsonb_array_elements(users.refresh_tokens) WITH ORDINALITY AS t(elem, ord)
				WHERE t.elem->>'tokenHash' <> $1
			),
			updated_at = now()
		WHERE refresh_tokens @> jsonb_build_array(jsonb_build_object('tokenHash', $1::text))
		  AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(users.refresh_tokens) e
			WHERE e->>'tokenHash' = $1 AND (e->>'expiresAt')::timestamptz > $2
		  )
		RETURNING `+userColumns, tokenHash, now))
}

func (s *Store) PullRefreshToken(ctx context.Context, tokenHash string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET
			refresh_tokens = (
				SELECT COALESCE(jsonb_agg(t.elem ORDER BY t.ord), '[]'::jsonb)
				FROM jsonb_array_elements(users.refresh_tokens) WITH ORDINALITY AS t(elem, ord)
				WHERE t.elem->>'tokenHash' <> $1
			),
			updated_at = now()
		WHERE refresh_tokens @> jsonb_build_array(jsonb_build_object('tokenHash', $1::text))
	`, tokenHash)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ClearRefreshTokens(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET refresh_tokens = '[]'::jsonb, updated_at = now() WHERE id = $1::uuid
	`, userID)
	return affected(tag, err)
}

func (s *Store) IncrementLoginAttempts(ctx context.Context, userID string, policy store.LockPolicy, now time.Time) (store.LockState, error) {
	var st store.LockState
	err := s.db.QueryRow(ctx, `
		WITH cur AS (
			SELECT id,
				CASE WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN 1
				     ELSE login_attempts + 1 END AS attempts,
				CASE WHEN lock_until IS NOT NULL AND lock_until > $2 THEN lock_until END AS active_lock
			FROM users WHERE id = $1::uuid FOR UPDATE
		)
		UPDATE users SET
			login_attempts = cur.attempts,
			lock_until = CASE
				WHEN cur.active_lock IS NOT NULL THEN cur.active_lock
				WHEN $3::int > 0 AND cur.attempts >= $3::int THEN $4::timestamptz
				ELSE NULL END,
			updated_at = now()
		FROM cur
		WHERE users.id = cur.id
		RETURNING users.login_attempts, users.lock_until
	`, userID, now, policy.Threshold, now.Add(policy.Duration)).Scan(&st.Attempts, &st.LockUntil)
	if err != nil {
		return store.LockState{}, mapErr(err)
	}
	return st, nil
}

func (s *Store) ResetLoginAttempts(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET login_attempts = 0, lock_until = NULL, updated_at = now() WHERE id = $1::uuid
	`, userID)
	return affected(tag, err)
}

func purposeColumns(p store.Purpose) (hashCol, expCol string, err error) {
	switch p {
	case store.PurposeEmailVerification:
		return "email_verification_token_hash", "email_verification_expires_at", nil
	case store.PurposePasswordReset:
		return "password_reset_token_hash", "password_reset_expires_at", nil
	default:
		return "", "", fmt.Errorf("postgres: unknown token purpose %d", p)
	}
}

func (s *Store) SetOneTimeToken(ctx context.Context, userID string, purpose store.Purpose, tokenHash string, expiresAt time.Time) error {
	hashCol, expCol, err := purposeColumns(purpose)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, fmt.Sprintf(`
		UPDATE users SET %[1]s = $2, %[2]s = $3, updated_at = now() WHERE id = $1::uuid
	`, hashCol, expCol), userID, tokenHash, expiresAt)
	return affected(tag, err)
}

func (s *Store) ConsumeOneTimeToken(ctx context.Context, purpose store.Purpose, tokenHash string, effect store.ConsumeEffect, now time.Time) (*store.User, error) {
	hashCol, expCol, err := purposeColumns(purpose)
	if err != nil {
		return nil, err
	}
	if tokenHash == "" {
		return nil, store.ErrNotFound
	}
	return scanUser(s.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE users SET
			%[1]s = NULL,
			%[2]s = NULL,
			is_email_verified = is_email_verified OR $3::boolean,
			password_hash = COALESCE(NULLIF($4::text, ''), password_hash),
			refresh_tokens = CASE WHEN $5::boolean THEN '[]'::jsonb ELSE refresh_tokens END,
			updated_at = now()
		WHERE %[1]s = $1 AND %[2]s > $2 AND (is_active OR NOT $6::boolean)
		RETURNING `+userColumns, hashCol, expCol),
		tokenHash, now, effect.MarkEmailVerified, effect.PasswordHash, effect.ClearRefreshTokens, effect.RequireActive))
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string, clearRefreshTokens bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET
			password_hash = $2,
			refresh_tokens = CASE WHEN $3::boolean THEN '[]'::jsonb ELSE refresh_tokens END,
			updated_at = now()
		WHERE id = $1::uuid
	`, userID, passwordHash, clearRefreshTokens)
	return affected(tag, err)
}

func (s *Store) LinkFederated(ctx context.Context, userID string, link store.FederatedLink, now time.Time) (*store.User, error) {
	return scanUser(s.db.QueryRow(ctx, `
		UPDATE users SET
			is_email_verified = true,
			avatar = CASE WHEN avatar = '' THEN $2::text ELSE avatar END,
			google_id = CASE WHEN $3::text = 'google' THEN $4::text ELSE google_id END,
			github_id = CASE WHEN $3::text = 'github' THEN $4::text ELSE github_id END,
			login_attempts = 0,
			lock_until = NULL,
			updated_at = $5
		WHERE id = $1::uuid
		RETURNING `+userColumns, userID, link.Avatar, link.Provider, link.Subject, now))
}

func (s *Store) SetActive(ctx context.Context, userID string, active bool) (*store.User, error) {
	return scanUser(s.db.QueryRow(ctx, `
		UPDATE users SET
			is_active = $2::boolean,
			refresh_tokens = CASE WHEN $2::boolean THEN refresh_tokens ELSE '[]'::jsonb END,
			updated_at = now()
		WHERE id = $1::uuid
		RETURNING `+userColumns, userID, active))
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == emailConstraint:
			return store.ErrDuplicateEmail
		case pgErr.Code == "22P02":
			// malformed uuid: nothing can match
			return store.ErrNotFound
		}
	}
	var connErr *pgconn.ConnectError
	if pgconn.Timeout(err) || errors.As(err, &connErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return fmt.Errorf("postgres: %w", err)
}
