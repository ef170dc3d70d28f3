package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"yellowair/db"
	"yellowair/models"
)

const userColumns = `id, email, name, password_hash, membership_level, role,
		password_reset_token, password_reset_expires,
		email_verification_token, email_verified, created_at`

func userDest(u *models.User) []any {
	return []any{
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.MembershipLevel, &u.Role,
		&u.PasswordResetToken, &u.PasswordResetExpires,
		&u.EmailVerificationToken, &u.EmailVerified, &u.CreatedAt,
	}
}

// ListUsers returns every user newest first, without secret fields.
func (r *Repository) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, email, name, membership_level, created_at
		FROM users
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.MembershipLevel, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

// GetUserByEmail matches email case-insensitively, so rows stored with
// mixed case are still found.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "lower(email) = lower($1)", email)
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, "id = $1", id)
}

func (r *Repository) getUser(ctx context.Context, cond, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + cond

	var u models.User
	if err := r.q.QueryRowContext(ctx, query, value).Scan(userDest(&u)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}

// CreateUser inserts u, filling in ID and CreatedAt.
func (r *Repository) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.MembershipLevel == "" {
		u.MembershipLevel = models.MembershipSilver
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = r.now()

	_, err := r.q.ExecContext(ctx, `INSERT INTO users
		(id, email, name, password_hash, membership_level, role, email_verification_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.MembershipLevel, u.Role, u.EmailVerificationToken, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *Repository) SetEmailVerificationToken(ctx context.Context, userID, token string) error {
	return r.updateUser(ctx, `UPDATE users SET email_verification_token = $1 WHERE id = $2`, token, userID)
}

func (r *Repository) SetPasswordResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	return r.updateUser(ctx, `UPDATE users SET password_reset_token = $1, password_reset_expires = $2 WHERE id = $3`,
		token, expires, userID)
}

func (r *Repository) updateUser(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyEmail consumes an email verification token. The lookup and the
// update run in one transaction, so a token can be used only once.
func (r *Repository) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	return db.WithTx(ctx, r.conn, func(ctx context.Context, tx db.DBTX) error {
		var userID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM users
			WHERE email_verification_token = $1
			FOR UPDATE`, token).Scan(&userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInvalidToken
			}
			return fmt.Errorf("db error: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users
			SET email_verified = $1, email_verification_token = NULL
			WHERE id = $2`, r.now(), userID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

// VerifyResetToken reports whether token belongs to a user and has not
// expired. A token expiring exactly now is already invalid.
func (r *Repository) VerifyResetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	_, err := r.lookupResetToken(ctx, r.q, token, "")
	return err
}

// ResetPassword replaces the password of the user owning a valid reset token
// and clears the token.
func (r *Repository) ResetPassword(ctx context.Context, token, passwordHash string) error {
	if token == "" {
		return ErrInvalidToken
	}

	return db.WithTx(ctx, r.conn, func(ctx context.Context, tx db.DBTX) error {
		userID, err := r.lookupResetToken(ctx, tx, token, " FOR UPDATE")
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users
			SET password_hash = $1, password_reset_token = NULL, password_reset_expires = NULL
			WHERE id = $2`, passwordHash, userID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (r *Repository) lookupResetToken(ctx context.Context, q db.DBTX, token, lock string) (string, error) {
	var (
		userID  string
		expires *time.Time
	)
	err := q.QueryRowContext(ctx, `SELECT id, password_reset_expires FROM users
		WHERE password_reset_token = $1
		LIMIT 1`+lock, token).Scan(&userID, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	if expires == nil || !expires.After(r.now()) {
		return "", ErrInvalidToken
	}
	return userID, nil
}
