package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gsharma/indiainfo/internal/models"
)

// ResetTokenRepository stores password-reset tokens so they can later be
// redeemed. Tokens are single-use and expire.
type ResetTokenRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	Get(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type resetRepo struct {
	pool *pgxpool.Pool
}

// NewResetTokenRepository creates a new reset token repository.
func NewResetTokenRepository(pool *pgxpool.Pool) ResetTokenRepository {
	return &resetRepo{pool: pool}
}

func (r *resetRepo) Create(ctx context.Context, reset *models.PasswordReset) error {
	query := `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		reset.Token,
		reset.UserID,
		reset.ExpiresAt,
	).Scan(&reset.CreatedAt)
}

func (r *resetRepo) Get(ctx context.Context, token string) (*models.PasswordReset, error) {
	query := `
		SELECT token, user_id, expires_at, used_at, created_at
		FROM password_resets WHERE token = $1`

	var reset models.PasswordReset
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&reset.Token,
		&reset.UserID,
		&reset.ExpiresAt,
		&reset.UsedAt,
		&reset.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

// MarkUsed stamps a token as redeemed. Only an unused token can be marked.
func (r *resetRepo) MarkUsed(ctx context.Context, token string) error {
	query := `UPDATE password_resets SET used_at = $2 WHERE token = $1 AND used_at IS NULL`
	result, err := r.pool.Exec(ctx, query, token, time.Now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteExpired removes tokens past their expiry.
func (r *resetRepo) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM password_resets WHERE expires_at < now()`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Compile-time check to ensure resetRepo implements ResetTokenRepository.
var _ ResetTokenRepository = (*resetRepo)(nil)
