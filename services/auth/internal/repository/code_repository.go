package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/eventdesk/pkg/database"
	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
)

type CodeRepository interface {
	// Replace drops every earlier code for email and stores codeHash.
	Replace(ctx context.Context, email, codeHash string, expiresAt time.Time) error
	// Consume checks code against the latest code issued to email. A match
	// that is still valid at now is marked used; a mismatch counts as an
	// attempt. It reports whether the code was accepted.
	Consume(ctx context.Context, email, code string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type codeRepository struct {
	pool *pgxpool.Pool
}

func NewCodeRepository(pool *pgxpool.Pool) CodeRepository {
	return &codeRepository{pool: pool}
}

func (r *codeRepository) Replace(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return database.WithTx(ctx, r.pool, func(tx database.DBTX) error {
		if _, err := tx.Exec(ctx, `DELETE FROM verification_codes WHERE lower(email) = lower($1)`, email); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO verification_codes (id, email, code_hash, expires_at)
			VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), email, codeHash, expiresAt,
		)
		return err
	})
}

func (r *codeRepository) Consume(ctx context.Context, email, code string, now time.Time) (bool, error) {
	const q = `
		SELECT id, email, code_hash, expires_at, used, attempts, created_at
		FROM verification_codes
		WHERE lower(email) = lower($1)
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var accepted bool
	err := database.WithTx(ctx, r.pool, func(tx database.DBTX) error {
		var c domain.VerificationCode
		err := tx.QueryRow(ctx, q, email).Scan(&c.ID, &c.Email, &c.CodeHash, &c.ExpiresAt, &c.Used, &c.Attempts, &c.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !c.IsValidAt(now) {
			return nil
		}

		if !c.Matches(code) {
			_, err := tx.Exec(ctx, `UPDATE verification_codes SET attempts = attempts + 1 WHERE id = $1`, c.ID)
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE verification_codes SET used = true WHERE id = $1`, c.ID); err != nil {
			return err
		}
		accepted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return accepted, nil
}

func (r *codeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `
		DELETE FROM verification_codes
		WHERE used OR expires_at < now() - interval '1 day'`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
