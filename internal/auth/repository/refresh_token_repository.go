package repository

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/jakobkordez/wmm-reborn/internal/auth/domain"
	"github.com/jakobkordez/wmm-reborn/internal/common/db"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

type RefreshTokenRepository interface {
	// CreateWithLimit inserts token and prunes the owner's oldest rows beyond
	// limit in one transaction. A non-positive limit disables pruning.
	CreateWithLimit(ctx context.Context, token authdomain.RefreshToken, limit int) error
	FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	// DeleteByTokenHashAndUserID reports whether a row was removed.
	DeleteByTokenHashAndUserID(ctx context.Context, hash string, userID int64) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PgRefreshTokenRepository struct {
	db    db.Querier
	txMgr db.TxManager
}

func NewPgRefreshTokenRepository(q db.Querier, txMgr db.TxManager) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{
		db:    q,
		txMgr: txMgr,
	}
}

func (r *PgRefreshTokenRepository) CreateWithLimit(ctx context.Context, token authdomain.RefreshToken, limit int) error {
	return r.txMgr.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		start := time.Now()
		_, err := q.Exec(
			ctx,
			`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at)
			 VALUES ($1, $2, $3, $4)`,
			token.UserID,
			token.TokenHash,
			token.ExpiresAt,
			token.CreatedAt,
		)
		if err := db.HandleExecError(err, "create refresh token", start); err != nil {
			return err
		}

		if limit <= 0 {
			return nil
		}

		start = time.Now()
		_, err = q.Exec(
			ctx,
			`DELETE FROM refresh_tokens
			 WHERE id IN (
			 	SELECT id
			 	FROM refresh_tokens
			 	WHERE user_id = $1
			 	ORDER BY created_at DESC, id DESC
			 	OFFSET $2
			 )`,
			token.UserID,
			limit,
		)
		return db.HandleExecError(err, "prune refresh tokens", start)
	})
}

func (r *PgRefreshTokenRepository) FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	start := time.Now()
	row := r.db.QueryRow(
		ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM refresh_tokens
		 WHERE token_hash = $1`,
		hash,
	)

	var token authdomain.RefreshToken
	err := row.Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, "find refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

func (r *PgRefreshTokenRepository) DeleteByTokenHashAndUserID(ctx context.Context, hash string, userID int64) (bool, error) {
	start := time.Now()
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE token_hash = $1 AND user_id = $2`,
		hash,
		userID,
	)
	if err := db.HandleExecError(err, "delete refresh token", start); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`,
		now,
	)
	if err := db.HandleExecError(err, "delete expired refresh tokens", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
