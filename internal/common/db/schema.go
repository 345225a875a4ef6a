package db

import (
	"context"
	"time"

	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
)

var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		total_lent BIGINT NOT NULL DEFAULT 0,
		total_borrowed BIGINT NOT NULL DEFAULT 0,
		current_lent BIGINT NOT NULL DEFAULT 0,
		current_borrowed BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
	`,
	`
	CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
	`,
	`CREATE INDEX IF NOT EXISTS refresh_tokens_user_id_idx ON refresh_tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS refresh_tokens_expires_at_idx ON refresh_tokens(expires_at)`,
	`
	CREATE TABLE IF NOT EXISTS relations (
		id BIGSERIAL PRIMARY KEY,
		user1_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user2_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
	`,
	`CREATE INDEX IF NOT EXISTS relations_pair_idx ON relations(user1_id, user2_id)`,
	`
	CREATE OR REPLACE VIEW populated_relations AS
	SELECT r.id, u1.username AS user1, u2.username AS user2, r.amount
	FROM relations r
	JOIN users u1 ON u1.id = r.user1_id
	JOIN users u2 ON u2.id = r.user2_id
	`,
}

// EnsureSchema creates the tables and views the service reads and writes.
// All statements are idempotent so every instance runs them at startup.
func EnsureSchema(ctx context.Context, q Querier, log *logger.Logger) error {
	return RetryWithBackoff(ctx, log, DefaultRetryConfig, func() error {
		for _, stmt := range schemaStatements {
			start := time.Now()
			_, err := q.Exec(ctx, stmt)
			if err := HandleExecError(err, "ensure schema", start); err != nil {
				return err
			}
		}
		log.Infof("database schema ensured")
		return nil
	})
}
