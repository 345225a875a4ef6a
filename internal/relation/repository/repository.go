package repository

import (
	"context"
	"time"

	"github.com/jakobkordez/wmm-reborn/internal/common/db"
)

type Repository interface {
	// NetAmount sums the relation rows between self and other, signed from
	// self's side. No rows yields zero.
	NetAmount(ctx context.Context, self, other string) (int64, error)
}

type PgRepository struct {
	db db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{db: q}
}

func (r *PgRepository) NetAmount(ctx context.Context, self, other string) (int64, error) {
	start := time.Now()
	row := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(CASE WHEN user1 = $1 THEN amount ELSE -amount END), 0)::BIGINT
		 FROM populated_relations
		 WHERE (user1 = $1 AND user2 = $2) OR (user1 = $2 AND user2 = $1)`,
		self,
		other,
	)

	var amount int64
	err := row.Scan(&amount)
	if err := db.HandleQueryError(err, nil, "sum relation amount", start); err != nil {
		return 0, err
	}
	return amount, nil
}
