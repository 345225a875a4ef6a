package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jakobkordez/wmm-reborn/internal/common/db"
	"github.com/jakobkordez/wmm-reborn/internal/user/domain"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameAlreadyExists = errors.New("username already exists")
)

type Repository interface {
	Create(ctx context.Context, user domain.NewUser) (domain.ID, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindCredentialsByUsername(ctx context.Context, username string) (domain.Credentials, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

type PgRepository struct {
	db db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{db: q}
}

const selectUser = `SELECT id, username, name, email, password_hash,
	total_lent, total_borrowed, current_lent, current_borrowed
	FROM users`

func (r *PgRepository) Create(ctx context.Context, user domain.NewUser) (domain.ID, error) {
	start := time.Now()
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO users (username, name, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		user.Username,
		user.Name,
		user.Email,
		user.PasswordHash,
	)

	var id domain.ID
	err := row.Scan(&id)
	if err != nil && db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("create user", start)
		return 0, ErrUsernameAlreadyExists
	}
	if err := db.HandleQueryError(err, nil, "create user", start); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PgRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	start := time.Now()
	row := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`,
		username,
	)

	var exists bool
	err := row.Scan(&exists)
	if err := db.HandleQueryError(err, nil, "check username exists", start); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) FindCredentialsByUsername(ctx context.Context, username string) (domain.Credentials, error) {
	start := time.Now()
	row := r.db.QueryRow(
		ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`,
		username,
	)

	var c domain.Credentials
	err := row.Scan(&c.ID, &c.Username, &c.PasswordHash)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user credentials", start); err != nil {
		return domain.Credentials{}, err
	}
	return c, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	start := time.Now()
	row := r.db.QueryRow(ctx, selectUser+` WHERE id = $1`, int64(id))
	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by id", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	start := time.Now()
	row := r.db.QueryRow(ctx, selectUser+` WHERE username = $1`, username)
	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by username", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.TotalLent,
		&u.TotalBorrowed,
		&u.CurrentLent,
		&u.CurrentBorrowed,
	)
	return u, err
}
