package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickcook/quickcook/internal/domain/user"
	"github.com/quickcook/quickcook/internal/observability"
)

var ErrUserNotFound = errors.New("user not found")
var ErrEmailAlreadyUsed = errors.New("email already registered")

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := r.observe("users.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO users (id, username, email, password_hash, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, username, email, password_hash, created_at
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// EmailExists reports whether an account already uses the email. The unique
// index on users.email stays authoritative; this only gives register a
// cheaper 409 path.
func (r *UsersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool

	err := r.observe("users.email_exists", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
		).Scan(&exists)
	})

	return exists, err
}
