package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickcook/quickcook/internal/authz"
	"github.com/quickcook/quickcook/internal/observability"
)

// OwnershipRepo is the single place that resolves who owns a resource.
// Recipes carry the owner directly; ingredients resolve through the join to
// their parent recipe. Every authorization check goes through here, so the
// join logic exists exactly once.
type OwnershipRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOwnershipRepo(pool *pgxpool.Pool, prom *observability.Prom) *OwnershipRepo {
	return &OwnershipRepo{pool: pool, prom: prom}
}

func (r *OwnershipRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *OwnershipRepo) OwnerOf(ctx context.Context, ref authz.Ref) (string, error) {
	var query string
	var op string

	switch ref.Kind {
	case authz.KindRecipe:
		op = "ownership.recipe"
		query = `SELECT user_id FROM recipes WHERE id = $1`
	case authz.KindIngredient:
		op = "ownership.ingredient"
		query = `SELECT r.user_id
			 FROM ingredients i
			 JOIN recipes r ON i.recipe_id = r.id
			 WHERE i.id = $1`
	default:
		return "", fmt.Errorf("unknown resource kind %q", ref.Kind)
	}

	var owner string

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, query, ref.ID).Scan(&owner)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", authz.ErrNotFoundOrDenied
		}

		return "", err
	}

	return owner, nil
}
