package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickcook/quickcook/internal/domain/recipe"
	"github.com/quickcook/quickcook/internal/observability"
)

type IngredientsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewIngredientsRepo(pool *pgxpool.Pool, prom *observability.Prom) *IngredientsRepo {
	return &IngredientsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *IngredientsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *IngredientsRepo) ListByRecipe(ctx context.Context, recipeID string) ([]recipe.Ingredient, error) {
	var rows pgx.Rows

	err := r.observe("ingredients.list_by_recipe", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT id, recipe_id, name, quantity, unit, position
			 FROM ingredients
			 WHERE recipe_id = $1
			 ORDER BY position ASC, id ASC`, recipeID)
		return qerr
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]recipe.Ingredient, 0)

	for rows.Next() {
		var ing recipe.Ingredient

		if scanErr := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.Position); scanErr != nil {
			return nil, scanErr
		}

		out = append(out, ing)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

// Create appends one ingredient at the end of the recipe's list. The
// position subquery runs inside the insert, so two concurrent appends
// cannot race a stale max.
func (r *IngredientsRepo) Create(ctx context.Context, req recipe.CreateIngredientRequest) (recipe.Ingredient, error) {
	// position 0 is provisional; the insert computes the real one
	ing := recipe.NewIngredientFromCreateRequest(req, 0)

	err := r.observe("ingredients.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO ingredients (id, recipe_id, name, quantity, unit, position)
			 VALUES ($1, $2, $3, $4, $5,
				 (SELECT COALESCE(MAX(position) + 1, 0) FROM ingredients WHERE recipe_id = $2))
			 RETURNING position`,
			ing.ID, ing.RecipeID, ing.Name, ing.Quantity, ing.Unit,
		).Scan(&ing.Position)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		// parent recipe vanished between the ownership check and the insert
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return recipe.Ingredient{}, recipe.ErrNotFound
		}

		return recipe.Ingredient{}, err
	}

	return ing, nil
}

func (r *IngredientsRepo) Update(ctx context.Context, id string, req recipe.UpdateIngredientRequest) (recipe.Ingredient, error) {
	var ing recipe.Ingredient

	err := r.observe("ingredients.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE ingredients
				SET name = COALESCE($2, name),
						quantity = COALESCE($3, quantity),
						unit = COALESCE($4, unit)
			WHERE id = $1
			RETURNING id, recipe_id, name, quantity, unit, position`,
			id,
			req.Name,
			req.Quantity,
			req.Unit,
		).Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.Position)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Ingredient{}, recipe.ErrIngredientNotFound
		}

		return recipe.Ingredient{}, err
	}

	return ing, nil
}

func (r *IngredientsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("ingredients.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return recipe.ErrIngredientNotFound
	}

	return nil
}
