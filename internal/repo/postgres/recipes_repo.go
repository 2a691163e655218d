package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickcook/quickcook/internal/domain/recipe"
	"github.com/quickcook/quickcook/internal/observability"
)

type RecipesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRecipesRepo(pool *pgxpool.Pool, prom *observability.Prom) *RecipesRepo {
	return &RecipesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *RecipesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// CreateWithIngredients writes the recipe row and every ingredient row in
// one transaction. Either the whole aggregate lands or none of it does; a
// failed ingredient insert rolls the recipe back too.
func (r *RecipesRepo) CreateWithIngredients(ctx context.Context, ownerID string, req recipe.CreateRecipeRequest) (rec recipe.Recipe, err error) {
	rec = recipe.NewFromCreateRequest(ownerID, req)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%w: %v", recipe.ErrAggregateWrite, err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = r.observe("recipes.create_tx.insert_recipe", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO recipes (id, user_id, title, description, instructions, prep_time, servings, category, image_url, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			rec.ID, rec.UserID, rec.Title, rec.Description, rec.Instructions,
			rec.PrepTime, rec.Servings, rec.Category, rec.ImageURL, rec.CreatedAt)
		return e
	})

	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%w: %v", recipe.ErrAggregateWrite, err)
	}

	for _, ing := range rec.Ingredients {
		ing := ing

		err = r.observe("recipes.create_tx.insert_ingredient", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO ingredients (id, recipe_id, name, quantity, unit, position)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				ing.ID, ing.RecipeID, ing.Name, ing.Quantity, ing.Unit, ing.Position)
			return e
		})

		if err != nil {
			return recipe.Recipe{}, fmt.Errorf("%w: %v", recipe.ErrAggregateWrite, err)
		}
	}

	err = tx.Commit(ctx)

	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%w: %v", recipe.ErrAggregateWrite, err)
	}

	return rec, nil
}

// List composes the owner-scoped query. The owner predicate is always
// present; search and category narrow it further, newest first.
func (r *RecipesRepo) List(ctx context.Context, ownerID string, filter recipe.ListFilter) ([]recipe.Recipe, error) {
	baseQuery := `SELECT id, user_id, title, description, instructions, prep_time, servings, category, image_url, created_at
	FROM recipes
	WHERE user_id = $1`

	args := []interface{}{ownerID}
	var conds []string

	argsPosition := 2

	if filter.Search != nil && *filter.Search != "" {
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", argsPosition))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argsPosition++
	}

	if filter.Category != nil && *filter.Category != "" {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *filter.Category)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}

	// id tiebreak keeps the order stable for equal timestamps
	query += " ORDER BY created_at DESC, id DESC"

	var rows pgx.Rows
	err := r.observe("recipes.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]recipe.Recipe, 0)

	for rows.Next() {
		var rec recipe.Recipe

		err = rows.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &rec.Instructions,
			&rec.PrepTime, &rec.Servings, &rec.Category, &rec.ImageURL, &rec.CreatedAt)

		if err != nil {
			return nil, err
		}

		rec.Ingredients = make([]recipe.Ingredient, 0)
		output = append(output, rec)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return output, nil
}

// GetByID loads the full aggregate: the recipe row plus its ingredients in
// submission order. Ownership has already been checked by the caller.
func (r *RecipesRepo) GetByID(ctx context.Context, id string) (recipe.Recipe, error) {
	var rec recipe.Recipe

	err := r.observe("recipes.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, user_id, title, description, instructions, prep_time, servings, category, image_url, created_at
			 FROM recipes
			 WHERE id = $1`, id,
		).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &rec.Instructions,
			&rec.PrepTime, &rec.Servings, &rec.Category, &rec.ImageURL, &rec.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}

		return recipe.Recipe{}, err
	}

	ings, err := r.listIngredients(ctx, id)

	if err != nil {
		return recipe.Recipe{}, err
	}

	rec.Ingredients = ings

	return rec, nil
}

func (r *RecipesRepo) listIngredients(ctx context.Context, recipeID string) ([]recipe.Ingredient, error) {
	var rows pgx.Rows

	err := r.observe("recipes.list_ingredients", func() error {
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

// Update applies a merge patch: COALESCE keeps the stored value for every
// field the caller left out.
func (r *RecipesRepo) Update(ctx context.Context, id string, req recipe.UpdateRecipeRequest) (recipe.Recipe, error) {
	var rec recipe.Recipe

	err := r.observe("recipes.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE recipes
				SET title = COALESCE($2, title),
						description = COALESCE($3, description),
						instructions = COALESCE($4, instructions),
						prep_time = COALESCE($5, prep_time),
						servings = COALESCE($6, servings),
						category = COALESCE($7, category),
						image_url = COALESCE($8, image_url)
			WHERE id = $1
			RETURNING id, user_id, title, description, instructions, prep_time, servings, category, image_url, created_at`,
			id,
			req.Title,
			req.Description,
			req.Instructions,
			req.PrepTime,
			req.Servings,
			req.Category,
			req.ImageURL,
		).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &rec.Instructions,
			&rec.PrepTime, &rec.Servings, &rec.Category, &rec.ImageURL, &rec.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}

		return recipe.Recipe{}, err
	}

	ings, err := r.listIngredients(ctx, id)

	if err != nil {
		return recipe.Recipe{}, err
	}

	rec.Ingredients = ings

	return rec, nil
}

// Delete removes the recipe and all its ingredients as one cascading unit.
func (r *RecipesRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = r.observe("recipes.delete_tx.ingredients", func() error {
		_, e := tx.Exec(ctx, `DELETE FROM ingredients WHERE recipe_id = $1`, id)
		return e
	})

	if err != nil {
		return err
	}

	var tag = struct{ rows int64 }{}

	err = r.observe("recipes.delete_tx.recipe", func() error {
		t, e := tx.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
		if e != nil {
			return e
		}
		tag.rows = t.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if tag.rows == 0 {
		return recipe.ErrNotFound
	}

	return tx.Commit(ctx)
}

// escapeLike neutralizes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
