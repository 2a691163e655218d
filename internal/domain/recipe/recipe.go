package recipe

import (
	"errors"
	"time"
)

type Recipe struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
	PrepTime     int          `json:"prep_time,omitempty"`
	Servings     int          `json:"servings,omitempty"`
	Category     string       `json:"category,omitempty"`
	ImageURL     string       `json:"image_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Ingredients  []Ingredient `json:"ingredients"`
}

type Ingredient struct {
	ID       string `json:"id"`
	RecipeID string `json:"recipe_id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Position int    `json:"-"`
}

// Missing and not-owned are reported identically upstream, so a single
// sentinel covers both.
var ErrNotFound = errors.New("recipe not found")
var ErrIngredientNotFound = errors.New("ingredient not found")

// ErrAggregateWrite means the recipe-plus-ingredients write failed as a
// whole and was rolled back.
var ErrAggregateWrite = errors.New("aggregate write failed")

// with pointers if optional, it will be nil
type ListFilter struct {
	Search   *string
	Category *string
}

type CreateRecipeRequest struct {
	Title        string                  `json:"title" binding:"required,min=1,max=200"`
	Description  string                  `json:"description" binding:"omitempty,max=2000"`
	Instructions string                  `json:"instructions" binding:"omitempty,max=10000"`
	PrepTime     int                     `json:"prep_time" binding:"omitempty,min=0"`
	Servings     int                     `json:"servings" binding:"omitempty,min=0"`
	Category     string                  `json:"category" binding:"omitempty,max=80"`
	ImageURL     string                  `json:"image_url" binding:"omitempty,max=500"`
	Ingredients  []IngredientItemRequest `json:"ingredients" binding:"omitempty,dive"`
}

// IngredientItemRequest is one line item inside a create-recipe payload.
type IngredientItemRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Quantity string `json:"quantity" binding:"omitempty,max=40"`
	Unit     string `json:"unit" binding:"omitempty,max=40"`
}

// UpdateRecipeRequest is a merge patch: nil fields keep their stored value.
type UpdateRecipeRequest struct {
	Title        *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description  *string `json:"description" binding:"omitempty,max=2000"`
	Instructions *string `json:"instructions" binding:"omitempty,max=10000"`
	PrepTime     *int    `json:"prep_time" binding:"omitempty,min=0"`
	Servings     *int    `json:"servings" binding:"omitempty,min=0"`
	Category     *string `json:"category" binding:"omitempty,max=80"`
	ImageURL     *string `json:"image_url" binding:"omitempty,max=500"`
}

type CreateIngredientRequest struct {
	RecipeID string `json:"recipe_id" binding:"required,uuid"`
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Quantity string `json:"quantity" binding:"omitempty,max=40"`
	Unit     string `json:"unit" binding:"omitempty,max=40"`
}

// UpdateIngredientRequest is a merge patch, same semantics as recipe updates.
type UpdateIngredientRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=120"`
	Quantity *string `json:"quantity" binding:"omitempty,max=40"`
	Unit     *string `json:"unit" binding:"omitempty,max=40"`
}
