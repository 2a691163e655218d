package recipe

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds a Recipe aggregate from the incoming DTO.
// Ingredient positions follow the order of the submitted list, so a later
// fetch returns them exactly as sent.
func NewFromCreateRequest(ownerID string, req CreateRecipeRequest) Recipe {
	now := time.Now().UTC()

	r := Recipe{
		ID:           uuid.NewString(),
		UserID:       ownerID,
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		PrepTime:     req.PrepTime,
		Servings:     req.Servings,
		Category:     req.Category,
		ImageURL:     req.ImageURL,
		CreatedAt:    now,
		Ingredients:  make([]Ingredient, 0, len(req.Ingredients)),
	}

	for i, item := range req.Ingredients {
		r.Ingredients = append(r.Ingredients, Ingredient{
			ID:       uuid.NewString(),
			RecipeID: r.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Position: i,
		})
	}

	return r
}

func NewIngredientFromCreateRequest(req CreateIngredientRequest, position int) Ingredient {
	return Ingredient{
		ID:       uuid.NewString(),
		RecipeID: req.RecipeID,
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Position: position,
	}
}
