package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quickcook/quickcook/internal/authz"
	"github.com/quickcook/quickcook/internal/domain/recipe"
	"github.com/quickcook/quickcook/internal/http/middlewares"
	"github.com/quickcook/quickcook/internal/utils"
)

type IngredientsStore interface {
	ListByRecipe(ctx context.Context, recipeID string) ([]recipe.Ingredient, error)
	Create(ctx context.Context, req recipe.CreateIngredientRequest) (recipe.Ingredient, error)
	Update(ctx context.Context, id string, req recipe.UpdateIngredientRequest) (recipe.Ingredient, error)
	Delete(ctx context.Context, id string) error
}

type IngredientsHandler struct {
	repo  IngredientsStore
	guard Authorizer
}

func NewIngredientsHandler(repo IngredientsStore, guard Authorizer) *IngredientsHandler {
	return &IngredientsHandler{repo: repo, guard: guard}
}

// ListByRecipe discloses a recipe's ingredient list, so it authorizes
// against the recipe itself.
func (h *IngredientsHandler) ListByRecipe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	recipeID := ctx.Param("recipeId")

	if !utils.IsUUID(recipeID) {
		RespondNotFound(ctx, "Recipe not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.guard.Authorize(cctx, userID, authz.Ref{Kind: authz.KindRecipe, ID: recipeID})

	if err != nil {
		h.respondGuardErr(ctx, cctx, err, "Recipe not found")
		return
	}

	ings, err := h.repo.ListByRecipe(cctx, recipeID)

	if err != nil {
		slog.Default().ErrorContext(cctx, "list ingredients failed", "err", err)
		RespondInternal(ctx, "Could not list ingredients")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": ings,
		"count": len(ings),
	})
}

// AddIngredient appends one ingredient to a recipe the caller owns.
func (h *IngredientsHandler) AddIngredient(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req recipe.CreateIngredientRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.guard.Authorize(cctx, userID, authz.Ref{Kind: authz.KindRecipe, ID: req.RecipeID})

	if err != nil {
		h.respondGuardErr(ctx, cctx, err, "Recipe not found")
		return
	}

	ing, err := h.repo.Create(cctx, req)

	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			RespondNotFound(ctx, "Recipe not found")
			return
		}

		slog.Default().ErrorContext(cctx, "add ingredient failed", "err", err)
		RespondInternal(ctx, "Could not add ingredient")
		return
	}

	ctx.JSON(http.StatusCreated, ing)
}

// UpdateIngredient authorizes transitively: the ingredient's owner is
// whoever owns its parent recipe.
func (h *IngredientsHandler) UpdateIngredient(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Ingredient not found")
		return
	}

	var req recipe.UpdateIngredientRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.guard.Authorize(cctx, userID, authz.Ref{Kind: authz.KindIngredient, ID: id})

	if err != nil {
		h.respondGuardErr(ctx, cctx, err, "Ingredient not found")
		return
	}

	ing, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, recipe.ErrIngredientNotFound) {
			RespondNotFound(ctx, "Ingredient not found")
			return
		}

		slog.Default().ErrorContext(cctx, "update ingredient failed", "err", err)
		RespondInternal(ctx, "Could not update ingredient")
		return
	}

	ctx.JSON(http.StatusOK, ing)
}

func (h *IngredientsHandler) DeleteIngredient(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Ingredient not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.guard.Authorize(cctx, userID, authz.Ref{Kind: authz.KindIngredient, ID: id})

	if err != nil {
		h.respondGuardErr(ctx, cctx, err, "Ingredient not found")
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, recipe.ErrIngredientNotFound) {
			RespondNotFound(ctx, "Ingredient not found")
			return
		}

		slog.Default().ErrorContext(cctx, "delete ingredient failed", "err", err)
		RespondInternal(ctx, "Could not delete ingredient")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Ingredient deleted."})
}

func (h *IngredientsHandler) respondGuardErr(ctx *gin.Context, cctx context.Context, err error, notFoundMsg string) {
	if errors.Is(err, authz.ErrNotFoundOrDenied) {
		RespondNotFound(ctx, notFoundMsg)
		return
	}

	slog.Default().ErrorContext(cctx, "ownership check failed", "err", err)
	RespondInternal(ctx, "Could not authorize request")
}
