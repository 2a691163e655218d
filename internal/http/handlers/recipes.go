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

type RecipesStore interface {
	CreateWithIngredients(ctx context.Context, ownerID string, req recipe.CreateRecipeRequest) (recipe.Recipe, error)
	List(ctx context.Context, ownerID string, filter recipe.ListFilter) ([]recipe.Recipe, error)
	GetByID(ctx context.Context, id string) (recipe.Recipe, error)
	Update(ctx context.Context, id string, req recipe.UpdateRecipeRequest) (recipe.Recipe, error)
	Delete(ctx context.Context, id string) error
}

// Authorizer is the ownership guard. Handlers call it immediately before
// every read or write that touches a specific resource.
type Authorizer interface {
	Authorize(ctx context.Context, userID string, ref authz.Ref) error
}

type RecipesHandler struct {
	repo  RecipesStore
	guard Authorizer
}

func NewRecipesHandler(repo RecipesStore, guard Authorizer) *RecipesHandler {
	return &RecipesHandler{repo: repo, guard: guard}
}

func (h *RecipesHandler) ListRecipes(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var filter recipe.ListFilter

	if search := ctx.Query("search"); search != "" {
		filter.Search = &search
	}

	if category := ctx.Query("category"); category != "" {
		filter.Category = &category
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	recipes, err := h.repo.List(cctx, userID, filter)

	if err != nil {
		slog.Default().ErrorContext(cctx, "list recipes failed", "err", err)
		RespondInternal(ctx, "Could not list recipes")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": recipes,
		"count": len(recipes),
	})
}

func (h *RecipesHandler) GetRecipeByID(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	// a malformed id cannot name a resource; same 404 as missing/denied
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Recipe not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.guard.Authorize(cctx, userID, authz.Ref{Kind: authz.KindRecipe, ID: id})

	if err != nil {
		h.respondGuardErr(ctx, cctx, err, "Recipe not found")
		return
	}

	rec, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			// deleted between the check and the read; still a clean 404
			RespondNotFound(ctx, "Recipe not found")
			return
		}

		slog.Default().ErrorContext(cctx, "get recipe failed", "err", err)
		RespondInternal(ctx, "Could not fetch recipe")
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (h *RecipesHandler) CreateRecipe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req recipe.CreateRecipeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.repo.CreateWithIngredients(cctx, userID, req)

	if err != nil {
		slog.Default().ErrorContext(cctx, "create recipe aggregate failed", "err", err)
		RespondInternal(ctx, "Could not create recipe")
		return
	}

	ctx.JSON(http.StatusCreated, rec)
}

func (h *RecipesHandler) UpdateRecipe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Recipe not found")
		return
	}

	var req recipe.UpdateRecipeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.guard.Authorize(cctx, userID, authz.Ref{Kind: authz.KindRecipe, ID: id})

	if err != nil {
		h.respondGuardErr(ctx, cctx, err, "Recipe not found")
		return
	}

	rec, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			RespondNotFound(ctx, "Recipe not found")
			return
		}

		slog.Default().ErrorContext(cctx, "update recipe failed", "err", err)
		RespondInternal(ctx, "Could not update recipe")
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (h *RecipesHandler) DeleteRecipe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Recipe not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.guard.Authorize(cctx, userID, authz.Ref{Kind: authz.KindRecipe, ID: id})

	if err != nil {
		h.respondGuardErr(ctx, cctx, err, "Recipe not found")
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			RespondNotFound(ctx, "Recipe not found")
			return
		}

		slog.Default().ErrorContext(cctx, "delete recipe failed", "err", err)
		RespondInternal(ctx, "Could not delete recipe")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully."})
}

func (h *RecipesHandler) respondGuardErr(ctx *gin.Context, cctx context.Context, err error, notFoundMsg string) {
	if errors.Is(err, authz.ErrNotFoundOrDenied) {
		RespondNotFound(ctx, notFoundMsg)
		return
	}

	slog.Default().ErrorContext(cctx, "ownership check failed", "err", err)
	RespondInternal(ctx, "Could not authorize request")
}
