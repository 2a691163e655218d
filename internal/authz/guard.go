// Package authz decides whether an authenticated identity may touch a
// resource. Ownership is always re-read from the datastore at call time;
// no decision is ever cached between requests.
package authz

import (
	"context"
	"errors"
)

type Kind string

const (
	KindRecipe     Kind = "recipe"
	KindIngredient Kind = "ingredient"
)

// Ref addresses a resource by kind and id. Ingredients carry no owner of
// their own: their owner is resolved through the parent recipe.
type Ref struct {
	Kind Kind
	ID   string
}

// ErrNotFoundOrDenied deliberately merges "does not exist" and "exists but
// is not yours" so callers cannot probe for foreign resource ids.
var ErrNotFoundOrDenied = errors.New("resource not found or access denied")

// OwnerResolver returns the owning user id for a resource, or
// ErrNotFoundOrDenied when the resource (or its parent) is missing.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, ref Ref) (string, error)
}

type Guard struct {
	resolver OwnerResolver
}

func NewGuard(resolver OwnerResolver) *Guard {
	return &Guard{resolver: resolver}
}

// Authorize allows the operation only when the resource exists and its
// resolved owner equals userID. Run immediately before every disclosing or
// mutating operation.
func (g *Guard) Authorize(ctx context.Context, userID string, ref Ref) error {
	if userID == "" || ref.ID == "" {
		return ErrNotFoundOrDenied
	}

	owner, err := g.resolver.OwnerOf(ctx, ref)

	if err != nil {
		if errors.Is(err, ErrNotFoundOrDenied) {
			return ErrNotFoundOrDenied
		}

		return err
	}

	if owner != userID {
		return ErrNotFoundOrDenied
	}

	return nil
}
