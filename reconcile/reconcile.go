// Package reconcile makes a recipe's tag or ingredient set match the names
// submitted with a create or update request.
package reconcile

//go:generate mockgen -destination=mock/mock_reconcile.go -package=mock recipe_backend/reconcile Attributes,Links

import (
	"context"
	"errors"
	"fmt"

	"recipe_backend/models"
	"recipe_backend/store"
)

// Attributes is the owner-scoped get-or-create surface of tag and
// ingredient storage.
type Attributes interface {
	FindByOwnerAndName(ctx context.Context, kind models.Kind, owner int64, name string) (*models.Attribute, error)
	Create(ctx context.Context, kind models.Kind, attr *models.Attribute) error
}

// Links edits a recipe's association sets.
type Links interface {
	Associate(ctx context.Context, kind models.Kind, recipeID, attributeID int64) error
	ClearAssociations(ctx context.Context, kind models.Kind, recipeID int64) error
}

// Reconciler runs against the repositories of one transaction. It never
// retries and never deletes an attribute; unlinked ones stay in storage.
type Reconciler struct {
	attrs Attributes
	links Links
}

func New(attrs Attributes, links Links) *Reconciler {
	return &Reconciler{attrs: attrs, links: links}
}

// Reconcile attaches one owned attribute per distinct name to recipe,
// creating the attribute when owner has none by that name. With replace set
// (the update path) the existing set of kind is cleared first, so the result
// is exactly the submitted set; an empty names slice then clears it.
//
// The recipe's loaded association set for kind is updated to match and
// returned. The caller has already checked that owner owns recipe.
func (r *Reconciler) Reconcile(ctx context.Context, recipe *models.Recipe, owner int64, kind models.Kind, names []string, replace bool) ([]models.Attribute, error) {
	current := recipe.Associations(kind)
	if replace {
		if err := r.links.ClearAssociations(ctx, kind, recipe.ID); err != nil {
			return nil, err
		}
		current = nil
	}

	seen := make(map[int64]bool, len(current)+len(names))
	attached := make([]models.Attribute, 0, len(current)+len(names))
	for _, a := range current {
		seen[a.ID] = true
		attached = append(attached, a)
	}

	for _, name := range dedupe(names) {
		attr, err := r.getOrCreate(ctx, kind, owner, name)
		if err != nil {
			return nil, err
		}
		if err := r.links.Associate(ctx, kind, recipe.ID, attr.ID); err != nil {
			return nil, err
		}
		if !seen[attr.ID] {
			seen[attr.ID] = true
			attached = append(attached, *attr)
		}
	}

	recipe.SetAssociations(kind, attached)
	return attached, nil
}

func (r *Reconciler) getOrCreate(ctx context.Context, kind models.Kind, owner int64, name string) (*models.Attribute, error) {
	attr, err := r.attrs.FindByOwnerAndName(ctx, kind, owner, name)
	if err == nil {
		return attr, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	attr = &models.Attribute{UserID: owner, Name: name}
	if err := r.attrs.Create(ctx, kind, attr); err != nil {
		return nil, fmt.Errorf("get or create %s %q: %w", kind, name, err)
	}
	attributesCreated.WithLabelValues(kind.String()).Inc()
	return attr, nil
}

// dedupe drops repeated names, keeping first-occurrence order.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
