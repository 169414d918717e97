// Package store defines the persistence contracts used by the services and
// the reconciler. Implementations live in store/postgres and in Memory.
package store

import (
	"context"
	"errors"

	"recipe_backend/models"
)

var (
	// ErrNotFound is returned when no row matches the owner-scoped lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// Store groups the repositories and owns the transaction boundary.
type Store interface {
	Repositories
	// RunInTx runs fn inside a single transaction. The Repositories passed
	// to fn are bound to it; fn's error rolls everything back.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Repositories is the set of repositories available inside and outside a
// transaction.
type Repositories interface {
	Users() UserRepository
	Recipes() RecipeRepository
	Attributes() AttributeRepository
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByToken(ctx context.Context, token string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// RecipeRepository reads and writes recipes and their association sets.
// Every lookup is scoped by owner.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	Get(ctx context.Context, owner, id int64) (*models.Recipe, error)
	List(ctx context.Context, owner int64, filter models.RecipeFilter) ([]models.Recipe, error)
	// Update writes the editable fields of recipe. The image key is only
	// written by SetImage; recipe.Image is refreshed from the stored row.
	Update(ctx context.Context, recipe *models.Recipe) error
	// SetImage replaces the recipe's image key and returns the key it
	// replaced. No other column is written.
	SetImage(ctx context.Context, owner, id int64, key string) (string, error)
	Delete(ctx context.Context, owner, id int64) error

	// Associations returns the recipe's set of kind, ordered by id.
	Associations(ctx context.Context, kind models.Kind, recipeID int64) ([]models.Attribute, error)
	// Associate links attributeID to the recipe; linking twice is a no-op.
	Associate(ctx context.Context, kind models.Kind, recipeID, attributeID int64) error
	// ClearAssociations unlinks every attribute of kind from the recipe.
	// The attributes themselves are kept.
	ClearAssociations(ctx context.Context, kind models.Kind, recipeID int64) error
}

// AttributeRepository reads and writes tags and ingredients.
type AttributeRepository interface {
	FindByOwnerAndName(ctx context.Context, kind models.Kind, owner int64, name string) (*models.Attribute, error)
	// Create inserts attr owned by attr.UserID and sets attr.ID.
	Create(ctx context.Context, kind models.Kind, attr *models.Attribute) error
	Get(ctx context.Context, kind models.Kind, owner, id int64) (*models.Attribute, error)
	List(ctx context.Context, kind models.Kind, owner int64, filter models.AttributeFilter) ([]models.Attribute, error)
	Update(ctx context.Context, kind models.Kind, attr *models.Attribute) error
	Delete(ctx context.Context, kind models.Kind, owner, id int64) error
}
