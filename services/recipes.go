// Package services implements the recipe API operations on top of a store.
// Every operation is scoped to the authenticated owner; other users' rows
// are reported as not found.
package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"recipe_backend/apperrors"
	"recipe_backend/images"
	"recipe_backend/models"
	"recipe_backend/reconcile"
	"recipe_backend/store"
)

type Recipes struct {
	store  store.Store
	images images.Storage
	limits images.Limits
}

func NewRecipes(s store.Store, img images.Storage, limits images.Limits) *Recipes {
	return &Recipes{store: s, images: img, limits: limits}
}

// List returns owner's recipes, newest first, with their tags and
// ingredients loaded.
func (s *Recipes) List(ctx context.Context, owner int64, filter models.RecipeFilter) ([]models.Recipe, error) {
	recipes, err := s.store.Recipes().List(ctx, owner, filter)
	if err != nil {
		return nil, storeError(err, "recipe", 0)
	}
	for i := range recipes {
		if err := loadAssociations(ctx, s.store, &recipes[i]); err != nil {
			return nil, storeError(err, "recipe", recipes[i].ID)
		}
	}
	return recipes, nil
}

func (s *Recipes) Get(ctx context.Context, owner, id int64) (*models.Recipe, error) {
	recipe, err := s.store.Recipes().Get(ctx, owner, id)
	if err != nil {
		return nil, storeError(err, "recipe", id)
	}
	if err := loadAssociations(ctx, s.store, recipe); err != nil {
		return nil, storeError(err, "recipe", id)
	}
	return recipe, nil
}

// Create stores a recipe for owner and attaches the submitted tags and
// ingredients, creating the ones owner does not have yet.
func (s *Recipes) Create(ctx context.Context, owner int64, p *models.RecipePayload) (*models.Recipe, error) {
	fields, err := validateRecipe(p, false)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{UserID: owner}
	fields.apply(recipe)

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		if err := tx.Recipes().Create(ctx, recipe); err != nil {
			return err
		}
		rec := reconcile.New(tx.Attributes(), tx.Recipes())
		for _, kind := range models.Kinds {
			if _, err := rec.Reconcile(ctx, recipe, owner, kind, fields.names[kind], false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "recipe", 0)
	}

	slog.Info("recipe created", "type", "db", "recipe", recipe.ID, "owner", owner)
	return recipe, nil
}

// Update applies p to the recipe. With partial set (PATCH) absent fields are
// left alone; otherwise title, time_minutes and price are required. A tags
// or ingredients key that is present replaces that set exactly, while an
// absent key leaves it untouched.
func (s *Recipes) Update(ctx context.Context, owner, id int64, p *models.RecipePayload, partial bool) (*models.Recipe, error) {
	fields, err := validateRecipe(p, partial)
	if err != nil {
		return nil, err
	}

	var recipe *models.Recipe
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		var err error
		recipe, err = tx.Recipes().Get(ctx, owner, id)
		if err != nil {
			return err
		}
		if err := loadAssociations(ctx, tx, recipe); err != nil {
			return err
		}

		fields.apply(recipe)
		if err := tx.Recipes().Update(ctx, recipe); err != nil {
			return err
		}

		rec := reconcile.New(tx.Attributes(), tx.Recipes())
		for _, kind := range models.Kinds {
			names, present := fields.names[kind]
			if !present {
				continue
			}
			if _, err := rec.Reconcile(ctx, recipe, owner, kind, names, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "recipe", id)
	}
	return recipe, nil
}

// Delete removes the recipe and its links. Tags and ingredients stay.
func (s *Recipes) Delete(ctx context.Context, owner, id int64) error {
	recipe, err := s.store.Recipes().Get(ctx, owner, id)
	if err != nil {
		return storeError(err, "recipe", id)
	}
	if err := s.store.Recipes().Delete(ctx, owner, id); err != nil {
		return storeError(err, "recipe", id)
	}
	s.removeImage(ctx, recipe.Image)
	return nil
}

// UploadImage stores the image read from r as the recipe's photo and
// removes the one it replaces. Only the image key is written, so edits
// committed while the upload is processed are kept.
func (s *Recipes) UploadImage(ctx context.Context, owner, id int64, r io.Reader) (*models.Recipe, error) {
	recipe, err := s.store.Recipes().Get(ctx, owner, id)
	if err != nil {
		return nil, storeError(err, "recipe", id)
	}

	processed, err := images.Process(r, s.limits)
	if err != nil {
		if errors.Is(err, images.ErrInvalidImage) {
			fe := apperrors.FieldErrors{}
			fe.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
			return nil, fe.Err()
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to process image", err)
	}

	key := images.NewKey(processed.Ext)
	if err := s.images.Put(ctx, key, processed.ContentType, bytes.NewReader(processed.Data)); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to store image", err)
	}

	previous, err := s.store.Recipes().SetImage(ctx, owner, id, key)
	if err != nil {
		s.removeImage(ctx, key)
		return nil, storeError(err, "recipe", id)
	}
	s.removeImage(ctx, previous)
	recipe.Image = key

	slog.Info("recipe image stored", "type", "db", "recipe", id, "key", key,
		"width", processed.Width, "height", processed.Height)
	return recipe, nil
}

// ImageURL returns the public URL of the recipe's image, or "" when it has
// none.
func (s *Recipes) ImageURL(recipe *models.Recipe) string {
	if recipe.Image == "" {
		return ""
	}
	return s.images.URL(recipe.Image)
}

func (s *Recipes) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete image", "key", key, "error", err)
	}
}

func loadAssociations(ctx context.Context, repos store.Repositories, recipe *models.Recipe) error {
	for _, kind := range models.Kinds {
		attrs, err := repos.Recipes().Associations(ctx, kind, recipe.ID)
		if err != nil {
			return err
		}
		recipe.SetAssociations(kind, attrs)
	}
	return nil
}

func (f *recipeFields) apply(recipe *models.Recipe) {
	if f.title != nil {
		recipe.Title = *f.title
	}
	if f.payload.TimeMinutes != nil {
		recipe.TimeMinutes = *f.payload.TimeMinutes
	}
	if f.payload.Price != nil {
		recipe.Price = *f.payload.Price
	}
	if f.link != nil {
		recipe.Link = *f.link
	}
	if f.description != nil {
		recipe.Description = *f.description
	}
}
