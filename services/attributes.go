package services

import (
	"context"
	"log/slog"

	"recipe_backend/models"
	"recipe_backend/store"
)

// Attributes manages one kind of recipe attribute, tags or ingredients.
// There is no create operation: attributes come into existence when a
// recipe names them.
type Attributes struct {
	store store.Store
	kind  models.Kind
}

func NewAttributes(s store.Store, kind models.Kind) *Attributes {
	return &Attributes{store: s, kind: kind}
}

func (s *Attributes) Kind() models.Kind {
	return s.kind
}

// List returns owner's attributes ordered by name, descending. With
// assignedOnly set only attributes linked to a recipe are returned, each
// once.
func (s *Attributes) List(ctx context.Context, owner int64, assignedOnly bool) ([]models.Attribute, error) {
	attrs, err := s.store.Attributes().List(ctx, s.kind, owner, models.AttributeFilter{AssignedOnly: assignedOnly})
	if err != nil {
		return nil, storeError(err, s.kind.String(), 0)
	}
	return attrs, nil
}

// Update renames the attribute. With partial set a missing name is a no-op.
func (s *Attributes) Update(ctx context.Context, owner, id int64, p *models.AttributePayload, partial bool) (*models.Attribute, error) {
	name, err := validateName(p, partial)
	if err != nil {
		return nil, err
	}

	attr, err := s.store.Attributes().Get(ctx, s.kind, owner, id)
	if err != nil {
		return nil, storeError(err, s.kind.String(), id)
	}
	if name == nil || *name == attr.Name {
		return attr, nil
	}

	attr.Name = *name
	if err := s.store.Attributes().Update(ctx, s.kind, attr); err != nil {
		return nil, storeError(err, s.kind.String(), id)
	}
	slog.Info("attribute renamed", "type", "db", "kind", s.kind, "id", id, "owner", owner)
	return attr, nil
}

// Delete removes the attribute and unlinks it from every recipe.
func (s *Attributes) Delete(ctx context.Context, owner, id int64) error {
	if err := s.store.Attributes().Delete(ctx, s.kind, owner, id); err != nil {
		return storeError(err, s.kind.String(), id)
	}
	return nil
}
