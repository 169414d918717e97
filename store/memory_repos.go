package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"recipe_backend/models"
)

type memUsers struct{ memConn }

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	defer r.write()()
	s := r.d.state
	for _, u := range s.users {
		if u.Email == user.Email || u.Token == user.Token {
			return fmt.Errorf("create user %q: %w", user.Email, ErrConflict)
		}
	}
	user.ID = s.next("users")
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = *user
	return nil
}

func (r memUsers) GetByToken(ctx context.Context, token string) (*models.User, error) {
	defer r.read()()
	for _, u := range r.d.state.users {
		if u.Token == token {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) List(ctx context.Context) ([]models.User, error) {
	defer r.read()()
	users := make([]models.User, 0, len(r.d.state.users))
	for _, u := range r.d.state.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type memRecipes struct{ memConn }

func (r memRecipes) Create(ctx context.Context, recipe *models.Recipe) error {
	defer r.write()()
	s := r.d.state
	now := time.Now().UTC()
	recipe.ID = s.next("recipes")
	recipe.CreatedAt, recipe.UpdatedAt = now, now
	row := *recipe
	row.Tags, row.Ingredients = nil, nil
	s.recipes[recipe.ID] = row
	return nil
}

func (r memRecipes) Get(ctx context.Context, owner, id int64) (*models.Recipe, error) {
	defer r.read()()
	rec, ok := r.d.state.recipes[id]
	if !ok || rec.UserID != owner {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r memRecipes) List(ctx context.Context, owner int64, filter models.RecipeFilter) ([]models.Recipe, error) {
	defer r.read()()
	s := r.d.state
	var out []models.Recipe
	for _, rec := range s.recipes {
		if rec.UserID != owner {
			continue
		}
		if len(filter.TagIDs) > 0 && !linkedToAny(s.links[models.KindTag][rec.ID], filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !linkedToAny(s.links[models.KindIngredient][rec.ID], filter.IngredientIDs) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func linkedToAny(set map[int64]struct{}, ids []int64) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func (r memRecipes) Update(ctx context.Context, recipe *models.Recipe) error {
	defer r.write()()
	s := r.d.state
	cur, ok := s.recipes[recipe.ID]
	if !ok || cur.UserID != recipe.UserID {
		return ErrNotFound
	}
	recipe.CreatedAt = cur.CreatedAt
	recipe.UpdatedAt = time.Now().UTC()
	recipe.Image = cur.Image
	row := *recipe
	row.Tags, row.Ingredients = nil, nil
	s.recipes[recipe.ID] = row
	return nil
}

func (r memRecipes) SetImage(ctx context.Context, owner, id int64, key string) (string, error) {
	defer r.write()()
	s := r.d.state
	cur, ok := s.recipes[id]
	if !ok || cur.UserID != owner {
		return "", ErrNotFound
	}
	previous := cur.Image
	cur.Image = key
	cur.UpdatedAt = time.Now().UTC()
	s.recipes[id] = cur
	return previous, nil
}

func (r memRecipes) Delete(ctx context.Context, owner, id int64) error {
	defer r.write()()
	s := r.d.state
	rec, ok := s.recipes[id]
	if !ok || rec.UserID != owner {
		return ErrNotFound
	}
	delete(s.recipes, id)
	for _, k := range models.Kinds {
		delete(s.links[k], id)
	}
	return nil
}

func (r memRecipes) Associations(ctx context.Context, kind models.Kind, recipeID int64) ([]models.Attribute, error) {
	defer r.read()()
	s := r.d.state
	out := make([]models.Attribute, 0, len(s.links[kind][recipeID]))
	for aid := range s.links[kind][recipeID] {
		out = append(out, s.attrs[kind][aid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memRecipes) Associate(ctx context.Context, kind models.Kind, recipeID, attributeID int64) error {
	defer r.write()()
	s := r.d.state
	if _, ok := s.recipes[recipeID]; !ok {
		return fmt.Errorf("associate %s %d with recipe %d: %w", kind, attributeID, recipeID, ErrNotFound)
	}
	if _, ok := s.attrs[kind][attributeID]; !ok {
		return fmt.Errorf("associate %s %d with recipe %d: %w", kind, attributeID, recipeID, ErrNotFound)
	}
	set, ok := s.links[kind][recipeID]
	if !ok {
		set = map[int64]struct{}{}
		s.links[kind][recipeID] = set
	}
	set[attributeID] = struct{}{}
	return nil
}

func (r memRecipes) ClearAssociations(ctx context.Context, kind models.Kind, recipeID int64) error {
	defer r.write()()
	delete(r.d.state.links[kind], recipeID)
	return nil
}

type memAttributes struct{ memConn }

func (r memAttributes) FindByOwnerAndName(ctx context.Context, kind models.Kind, owner int64, name string) (*models.Attribute, error) {
	defer r.read()()
	if a, ok := r.d.state.findAttr(kind, owner, name); ok {
		return &a, nil
	}
	return nil, ErrNotFound
}

func (s *memState) findAttr(kind models.Kind, owner int64, name string) (models.Attribute, bool) {
	for _, a := range s.attrs[kind] {
		if a.UserID == owner && a.Name == name {
			return a, true
		}
	}
	return models.Attribute{}, false
}

// Create converges on the existing row when (owner, name) is taken, the
// same way the postgres store's upsert does.
func (r memAttributes) Create(ctx context.Context, kind models.Kind, attr *models.Attribute) error {
	defer r.write()()
	s := r.d.state
	if existing, ok := s.findAttr(kind, attr.UserID, attr.Name); ok {
		attr.ID = existing.ID
		return nil
	}
	attr.ID = s.next(kind.Plural())
	s.attrs[kind][attr.ID] = *attr
	return nil
}

func (r memAttributes) Get(ctx context.Context, kind models.Kind, owner, id int64) (*models.Attribute, error) {
	defer r.read()()
	a, ok := r.d.state.attrs[kind][id]
	if !ok || a.UserID != owner {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r memAttributes) List(ctx context.Context, kind models.Kind, owner int64, filter models.AttributeFilter) ([]models.Attribute, error) {
	defer r.read()()
	s := r.d.state
	assigned := map[int64]bool{}
	if filter.AssignedOnly {
		for _, set := range s.links[kind] {
			for aid := range set {
				assigned[aid] = true
			}
		}
	}
	var out []models.Attribute
	for _, a := range s.attrs[kind] {
		if a.UserID != owner {
			continue
		}
		if filter.AssignedOnly && !assigned[a.ID] {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name > out[j].Name
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r memAttributes) Update(ctx context.Context, kind models.Kind, attr *models.Attribute) error {
	defer r.write()()
	s := r.d.state
	cur, ok := s.attrs[kind][attr.ID]
	if !ok || cur.UserID != attr.UserID {
		return ErrNotFound
	}
	if other, ok := s.findAttr(kind, attr.UserID, attr.Name); ok && other.ID != attr.ID {
		return fmt.Errorf("rename %s %d to %q: %w", kind, attr.ID, attr.Name, ErrConflict)
	}
	s.attrs[kind][attr.ID] = *attr
	return nil
}

func (r memAttributes) Delete(ctx context.Context, kind models.Kind, owner, id int64) error {
	defer r.write()()
	s := r.d.state
	a, ok := s.attrs[kind][id]
	if !ok || a.UserID != owner {
		return ErrNotFound
	}
	delete(s.attrs[kind], id)
	for _, set := range s.links[kind] {
		delete(set, id)
	}
	return nil
}
