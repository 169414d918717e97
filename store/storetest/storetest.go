// Package storetest holds behaviour tests every store.Store implementation
// must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe_backend/models"
	"recipe_backend/store"
)

// Run exercises s. Every case works on freshly created users so a shared
// database does not need to be emptied between runs.
func Run(t *testing.T, s store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Users", testUsers},
		{"RecipesScopedToOwner", testRecipesScopedToOwner},
		{"RecipeListFilters", testRecipeListFilters},
		{"RecipeImage", testRecipeImage},
		{"AttributeCreateConverges", testAttributeCreateConverges},
		{"AttributeListOrder", testAttributeListOrder},
		{"AttributeRenameConflict", testAttributeRenameConflict},
		{"Associations", testAssociations},
		{"DeleteCascades", testDeleteCascades},
		{"RunInTxRollsBack", testRunInTxRollsBack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.fn(t, s) })
	}
}

func newUser(t *testing.T, s store.Store) *models.User {
	t.Helper()
	u := &models.User{Email: uuid.NewString() + "@example.com", Token: uuid.NewString()}
	require.NoError(t, s.Users().Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func newRecipe(t *testing.T, s store.Store, owner int64, title string) *models.Recipe {
	t.Helper()
	r := &models.Recipe{UserID: owner, Title: title, TimeMinutes: 5, Price: models.MustParsePrice("3.10")}
	require.NoError(t, s.Recipes().Create(context.Background(), r))
	require.NotZero(t, r.ID)
	return r
}

func newAttr(t *testing.T, s store.Store, kind models.Kind, owner int64, name string) *models.Attribute {
	t.Helper()
	a := &models.Attribute{UserID: owner, Name: name}
	require.NoError(t, s.Attributes().Create(context.Background(), kind, a))
	require.NotZero(t, a.ID)
	return a
}

func ids(recipes []models.Recipe) []int64 {
	out := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ID)
	}
	return out
}

func names(attrs []models.Attribute) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a.Name)
	}
	return out
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)

	got, err := s.Users().GetByToken(ctx, u.Token)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = s.Users().GetByToken(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Users().Create(ctx, &models.User{Email: u.Email, Token: uuid.NewString()})
	assert.ErrorIs(t, err, store.ErrConflict)

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	assert.Contains(t, func() []string {
		var emails []string
		for _, x := range users {
			emails = append(emails, x.Email)
		}
		return emails
	}(), u.Email)
}

func testRecipesScopedToOwner(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := newUser(t, s), newUser(t, s)
	r := newRecipe(t, s, alice.ID, "Soup")

	got, err := s.Recipes().Get(ctx, alice.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title)
	assert.Equal(t, "3.10", got.Price.String())

	_, err = s.Recipes().Get(ctx, bob.ID, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	bobs := *got
	bobs.UserID = bob.ID
	bobs.Title = "Stolen"
	assert.ErrorIs(t, s.Recipes().Update(ctx, &bobs), store.ErrNotFound)
	assert.ErrorIs(t, s.Recipes().Delete(ctx, bob.ID, r.ID), store.ErrNotFound)

	got.Title = "Stew"
	got.Description = "Slow"
	require.NoError(t, s.Recipes().Update(ctx, got))
	again, err := s.Recipes().Get(ctx, alice.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stew", again.Title)
	assert.Equal(t, "Slow", again.Description)

	list, err := s.Recipes().List(ctx, bob.ID, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testRecipeImage(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := newUser(t, s), newUser(t, s)
	r := newRecipe(t, s, alice.ID, "Soup")

	previous, err := s.Recipes().SetImage(ctx, alice.ID, r.ID, "uploads/recipe/a.png")
	require.NoError(t, err)
	assert.Empty(t, previous)

	previous, err = s.Recipes().SetImage(ctx, alice.ID, r.ID, "uploads/recipe/b.png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/recipe/a.png", previous)

	_, err = s.Recipes().SetImage(ctx, bob.ID, r.ID, "uploads/recipe/c.png")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A stale copy written back keeps the stored image key.
	r.Title = "Stew"
	r.Image = "uploads/recipe/a.png"
	require.NoError(t, s.Recipes().Update(ctx, r))
	assert.Equal(t, "uploads/recipe/b.png", r.Image)

	got, err := s.Recipes().Get(ctx, alice.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stew", got.Title)
	assert.Equal(t, "uploads/recipe/b.png", got.Image)
}

func testRecipeListFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	r1 := newRecipe(t, s, u.ID, "One")
	r2 := newRecipe(t, s, u.ID, "Two")
	r3 := newRecipe(t, s, u.ID, "Three")

	vegan := newAttr(t, s, models.KindTag, u.ID, "Vegan")
	quick := newAttr(t, s, models.KindTag, u.ID, "Quick")
	tofu := newAttr(t, s, models.KindIngredient, u.ID, "tofu")

	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r1.ID, vegan.ID))
	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r1.ID, quick.ID))
	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r2.ID, quick.ID))
	require.NoError(t, s.Recipes().Associate(ctx, models.KindIngredient, r2.ID, tofu.ID))

	all, err := s.Recipes().List(ctx, u.ID, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{r3.ID, r2.ID, r1.ID}, ids(all))

	byTags, err := s.Recipes().List(ctx, u.ID, models.RecipeFilter{TagIDs: []int64{vegan.ID, quick.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{r2.ID, r1.ID}, ids(byTags), "each recipe once")

	both, err := s.Recipes().List(ctx, u.ID, models.RecipeFilter{TagIDs: []int64{quick.ID}, IngredientIDs: []int64{tofu.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{r2.ID}, ids(both))
}

func testAttributeCreateConverges(t *testing.T, s store.Store) {
	ctx := context.Background()
	u, other := newUser(t, s), newUser(t, s)

	first := newAttr(t, s, models.KindTag, u.ID, "Thai")
	second := newAttr(t, s, models.KindTag, u.ID, "Thai")
	assert.Equal(t, first.ID, second.ID)

	theirs := newAttr(t, s, models.KindTag, other.ID, "Thai")
	assert.NotEqual(t, first.ID, theirs.ID)

	ingredient := newAttr(t, s, models.KindIngredient, u.ID, "Thai")
	found, err := s.Attributes().FindByOwnerAndName(ctx, models.KindIngredient, u.ID, "Thai")
	require.NoError(t, err)
	assert.Equal(t, ingredient.ID, found.ID)

	_, err = s.Attributes().FindByOwnerAndName(ctx, models.KindTag, u.ID, "thai")
	assert.ErrorIs(t, err, store.ErrNotFound, "names are case sensitive")
}

func testAttributeListOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	for _, n := range []string{"Breakfast", "Lunch", "Dinner"} {
		newAttr(t, s, models.KindTag, u.ID, n)
	}
	r1 := newRecipe(t, s, u.ID, "A")
	r2 := newRecipe(t, s, u.ID, "B")
	lunch, err := s.Attributes().FindByOwnerAndName(ctx, models.KindTag, u.ID, "Lunch")
	require.NoError(t, err)
	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r1.ID, lunch.ID))
	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r2.ID, lunch.ID))

	all, err := s.Attributes().List(ctx, models.KindTag, u.ID, models.AttributeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lunch", "Dinner", "Breakfast"}, names(all))

	assigned, err := s.Attributes().List(ctx, models.KindTag, u.ID, models.AttributeFilter{AssignedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lunch"}, names(assigned))
}

func testAttributeRenameConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	u, other := newUser(t, s), newUser(t, s)
	a := newAttr(t, s, models.KindIngredient, u.ID, "salt")
	newAttr(t, s, models.KindIngredient, u.ID, "pepper")

	a.Name = "pepper"
	assert.ErrorIs(t, s.Attributes().Update(ctx, models.KindIngredient, a), store.ErrConflict)

	a.Name = "sea salt"
	require.NoError(t, s.Attributes().Update(ctx, models.KindIngredient, a))
	got, err := s.Attributes().Get(ctx, models.KindIngredient, u.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "sea salt", got.Name)

	_, err = s.Attributes().Get(ctx, models.KindIngredient, other.ID, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	foreign := *got
	foreign.UserID = other.ID
	assert.ErrorIs(t, s.Attributes().Update(ctx, models.KindIngredient, &foreign), store.ErrNotFound)
}

func testAssociations(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	r := newRecipe(t, s, u.ID, "Curry")
	a := newAttr(t, s, models.KindTag, u.ID, "Spicy")
	b := newAttr(t, s, models.KindTag, u.ID, "Hot")

	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r.ID, a.ID))
	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r.ID, a.ID))
	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r.ID, b.ID))

	linked, err := s.Recipes().Associations(ctx, models.KindTag, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Spicy", "Hot"}, names(linked))

	ingredients, err := s.Recipes().Associations(ctx, models.KindIngredient, r.ID)
	require.NoError(t, err)
	assert.Empty(t, ingredients)

	require.NoError(t, s.Recipes().ClearAssociations(ctx, models.KindTag, r.ID))
	linked, err = s.Recipes().Associations(ctx, models.KindTag, r.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	_, err = s.Attributes().Get(ctx, models.KindTag, u.ID, a.ID)
	assert.NoError(t, err, "clearing keeps the attribute")
}

func testDeleteCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	r1 := newRecipe(t, s, u.ID, "A")
	r2 := newRecipe(t, s, u.ID, "B")
	tag := newAttr(t, s, models.KindTag, u.ID, "Shared")
	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r1.ID, tag.ID))
	require.NoError(t, s.Recipes().Associate(ctx, models.KindTag, r2.ID, tag.ID))

	require.NoError(t, s.Recipes().Delete(ctx, u.ID, r1.ID))
	_, err := s.Attributes().Get(ctx, models.KindTag, u.ID, tag.ID)
	require.NoError(t, err)

	require.NoError(t, s.Attributes().Delete(ctx, models.KindTag, u.ID, tag.ID))
	linked, err := s.Recipes().Associations(ctx, models.KindTag, r2.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	assert.ErrorIs(t, s.Attributes().Delete(ctx, models.KindTag, u.ID, tag.ID), store.ErrNotFound)
}

func testRunInTxRollsBack(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		r := &models.Recipe{UserID: u.ID, Title: "Doomed", Price: models.MustParsePrice("1")}
		if err := tx.Recipes().Create(ctx, r); err != nil {
			return err
		}
		if err := tx.Attributes().Create(ctx, models.KindTag, &models.Attribute{UserID: u.ID, Name: "Doomed"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := s.Recipes().List(ctx, u.ID, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = s.Attributes().FindByOwnerAndName(ctx, models.KindTag, u.ID, "Doomed")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.RunInTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		return tx.Recipes().Create(ctx, &models.Recipe{UserID: u.ID, Title: "Kept", Price: models.MustParsePrice("1")})
	})
	require.NoError(t, err)
	list, err = s.Recipes().List(ctx, u.ID, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
