package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe_backend/models"
	"recipe_backend/store"
)

func newRecipe(t *testing.T, s store.Store, user int64) *models.Recipe {
	t.Helper()
	r := &models.Recipe{UserID: user, Title: "Sample", TimeMinutes: 10, Price: models.MustParsePrice("5.00")}
	require.NoError(t, s.Recipes().Create(context.Background(), r))
	return r
}

func names(attrs []models.Attribute) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a.Name)
	}
	return out
}

func TestReconcileStore_ReplaceKeepsOrphans(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	recipe := newRecipe(t, s, owner)
	rec := New(s.Attributes(), s.Recipes())

	_, err := rec.Reconcile(ctx, recipe, owner, models.KindTag, []string{"Breakfast"}, false)
	require.NoError(t, err)

	_, err = rec.Reconcile(ctx, recipe, owner, models.KindTag, []string{"Lunch"}, true)
	require.NoError(t, err)

	linked, err := s.Recipes().Associations(ctx, models.KindTag, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lunch"}, names(linked))

	orphan, err := s.Attributes().FindByOwnerAndName(ctx, models.KindTag, owner, "Breakfast")
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", orphan.Name)
}

func TestReconcileStore_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	recipe := newRecipe(t, s, owner)
	rec := New(s.Attributes(), s.Recipes())
	submitted := []string{"salt", "pepper", "salt"}

	first, err := rec.Reconcile(ctx, recipe, owner, models.KindIngredient, submitted, true)
	require.NoError(t, err)
	second, err := rec.Reconcile(ctx, recipe, owner, models.KindIngredient, submitted, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	all, err := s.Attributes().List(ctx, models.KindIngredient, owner, models.AttributeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "get-or-create must not duplicate (owner, name)")

	linked, err := s.Recipes().Associations(ctx, models.KindIngredient, recipe.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"salt", "pepper"}, names(linked))
}

func TestReconcileStore_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	other := int64(2)

	theirs := &models.Attribute{UserID: other, Name: "Vegan"}
	require.NoError(t, s.Attributes().Create(ctx, models.KindTag, theirs))

	recipe := newRecipe(t, s, owner)
	got, err := New(s.Attributes(), s.Recipes()).Reconcile(ctx, recipe, owner, models.KindTag, []string{"Vegan"}, false)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.NotEqual(t, theirs.ID, got[0].ID)
	assert.Equal(t, owner, got[0].UserID)
}
