package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe_backend/apperrors"
	"recipe_backend/images"
	"recipe_backend/models"
	"recipe_backend/store"
)

const (
	alice = int64(1)
	bob   = int64(2)
)

func ptr[T any](v T) *T { return &v }

func tags(names ...string) *[]models.NameDescriptor {
	out := make([]models.NameDescriptor, 0, len(names))
	for _, n := range names {
		out = append(out, models.NameDescriptor{Name: n})
	}
	return &out
}

func attrNames(attrs []models.Attribute) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a.Name)
	}
	return out
}

func samplePayload() *models.RecipePayload {
	return &models.RecipePayload{
		Title:       ptr("Pad Thai"),
		TimeMinutes: ptr(25),
		Price:       ptr(models.MustParsePrice("7.50")),
	}
}

func newTestServices(t *testing.T) (*store.Memory, *Recipes, *images.LocalStorage) {
	t.Helper()
	s := store.NewMemory()
	img, err := images.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)
	return s, NewRecipes(s, img, images.Limits{MaxDimension: 64, MaxPixels: 1 << 20}), img
}

func TestRecipes_CreateWithAssociations(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newTestServices(t)

	p := samplePayload()
	p.Tags = tags("Thai", "Dinner")
	p.Ingredients = tags("rice", "rice")

	recipe, err := svc.Create(ctx, alice, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Thai", "Dinner"}, attrNames(recipe.Tags))
	assert.Equal(t, []string{"rice"}, attrNames(recipe.Ingredients))

	got, err := svc.Get(ctx, alice, recipe.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Thai", "Dinner"}, attrNames(got.Tags))
	assert.Equal(t, []string{"rice"}, attrNames(got.Ingredients))
}

func TestRecipes_CreateValidation(t *testing.T) {
	_, svc, _ := newTestServices(t)

	p := &models.RecipePayload{Title: ptr("   "), TimeMinutes: ptr(-1), Tags: tags("")}
	_, err := svc.Create(context.Background(), alice, p)
	require.Error(t, err)

	var se *apperrors.StructuredError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, se.Code)
	assert.Equal(t, []string{msgBlank}, se.Context["title"])
	assert.Equal(t, []string{msgNegative}, se.Context["time_minutes"])
	assert.Equal(t, []string{msgRequired}, se.Context["price"])
	assert.Equal(t, []string{msgBlank}, se.Context["tags[0].name"])
}

func TestRecipes_UpdateRejectsNulls(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newTestServices(t)

	recipe, err := svc.Create(ctx, alice, samplePayload())
	require.NoError(t, err)

	for _, partial := range []bool{true, false} {
		p := &models.RecipePayload{TimeMinutes: ptr(5), Nulls: []string{"title", "price"}}
		_, err = svc.Update(ctx, alice, recipe.ID, p, partial)

		var se *apperrors.StructuredError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, []string{msgNull}, se.Context["title"])
		assert.Equal(t, []string{msgNull}, se.Context["price"])
		assert.NotContains(t, se.Context, "time_minutes")
	}

	got, err := svc.Get(ctx, alice, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai", got.Title)
	assert.Equal(t, "7.50", got.Price.String())

	attrs := NewAttributes(svc.store, models.KindTag)
	tag := &models.Attribute{UserID: alice, Name: "Thai"}
	require.NoError(t, svc.store.Attributes().Create(ctx, models.KindTag, tag))
	_, err = attrs.Update(ctx, alice, tag.ID, &models.AttributePayload{Nulls: []string{"name"}}, true)
	require.ErrorAs(t, err, new(*apperrors.StructuredError))
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
}

func TestRecipes_UpdateReplacesSets(t *testing.T) {
	ctx := context.Background()
	s, svc, _ := newTestServices(t)

	p := samplePayload()
	p.Tags = tags("Breakfast")
	p.Ingredients = tags("eggs")
	recipe, err := svc.Create(ctx, alice, p)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice, recipe.ID, &models.RecipePayload{Tags: tags("Lunch")}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lunch"}, attrNames(updated.Tags))
	assert.Equal(t, []string{"eggs"}, attrNames(updated.Ingredients), "absent key leaves the set alone")
	assert.Equal(t, "Pad Thai", updated.Title)

	_, err = s.Attributes().FindByOwnerAndName(ctx, models.KindTag, alice, "Breakfast")
	assert.NoError(t, err, "unlinked tags are kept")

	cleared, err := svc.Update(ctx, alice, recipe.ID, &models.RecipePayload{Tags: tags()}, true)
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)

	got, err := svc.Get(ctx, alice, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
	assert.Equal(t, []string{"eggs"}, attrNames(got.Ingredients))
}

func TestRecipes_FullUpdate(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newTestServices(t)

	recipe, err := svc.Create(ctx, alice, samplePayload())
	require.NoError(t, err)

	_, err = svc.Update(ctx, alice, recipe.ID, &models.RecipePayload{Title: ptr("Only title")}, false)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))

	full := samplePayload()
	full.Title = ptr("  Green Curry ")
	full.Link = ptr("https://example.com/curry")
	updated, err := svc.Update(ctx, alice, recipe.ID, full, false)
	require.NoError(t, err)
	assert.Equal(t, "Green Curry", updated.Title)
	assert.Equal(t, "https://example.com/curry", updated.Link)
}

func TestRecipes_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newTestServices(t)

	recipe, err := svc.Create(ctx, alice, samplePayload())
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, recipe.ID)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	_, err = svc.Update(ctx, bob, recipe.ID, &models.RecipePayload{Title: ptr("x")}, true)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(svc.Delete(ctx, bob, recipe.ID)))

	list, err := svc.List(ctx, bob, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecipes_ListFilters(t *testing.T) {
	ctx := context.Background()
	s, svc, _ := newTestServices(t)

	p1 := samplePayload()
	p1.Tags = tags("Vegan")
	r1, err := svc.Create(ctx, alice, p1)
	require.NoError(t, err)

	p2 := samplePayload()
	p2.Ingredients = tags("tofu")
	r2, err := svc.Create(ctx, alice, p2)
	require.NoError(t, err)

	_, err = svc.Create(ctx, alice, samplePayload())
	require.NoError(t, err)

	vegan, err := s.Attributes().FindByOwnerAndName(ctx, models.KindTag, alice, "Vegan")
	require.NoError(t, err)
	tofu, err := s.Attributes().FindByOwnerAndName(ctx, models.KindIngredient, alice, "tofu")
	require.NoError(t, err)

	all, err := svc.List(ctx, alice, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byTag, err := svc.List(ctx, alice, models.RecipeFilter{TagIDs: []int64{vegan.ID}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, r1.ID, byTag[0].ID)
	assert.Equal(t, []string{"Vegan"}, attrNames(byTag[0].Tags))

	byIngredient, err := svc.List(ctx, alice, models.RecipeFilter{IngredientIDs: []int64{tofu.ID}})
	require.NoError(t, err)
	require.Len(t, byIngredient, 1)
	assert.Equal(t, r2.ID, byIngredient[0].ID)
}

func TestRecipes_DeleteKeepsAttributes(t *testing.T) {
	ctx := context.Background()
	s, svc, _ := newTestServices(t)

	p := samplePayload()
	p.Tags = tags("Dessert")
	recipe, err := svc.Create(ctx, alice, p)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, recipe.ID))
	_, err = svc.Get(ctx, alice, recipe.ID)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))

	_, err = s.Attributes().FindByOwnerAndName(ctx, models.KindTag, alice, "Dessert")
	assert.NoError(t, err)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestRecipes_UploadImage(t *testing.T) {
	ctx := context.Background()
	_, svc, img := newTestServices(t)

	recipe, err := svc.Create(ctx, alice, samplePayload())
	require.NoError(t, err)

	first, err := svc.UploadImage(ctx, alice, recipe.ID, bytes.NewReader(pngBytes(t, 200, 100)))
	require.NoError(t, err)
	assert.Regexp(t, `^uploads/recipe/.+\.png$`, first.Image)
	assert.Equal(t, "/media/"+first.Image, svc.ImageURL(first))
	assert.FileExists(t, img.Dir()+"/"+first.Image)
	firstKey := first.Image

	second, err := svc.UploadImage(ctx, alice, recipe.ID, bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, second.Image)
	assert.NoFileExists(t, img.Dir()+"/"+firstKey, "replaced image is removed")

	got, err := svc.Get(ctx, alice, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Image, got.Image)
}

// putHook runs hook before delegating each Put.
type putHook struct {
	images.Storage
	hook func()
}

func (p putHook) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	p.hook()
	return p.Storage.Put(ctx, key, contentType, body)
}

func TestRecipes_UploadImageKeepsConcurrentEdit(t *testing.T) {
	ctx := context.Background()
	s, _, img := newTestServices(t)

	var svc *Recipes
	var recipe *models.Recipe
	storage := putHook{Storage: img, hook: func() {
		_, err := svc.Update(ctx, alice, recipe.ID, &models.RecipePayload{Title: ptr("Renamed")}, true)
		require.NoError(t, err)
	}}
	svc = NewRecipes(s, storage, images.Limits{MaxDimension: 64})

	recipe, err := svc.Create(ctx, alice, samplePayload())
	require.NoError(t, err)

	uploaded, err := svc.UploadImage(ctx, alice, recipe.ID, bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)

	got, err := svc.Get(ctx, alice, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, uploaded.Image, got.Image)
}

func TestRecipes_UploadImageOverPixelBudget(t *testing.T) {
	ctx := context.Background()
	s, _, img := newTestServices(t)
	svc := NewRecipes(s, img, images.Limits{MaxDimension: 64, MaxPixels: 99})

	recipe, err := svc.Create(ctx, alice, samplePayload())
	require.NoError(t, err)

	_, err = svc.UploadImage(ctx, alice, recipe.ID, bytes.NewReader(pngBytes(t, 10, 10)))
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))

	got, err := svc.Get(ctx, alice, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
}

func TestRecipes_UploadInvalidImage(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newTestServices(t)

	recipe, err := svc.Create(ctx, alice, samplePayload())
	require.NoError(t, err)

	_, err = svc.UploadImage(ctx, alice, recipe.ID, strings.NewReader("notanimage"))
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))

	_, err = svc.UploadImage(ctx, bob, recipe.ID, bytes.NewReader(pngBytes(t, 10, 10)))
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))

	assert.Empty(t, svc.ImageURL(recipe))
}

func TestAttributes_ListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s, recipes, _ := newTestServices(t)
	svc := NewAttributes(s, models.KindTag)

	p := samplePayload()
	p.Tags = tags("Breakfast")
	_, err := recipes.Create(ctx, alice, p)
	require.NoError(t, err)
	require.NoError(t, s.Attributes().Create(ctx, models.KindTag, &models.Attribute{UserID: alice, Name: "Unused"}))
	require.NoError(t, s.Attributes().Create(ctx, models.KindTag, &models.Attribute{UserID: bob, Name: "Bobs"}))

	all, err := svc.List(ctx, alice, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Unused", "Breakfast"}, attrNames(all))

	assigned, err := svc.List(ctx, alice, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Breakfast"}, attrNames(assigned))

	unused := all[0]
	renamed, err := svc.Update(ctx, alice, unused.ID, &models.AttributePayload{Name: ptr("Brunch")}, false)
	require.NoError(t, err)
	assert.Equal(t, "Brunch", renamed.Name)

	_, err = svc.Update(ctx, alice, unused.ID, &models.AttributePayload{Name: ptr("Breakfast")}, false)
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.CodeOf(err))

	_, err = svc.Update(ctx, alice, unused.ID, &models.AttributePayload{}, false)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))

	same, err := svc.Update(ctx, alice, unused.ID, &models.AttributePayload{}, true)
	require.NoError(t, err)
	assert.Equal(t, "Brunch", same.Name)

	_, err = svc.Update(ctx, bob, unused.ID, &models.AttributePayload{Name: ptr("x")}, true)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))

	require.NoError(t, svc.Delete(ctx, alice, unused.ID))
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(svc.Delete(ctx, alice, unused.ID)))
}
