package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"recipe_backend/apperrors"
	"recipe_backend/auth"
	"recipe_backend/middleware"
	"recipe_backend/models"
	"recipe_backend/services"
)

func GetRecipes(svc *services.Recipes, w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	filter, err := parseRecipeFilter(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	recipes, err := svc.List(r.Context(), user.ID, filter)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	resp := make([]models.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		resp = append(resp, models.NewRecipeResponse(&recipes[i]))
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

func GetRecipe(svc *services.Recipes, w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := pathID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	recipe, err := svc.Get(r.Context(), user.ID, id)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, models.NewRecipeDetailResponse(recipe, svc.ImageURL(recipe)))
}

func CreateRecipe(svc *services.Recipes, w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var payload models.RecipePayload
	if err := decodeJSON(r, &payload); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	recipe, err := svc.Create(r.Context(), user.ID, &payload)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, models.NewRecipeDetailResponse(recipe, svc.ImageURL(recipe)))
}

// UpdateRecipe serves PUT and PATCH. PATCH leaves absent fields alone.
func UpdateRecipe(svc *services.Recipes, w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := pathID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var payload models.RecipePayload
	if err := decodeJSON(r, &payload); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	recipe, err := svc.Update(r.Context(), user.ID, id, &payload, r.Method == http.MethodPatch)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, models.NewRecipeDetailResponse(recipe, svc.ImageURL(recipe)))
}

func DeleteRecipe(svc *services.Recipes, w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := pathID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := svc.Delete(r.Context(), user.ID, id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func currentUser(r *http.Request) *models.User {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// routes below /api are always behind Authenticate
		panic("handlers: request reached an authenticated route without a user")
	}
	return user
}

var errNotFound = apperrors.New(apperrors.ErrCodeNotFound, "Not found.")

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errNotFound
	}
	return id, nil
}

// parseRecipeFilter reads the comma separated "tags" and "ingredients"
// id lists.
func parseRecipeFilter(r *http.Request) (models.RecipeFilter, error) {
	var filter models.RecipeFilter
	errs := apperrors.FieldErrors{}

	q := r.URL.Query()
	for param, dst := range map[string]*[]int64{
		"tags":        &filter.TagIDs,
		"ingredients": &filter.IngredientIDs,
	} {
		ids, err := parseIDs(q.Get(param))
		if err != nil {
			errs.Add(param, err.Error())
			continue
		}
		*dst = ids
	}
	return filter, errs.Err()
}

func parseIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid id.", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// decodeJSON reads the request body into v. Price errors are reported
// against the price field.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	if models.IsPriceError(err) {
		fe := apperrors.FieldErrors{}
		fe.Add("price", sentence(err.Error()))
		return fe.Err()
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		fe := apperrors.FieldErrors{}
		fe.Add(typeErr.Field, fmt.Sprintf("Expected %s but got %s.", typeErr.Type, typeErr.Value))
		return fe.Err()
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.Wrap(apperrors.ErrCodeRequestTooLarge, "Request body too large.", err)
	}
	if errors.Is(err, io.EOF) {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "Request body is empty.", err)
	}
	return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "JSON parse error - "+err.Error(), err)
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
