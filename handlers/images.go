package handlers

import (
	"errors"
	"net/http"

	"recipe_backend/apperrors"
	"recipe_backend/middleware"
	"recipe_backend/models"
	"recipe_backend/services"
)

// UploadRecipeImage stores the multipart "image" field as the recipe's
// photo. Bodies over maxBytes are rejected.
func UploadRecipeImage(svc *services.Recipes, maxBytes int64, w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := pathID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	file, _, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			middleware.WriteError(w, r, apperrors.Wrap(apperrors.ErrCodeRequestTooLarge, "Request body too large.", err))
		case errors.Is(err, http.ErrMissingFile):
			fe := apperrors.FieldErrors{}
			fe.Add("image", "No file was submitted.")
			middleware.WriteError(w, r, fe.Err())
		default:
			middleware.WriteError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "Multipart form parse error.", err))
		}
		return
	}
	defer file.Close()

	recipe, err := svc.UploadImage(r.Context(), user.ID, id, file)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, models.RecipeImageResponse{ID: recipe.ID, Image: svc.ImageURL(recipe)})
}
