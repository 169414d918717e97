package handlers

import (
	"net/http"
	"strconv"

	"recipe_backend/apperrors"
	"recipe_backend/middleware"
	"recipe_backend/models"
	"recipe_backend/services"
)

// GetAttributes lists the user's tags or ingredients. assigned_only=1
// keeps the ones used by at least one recipe.
func GetAttributes(svc *services.Attributes, w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	assignedOnly := false
	if v := r.URL.Query().Get("assigned_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fe := apperrors.FieldErrors{}
			fe.Add("assigned_only", "Must be 0 or 1.")
			middleware.WriteError(w, r, fe.Err())
			return
		}
		assignedOnly = b
	}

	attrs, err := svc.List(r.Context(), user.ID, assignedOnly)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if attrs == nil {
		attrs = []models.Attribute{}
	}
	middleware.WriteJSON(w, http.StatusOK, attrs)
}

// UpdateAttribute renames a tag or ingredient (PUT or PATCH).
func UpdateAttribute(svc *services.Attributes, w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, err := pathID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var payload models.AttributePayload
	if err := decodeJSON(r, &payload); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	attr, err := svc.Update(r.Context(), user.ID, id, &payload, r.Method == http.MethodPatch)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, attr)
}

func DeleteAttribute(svc *services.Attributes, w http.ResponseWriter, r *http.Request) {
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
