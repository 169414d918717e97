package services

import (
	"errors"
	"fmt"

	"recipe_backend/apperrors"
	"recipe_backend/store"
)

// storeError maps repository errors onto API error codes. what names the
// resource, e.g. "recipe".
func storeError(err error, what string, id int64) error {
	if err == nil {
		return nil
	}
	var se *apperrors.StructuredError
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.WrapWithContext(apperrors.ErrCodeNotFound, "Not found.", err,
			map[string]any{"resource": what, "id": id})
	case errors.Is(err, store.ErrConflict):
		return apperrors.Wrap(apperrors.ErrCodeConflict,
			fmt.Sprintf("a %s with this name already exists", what), err)
	}
	return apperrors.Wrap(apperrors.ErrCodeInternal, fmt.Sprintf("failed to access %s", what), err)
}
