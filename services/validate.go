package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"recipe_backend/apperrors"
	"recipe_backend/models"
)

const maxNameLength = 255

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNegative = "Ensure this value is greater than or equal to 0."
	msgNull     = "This field may not be null."
)

func msgTooLong(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// recipeFields is a validated, trimmed RecipePayload.
type recipeFields struct {
	payload     *models.RecipePayload
	title       *string
	link        *string
	description *string
	names       map[models.Kind][]string
}

// validateRecipe checks p. With partial unset, title, time_minutes and price
// are required.
func validateRecipe(p *models.RecipePayload, partial bool) (*recipeFields, error) {
	errs := apperrors.FieldErrors{}
	out := &recipeFields{payload: p, names: map[models.Kind][]string{}}

	nulls := rejectNulls(errs, p.Nulls)

	if !nulls["title"] {
		out.title = checkString(errs, "title", p.Title, !partial, false, maxNameLength)
	}
	if !nulls["link"] {
		out.link = checkString(errs, "link", p.Link, false, true, maxNameLength)
	}
	if !nulls["description"] {
		out.description = checkString(errs, "description", p.Description, false, true, 0)
	}

	switch {
	case nulls["time_minutes"]:
	case p.TimeMinutes == nil:
		if !partial {
			errs.Add("time_minutes", msgRequired)
		}
	case *p.TimeMinutes < 0:
		errs.Add("time_minutes", msgNegative)
	}

	if p.Price == nil && !partial && !nulls["price"] {
		errs.Add("price", msgRequired)
	}

	for _, kind := range models.Kinds {
		descriptors := p.Descriptors(kind)
		if descriptors == nil {
			continue
		}
		names := make([]string, 0, len(*descriptors))
		for i, name := range models.Names(*descriptors) {
			name = strings.TrimSpace(name)
			field := fmt.Sprintf("%s[%d].name", kind.Plural(), i)
			switch {
			case name == "":
				errs.Add(field, msgBlank)
			case utf8.RuneCountInString(name) > maxNameLength:
				errs.Add(field, msgTooLong(maxNameLength))
			}
			names = append(names, name)
		}
		out.names[kind] = names
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// validateName checks a tag or ingredient rename.
func validateName(p *models.AttributePayload, partial bool) (*string, error) {
	errs := apperrors.FieldErrors{}
	var name *string
	if !rejectNulls(errs, p.Nulls)["name"] {
		name = checkString(errs, "name", p.Name, !partial, false, maxNameLength)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return name, nil
}

// rejectNulls records an error for every field sent as null and returns
// them as a set.
func rejectNulls(errs apperrors.FieldErrors, fields []string) map[string]bool {
	set := make(map[string]bool, len(fields))
	for _, field := range fields {
		errs.Add(field, msgNull)
		set[field] = true
	}
	return set
}

// checkString trims v and records field errors. maxLen of zero means
// unbounded.
func checkString(errs apperrors.FieldErrors, field string, v *string, required, allowBlank bool, maxLen int) *string {
	if v == nil {
		if required {
			errs.Add(field, msgRequired)
		}
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" && !allowBlank {
		errs.Add(field, msgBlank)
		return nil
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		errs.Add(field, msgTooLong(maxLen))
		return nil
	}
	return &s
}
