package models

import (
	"bytes"
	"encoding/json"
)

// NameDescriptor is a nested tag or ingredient submitted with a recipe.
type NameDescriptor struct {
	Name string `json:"name"`
}

// RecipePayload is the request body of recipe create and update calls.
// A nil field was absent from the request. For Tags and Ingredients this
// distinguishes "leave the associations alone" (nil) from "clear them" (empty).
type RecipePayload struct {
	Title       *string           `json:"title"`
	TimeMinutes *int              `json:"time_minutes"`
	Price       *Price            `json:"price"`
	Link        *string           `json:"link"`
	Description *string           `json:"description"`
	Tags        *[]NameDescriptor `json:"tags"`
	Ingredients *[]NameDescriptor `json:"ingredients"`

	// Nulls lists the scalar keys sent as an explicit JSON null.
	Nulls []string `json:"-"`
}

func (p *RecipePayload) UnmarshalJSON(data []byte) error {
	type plain RecipePayload
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	nulls, err := nullKeys(data, "title", "time_minutes", "price", "link", "description")
	p.Nulls = nulls
	return err
}

// Descriptors returns the submitted descriptors for kind, or nil when the
// key was not part of the request.
func (p *RecipePayload) Descriptors(kind Kind) *[]NameDescriptor {
	if kind == KindIngredient {
		return p.Ingredients
	}
	return p.Tags
}

// AttributePayload is the request body of tag and ingredient updates.
type AttributePayload struct {
	Name *string `json:"name"`

	// Nulls is ["name"] when name was sent as null.
	Nulls []string `json:"-"`
}

func (p *AttributePayload) UnmarshalJSON(data []byte) error {
	type plain AttributePayload
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	nulls, err := nullKeys(data, "name")
	p.Nulls = nulls
	return err
}

// nullKeys returns which of keys hold a JSON null in the object data.
func nullKeys(data []byte, keys ...string) ([]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var nulls []string
	for _, key := range keys {
		if v, ok := raw[key]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			nulls = append(nulls, key)
		}
	}
	return nulls, nil
}

// Names flattens descriptors to their names.
func Names(descriptors []NameDescriptor) []string {
	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		names = append(names, d.Name)
	}
	return names
}
