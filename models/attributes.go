package models

import "github.com/uptrace/bun"

// Kind names one of the two many-to-many relations on a recipe.
type Kind string

const (
	KindTag        Kind = "tag"
	KindIngredient Kind = "ingredient"
)

// Kinds lists every association kind in reconciliation order.
var Kinds = []Kind{KindTag, KindIngredient}

func (k Kind) String() string {
	return string(k)
}

// Plural is the collection name used in URLs and table names.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Attribute is the shared shape of tags and ingredients. The backing table
// is chosen per Kind by the store.
type Attribute struct {
	bun.BaseModel `bun:"alias:a" json:"-"`

	ID     int64  `bun:"id,pk,autoincrement" json:"id"`
	UserID int64  `bun:"user_id,notnull" json:"-"`
	Name   string `bun:"name,notnull" json:"name"`
}

// AttributeFilter narrows a tag or ingredient listing.
type AttributeFilter struct {
	// AssignedOnly keeps attributes linked to at least one recipe.
	AssignedOnly bool
}
