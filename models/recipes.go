package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Recipe is owned by exactly one user. Tags and Ingredients are loaded
// separately from the join tables and are never written through this struct.
type Recipe struct {
	bun.BaseModel `bun:"table:recipes,alias:r"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	Title       string    `bun:"title,notnull"`
	TimeMinutes int       `bun:"time_minutes,notnull"`
	Price       Price     `bun:"price,type:numeric(5,2),notnull"`
	Link        string    `bun:"link,notnull,default:''"`
	Description string    `bun:"description,notnull,default:''"`
	Image       string    `bun:"image,notnull,default:''"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Tags        []Attribute `bun:"-"`
	Ingredients []Attribute `bun:"-"`
}

// Associations returns the loaded association set of the given kind.
func (r *Recipe) Associations(kind Kind) []Attribute {
	if kind == KindIngredient {
		return r.Ingredients
	}
	return r.Tags
}

// SetAssociations replaces the loaded association set of the given kind.
func (r *Recipe) SetAssociations(kind Kind, attrs []Attribute) {
	if kind == KindIngredient {
		r.Ingredients = attrs
		return
	}
	r.Tags = attrs
}

// RecipeTag is a row of the recipe <-> tag join table.
type RecipeTag struct {
	bun.BaseModel `bun:"table:recipe_tags"`

	RecipeID int64 `bun:"recipe_id,pk"`
	TagID    int64 `bun:"tag_id,pk"`
}

// RecipeIngredient is a row of the recipe <-> ingredient join table.
type RecipeIngredient struct {
	bun.BaseModel `bun:"table:recipe_ingredients"`

	RecipeID     int64 `bun:"recipe_id,pk"`
	IngredientID int64 `bun:"ingredient_id,pk"`
}

// RecipeFilter narrows a recipe listing. A recipe matches when it carries any
// of TagIDs (if set) and any of IngredientIDs (if set).
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}
