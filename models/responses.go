package models

import "time"

// RecipeResponse is the list representation of a recipe.
type RecipeResponse struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	TimeMinutes int         `json:"time_minutes"`
	Price       Price       `json:"price"`
	Link        string      `json:"link"`
	Tags        []Attribute `json:"tags"`
	Ingredients []Attribute `json:"ingredients"`
}

// RecipeDetailResponse adds the fields only shown on a single recipe.
type RecipeDetailResponse struct {
	RecipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// RecipeImageResponse is returned by the image upload endpoint.
type RecipeImageResponse struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// NewRecipeResponse builds the list view. Nil association sets are rendered
// as empty JSON arrays.
func NewRecipeResponse(r *Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}
	// Ensure slices are not nil
	if resp.Tags == nil {
		resp.Tags = []Attribute{}
	}
	if resp.Ingredients == nil {
		resp.Ingredients = []Attribute{}
	}
	return resp
}

// NewRecipeDetailResponse builds the detail view. imageURL is empty when the
// recipe has no image.
func NewRecipeDetailResponse(r *Recipe, imageURL string) RecipeDetailResponse {
	resp := RecipeDetailResponse{
		RecipeResponse: NewRecipeResponse(r),
		Description:    r.Description,
	}
	if imageURL != "" {
		resp.Image = &imageURL
	}
	return resp
}
