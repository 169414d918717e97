package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"recipe_backend/auth"
	"recipe_backend/middleware"
	"recipe_backend/services"
)

// Deps is everything the router serves.
type Deps struct {
	Recipes     *services.Recipes
	Tags        *services.Attributes
	Ingredients *services.Attributes
	DB          Pinger
	Directory   auth.Directory

	// Limiter is optional; nil disables rate limiting.
	Limiter        *rate.Limiter
	AllowedOrigins []string
	MaxUploadBytes int64

	// MediaDir is served below MediaURL when both are set and MediaURL is
	// a path.
	MediaDir string
	MediaURL string
}

// NewRouter returns the fully wrapped HTTP handler.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		Health(d.DB, w, r)
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	if d.MediaDir != "" && strings.HasPrefix(d.MediaURL, "/") {
		prefix := strings.TrimRight(d.MediaURL, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(d.MediaDir)))).Methods("GET")
	}

	api := r.PathPrefix("/api/recipe").Subrouter()
	api.Use(middleware.Authenticate(d.Directory))

	api.HandleFunc("/recipes", func(w http.ResponseWriter, r *http.Request) {
		GetRecipes(d.Recipes, w, r)
	}).Methods("GET")

	api.HandleFunc("/recipes", func(w http.ResponseWriter, r *http.Request) {
		CreateRecipe(d.Recipes, w, r)
	}).Methods("POST")

	api.HandleFunc("/recipes/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		GetRecipe(d.Recipes, w, r)
	}).Methods("GET")

	api.HandleFunc("/recipes/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		UpdateRecipe(d.Recipes, w, r)
	}).Methods("PUT", "PATCH")

	api.HandleFunc("/recipes/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		DeleteRecipe(d.Recipes, w, r)
	}).Methods("DELETE")

	api.HandleFunc("/recipes/{id:[0-9]+}/upload-image", func(w http.ResponseWriter, r *http.Request) {
		UploadRecipeImage(d.Recipes, d.MaxUploadBytes, w, r)
	}).Methods("POST")

	for _, svc := range []*services.Attributes{d.Tags, d.Ingredients} {
		collection := "/" + svc.Kind().Plural()

		api.HandleFunc(collection, func(w http.ResponseWriter, r *http.Request) {
			GetAttributes(svc, w, r)
		}).Methods("GET")

		api.HandleFunc(collection+"/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
			UpdateAttribute(svc, w, r)
		}).Methods("PUT", "PATCH")

		api.HandleFunc(collection+"/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
			DeleteAttribute(svc, w, r)
		}).Methods("DELETE")
	}

	mws := []middleware.Middleware{
		middleware.WithRequestID,
		middleware.Recover,
		middleware.Metrics(r),
	}
	if d.Limiter != nil {
		mws = append(mws, middleware.RateLimit(d.Limiter))
	}
	mws = append(mws, middleware.Logging, middleware.CORS(d.AllowedOrigins))

	return middleware.Chain(r, mws...)
}
