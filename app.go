package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"recipe_backend/auth"
	"recipe_backend/config"
	"recipe_backend/handlers"
	"recipe_backend/images"
	"recipe_backend/logger"
	"recipe_backend/models"
	"recipe_backend/services"
	"recipe_backend/store"
	"recipe_backend/store/postgres"
)

// app owns every long-lived dependency built from the config.
type app struct {
	cfg       *config.Config
	store     store.Store
	pg        *postgres.DB
	firestore *auth.FirestoreDirectory
	closers   []func() error
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.New("recipes", cfg.Log.Format, cfg.Log.Level))

	a := &app{cfg: cfg}
	switch cfg.DB.Driver {
	case "postgres":
		db, err := postgres.New(ctx, postgres.Config{
			DSN:          cfg.DB.DSN,
			PoolSize:     cfg.DB.PoolSize,
			MaxIdleConns: cfg.DB.MaxIdleConns,
			MaxLifetime:  cfg.DB.MaxLifetime.Duration,
		})
		if err != nil {
			return nil, err
		}
		a.pg, a.store = db, db
	default:
		slog.Warn("using in-memory storage; data is lost on exit", "type", "db")
		a.store = store.NewMemory()
	}
	a.closers = append(a.closers, a.store.Close)

	if cfg.Auth.Backend == "firestore" {
		client, err := firestore.NewClient(ctx, cfg.Auth.FirestoreProject)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.firestore = auth.NewFirestoreDirectory(client, cfg.Auth.FirestoreCollection)
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

// Migrate creates the schema. The memory store needs none.
func (a *app) Migrate(ctx context.Context) error {
	if a.pg == nil {
		return nil
	}
	return a.pg.InitializeSchema(ctx)
}

// AddUser creates a user with a fresh token and, with the firestore auth
// backend, publishes it there too.
func (a *app) AddUser(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{Email: email, Token: newToken()}
	if err := a.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("user %s already exists", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if a.firestore != nil {
		if err := a.firestore.Put(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Users lists the users whose tokens are accepted: the firestore
// collection with that auth backend, the users table otherwise.
func (a *app) Users(ctx context.Context) ([]models.User, error) {
	if a.firestore != nil {
		return a.firestore.List(ctx)
	}
	users, err := a.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func newToken() string {
	return uuid.New().String() + uuid.New().String()
}

func (a *app) directory() (auth.Directory, error) {
	var dir auth.Directory = auth.NewStoreDirectory(a.store.Users())
	if a.firestore != nil {
		dir = a.firestore
	}
	return auth.NewCachedDirectory(dir, a.cfg.Auth.CacheSize)
}

func (a *app) imageStorage(ctx context.Context) (images.Storage, error) {
	c := a.cfg.Images
	if c.Backend == "s3" {
		return images.NewS3Storage(ctx, images.S3Config{
			Key:       c.S3.Key,
			Secret:    c.S3.Secret,
			Region:    c.S3.Region,
			Bucket:    c.S3.Bucket,
			Endpoint:  c.S3.Endpoint,
			Prefix:    c.S3.Prefix,
			PublicURL: c.S3.PublicURL,
		})
	}
	return images.NewLocalStorage(c.LocalDir, c.BaseURL)
}

// Handler builds the HTTP handler with every route and middleware.
func (a *app) Handler(ctx context.Context) (http.Handler, error) {
	dir, err := a.directory()
	if err != nil {
		return nil, err
	}
	img, err := a.imageStorage(ctx)
	if err != nil {
		return nil, err
	}

	deps := handlers.Deps{
		Recipes: services.NewRecipes(a.store, img, images.Limits{
			MaxDimension: a.cfg.Images.MaxDimension,
			MaxPixels:    a.cfg.Images.MaxPixels,
		}),
		Tags:           services.NewAttributes(a.store, models.KindTag),
		Ingredients:    services.NewAttributes(a.store, models.KindIngredient),
		DB:             a.store,
		Directory:      dir,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		MaxUploadBytes: a.cfg.HTTP.MaxUploadBytes,
	}
	if a.cfg.HTTP.RateLimit > 0 {
		deps.Limiter = rate.NewLimiter(rate.Limit(a.cfg.HTTP.RateLimit), a.cfg.HTTP.RateBurst)
	}
	if a.cfg.Images.Backend == "local" {
		deps.MediaDir, deps.MediaURL = a.cfg.Images.LocalDir, a.cfg.Images.BaseURL
	}
	return handlers.NewRouter(deps), nil
}

// Serve runs the API until ctx is cancelled, then drains in-flight requests.
func (a *app) Serve(ctx context.Context) error {
	if err := a.Migrate(ctx); err != nil {
		return err
	}
	handler, err := a.Handler(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           handler,
		ReadTimeout:       a.cfg.HTTP.ReadTimeout.Duration,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.cfg.HTTP.WriteTimeout.Duration,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		slog.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}
