// Package postgres implements store.Store on PostgreSQL through bun.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"recipe_backend/models"
	"recipe_backend/store"
)

const defaultConnTimeout = 5 * time.Second

type Config struct {
	DSN          string
	PoolSize     int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DB is a store.Store backed by a bun database handle.
type DB struct {
	bunDB *bun.DB
	conn
}

// New opens the connection pool and verifies the server is reachable.
func New(ctx context.Context, cfg Config) (*DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithTimeout(defaultConnTimeout),
	))
	if cfg.PoolSize > 0 {
		sqldb.SetMaxOpenConns(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	bunDB.AddQueryHook(queryLogger{})

	if err := bunDB.PingContext(ctx); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{bunDB: bunDB, conn: conn{db: bunDB}}, nil
}

// RunInTx implements store.Store.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Repositories) error) error {
	return db.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, conn{db: tx})
	})
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.bunDB.Close()
}

// InitializeSchema creates all tables and indexes. It is safe to run on
// every start.
func (db *DB) InitializeSchema(ctx context.Context) error {
	// Create tables in the correct order to handle foreign key constraints
	if _, err := db.bunDB.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table users: %w", err)
	}

	if _, err := db.bunDB.NewCreateTable().
		Model((*models.Recipe)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table recipes: %w", err)
	}

	for _, kind := range models.Kinds {
		t := tablesFor(kind)
		if _, err := db.bunDB.NewCreateTable().
			Model((*models.Attribute)(nil)).
			ModelTableExpr("?", bun.Ident(t.table)).
			IfNotExists().
			ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.table, err)
		}

		if _, err := db.bunDB.NewCreateTable().
			Model(t.joinModel()).
			IfNotExists().
			ForeignKey(`("recipe_id") REFERENCES "recipes" ("id") ON DELETE CASCADE`).
			ForeignKey(`(?) REFERENCES ? ("id") ON DELETE CASCADE`, bun.Ident(t.joinColumn), bun.Ident(t.table)).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.joinTable, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_recipes_user_id ON recipes(user_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_user_name ON tags(user_id, name);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ingredients_user_name ON ingredients(user_id, name);",
		"CREATE INDEX IF NOT EXISTS idx_recipe_tags_tag_id ON recipe_tags(tag_id);",
		"CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_ingredient_id ON recipe_ingredients(ingredient_id);",
	}
	for _, idx := range indexes {
		if _, err := db.bunDB.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	slog.Info("Database schema initialized", slog.String("type", "db"))
	return nil
}

// queryLogger logs every statement at debug level and failures at error.
type queryLogger struct{}

func (queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (queryLogger) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	took := time.Since(event.StartTime)
	if event.Err != nil && event.Err != sql.ErrNoRows {
		slog.ErrorContext(ctx, "Query failed",
			slog.String("type", "db"),
			slog.String("operation", event.Operation()),
			slog.String("query", event.Query),
			slog.Duration("took", took),
			slog.Any("error", event.Err),
		)
		return
	}
	slog.DebugContext(ctx, "Query executed",
		slog.String("type", "db"),
		slog.String("operation", event.Operation()),
		slog.String("query", event.Query),
		slog.Duration("took", took),
	)
}
