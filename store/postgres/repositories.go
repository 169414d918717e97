package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"recipe_backend/models"
	"recipe_backend/store"
)

const uniqueViolation = "23505"

// conn binds the repositories to either the pool or a transaction.
type conn struct {
	db bun.IDB
}

func (c conn) Users() store.UserRepository           { return userRepository{c.db} }
func (c conn) Recipes() store.RecipeRepository       { return recipeRepository{c.db} }
func (c conn) Attributes() store.AttributeRepository { return attributeRepository{c.db} }

// kindTables names the tables behind one association kind.
type kindTables struct {
	kind       models.Kind
	table      string
	joinTable  string
	joinColumn string
}

func tablesFor(kind models.Kind) kindTables {
	if kind == models.KindIngredient {
		return kindTables{kind, "ingredients", "recipe_ingredients", "ingredient_id"}
	}
	return kindTables{kind, "tags", "recipe_tags", "tag_id"}
}

func (t kindTables) joinModel() any {
	if t.kind == models.KindIngredient {
		return (*models.RecipeIngredient)(nil)
	}
	return (*models.RecipeTag)(nil)
}

func (t kindTables) joinRow(recipeID, attributeID int64) any {
	if t.kind == models.KindIngredient {
		return &models.RecipeIngredient{RecipeID: recipeID, IngredientID: attributeID}
	}
	return &models.RecipeTag{RecipeID: recipeID, TagID: attributeID}
}

// handleError maps driver errors onto the store sentinels.
func handleError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, store.ErrNotFound)
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
		return fmt.Errorf("%s: %w: %v", operation, store.ErrConflict, pgErr)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func requireAffected(operation string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return handleError(operation, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", operation, store.ErrNotFound)
	}
	return nil
}

type userRepository struct {
	db bun.IDB
}

func (r userRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NewInsert().
		Model(user).
		Returning("id").
		Exec(ctx)
	return handleError("create user", err)
}

func (r userRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("u.token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, handleError("get user by token", err)
	}
	return user, nil
}

func (r userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.NewSelect().
		Model(&users).
		Order("u.id ASC").
		Scan(ctx)
	return users, handleError("list users", err)
}

type recipeRepository struct {
	db bun.IDB
}

func (r recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	now := time.Now().UTC()
	recipe.CreatedAt, recipe.UpdatedAt = now, now
	_, err := r.db.NewInsert().
		Model(recipe).
		Returning("id").
		Exec(ctx)
	return handleError("create recipe", err)
}

func (r recipeRepository) Get(ctx context.Context, owner, id int64) (*models.Recipe, error) {
	recipe := new(models.Recipe)
	err := r.db.NewSelect().
		Model(recipe).
		Where("r.id = ? AND r.user_id = ?", id, owner).
		Scan(ctx)
	if err != nil {
		return nil, handleError(fmt.Sprintf("get recipe %d", id), err)
	}
	return recipe, nil
}

func (r recipeRepository) List(ctx context.Context, owner int64, filter models.RecipeFilter) ([]models.Recipe, error) {
	var recipes []models.Recipe
	q := r.db.NewSelect().
		Model(&recipes).
		Where("r.user_id = ?", owner).
		Order("r.id DESC")

	if len(filter.TagIDs) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM recipe_tags AS rt WHERE rt.recipe_id = r.id AND rt.tag_id IN (?))",
			bun.In(filter.TagIDs))
	}
	if len(filter.IngredientIDs) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM recipe_ingredients AS ri WHERE ri.recipe_id = r.id AND ri.ingredient_id IN (?))",
			bun.In(filter.IngredientIDs))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, handleError("list recipes", err)
	}
	return recipes, nil
}

func (r recipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	recipe.UpdatedAt = time.Now().UTC()
	res, err := r.db.NewUpdate().
		Model(recipe).
		Column("title", "time_minutes", "price", "link", "description", "updated_at").
		Where("r.id = ? AND r.user_id = ?", recipe.ID, recipe.UserID).
		Returning("image").
		Exec(ctx)
	if err != nil {
		return handleError(fmt.Sprintf("update recipe %d", recipe.ID), err)
	}
	return requireAffected(fmt.Sprintf("update recipe %d", recipe.ID), res)
}

func (r recipeRepository) SetImage(ctx context.Context, owner, id int64, key string) (string, error) {
	var previous string
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		recipe := new(models.Recipe)
		err := tx.NewSelect().
			Model(recipe).
			Column("id", "image").
			Where("r.id = ? AND r.user_id = ?", id, owner).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return err
		}
		previous = recipe.Image

		_, err = tx.NewUpdate().
			Model((*models.Recipe)(nil)).
			Set("image = ?", key).
			Set("updated_at = ?", time.Now().UTC()).
			Where("r.id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return "", handleError(fmt.Sprintf("set image of recipe %d", id), err)
	}
	return previous, nil
}

func (r recipeRepository) Delete(ctx context.Context, owner, id int64) error {
	res, err := r.db.NewDelete().
		Model((*models.Recipe)(nil)).
		Where("r.id = ? AND r.user_id = ?", id, owner).
		Exec(ctx)
	if err != nil {
		return handleError(fmt.Sprintf("delete recipe %d", id), err)
	}
	return requireAffected(fmt.Sprintf("delete recipe %d", id), res)
}

func (r recipeRepository) Associations(ctx context.Context, kind models.Kind, recipeID int64) ([]models.Attribute, error) {
	t := tablesFor(kind)
	attrs := []models.Attribute{}
	err := r.db.NewSelect().
		Model(&attrs).
		ModelTableExpr("? AS a", bun.Ident(t.table)).
		Join("JOIN ? AS j ON j.? = a.id", bun.Ident(t.joinTable), bun.Ident(t.joinColumn)).
		Where("j.recipe_id = ?", recipeID).
		Order("a.id ASC").
		Scan(ctx)
	return attrs, handleError(fmt.Sprintf("load %s of recipe %d", t.table, recipeID), err)
}

func (r recipeRepository) Associate(ctx context.Context, kind models.Kind, recipeID, attributeID int64) error {
	t := tablesFor(kind)
	_, err := r.db.NewInsert().
		Model(t.joinRow(recipeID, attributeID)).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return handleError(fmt.Sprintf("link %s %d to recipe %d", kind, attributeID, recipeID), err)
}

func (r recipeRepository) ClearAssociations(ctx context.Context, kind models.Kind, recipeID int64) error {
	t := tablesFor(kind)
	_, err := r.db.NewDelete().
		Model(t.joinModel()).
		Where("recipe_id = ?", recipeID).
		Exec(ctx)
	return handleError(fmt.Sprintf("clear %s of recipe %d", t.table, recipeID), err)
}

type attributeRepository struct {
	db bun.IDB
}

func (r attributeRepository) FindByOwnerAndName(ctx context.Context, kind models.Kind, owner int64, name string) (*models.Attribute, error) {
	t := tablesFor(kind)
	attr := new(models.Attribute)
	err := r.db.NewSelect().
		Model(attr).
		ModelTableExpr("? AS a", bun.Ident(t.table)).
		Where("a.user_id = ? AND a.name = ?", owner, name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, handleError(fmt.Sprintf("find %s %q", kind, name), err)
	}
	return attr, nil
}

// Create upserts on (user_id, name) so two concurrent get-or-create calls
// for the same name both end up holding the one row.
func (r attributeRepository) Create(ctx context.Context, kind models.Kind, attr *models.Attribute) error {
	t := tablesFor(kind)
	_, err := r.db.NewInsert().
		Model(attr).
		ModelTableExpr("? AS a", bun.Ident(t.table)).
		On("CONFLICT (user_id, name) DO UPDATE").
		Set("name = EXCLUDED.name").
		Returning("id").
		Exec(ctx)
	return handleError(fmt.Sprintf("create %s %q", kind, attr.Name), err)
}

func (r attributeRepository) Get(ctx context.Context, kind models.Kind, owner, id int64) (*models.Attribute, error) {
	t := tablesFor(kind)
	attr := new(models.Attribute)
	err := r.db.NewSelect().
		Model(attr).
		ModelTableExpr("? AS a", bun.Ident(t.table)).
		Where("a.id = ? AND a.user_id = ?", id, owner).
		Scan(ctx)
	if err != nil {
		return nil, handleError(fmt.Sprintf("get %s %d", kind, id), err)
	}
	return attr, nil
}

func (r attributeRepository) List(ctx context.Context, kind models.Kind, owner int64, filter models.AttributeFilter) ([]models.Attribute, error) {
	t := tablesFor(kind)
	attrs := []models.Attribute{}
	q := r.db.NewSelect().
		Model(&attrs).
		ModelTableExpr("? AS a", bun.Ident(t.table)).
		Where("a.user_id = ?", owner).
		Order("a.name DESC", "a.id DESC")

	if filter.AssignedOnly {
		q = q.Where("EXISTS (SELECT 1 FROM ? AS j WHERE j.? = a.id)", bun.Ident(t.joinTable), bun.Ident(t.joinColumn))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, handleError(fmt.Sprintf("list %s", t.table), err)
	}
	return attrs, nil
}

func (r attributeRepository) Update(ctx context.Context, kind models.Kind, attr *models.Attribute) error {
	t := tablesFor(kind)
	res, err := r.db.NewUpdate().
		Model(attr).
		ModelTableExpr("? AS a", bun.Ident(t.table)).
		Column("name").
		Where("a.id = ? AND a.user_id = ?", attr.ID, attr.UserID).
		Exec(ctx)
	if err != nil {
		return handleError(fmt.Sprintf("update %s %d", kind, attr.ID), err)
	}
	return requireAffected(fmt.Sprintf("update %s %d", kind, attr.ID), res)
}

func (r attributeRepository) Delete(ctx context.Context, kind models.Kind, owner, id int64) error {
	t := tablesFor(kind)
	res, err := r.db.NewDelete().
		Model((*models.Attribute)(nil)).
		ModelTableExpr("? AS a", bun.Ident(t.table)).
		Where("a.id = ? AND a.user_id = ?", id, owner).
		Exec(ctx)
	if err != nil {
		return handleError(fmt.Sprintf("delete %s %d", kind, id), err)
	}
	return requireAffected(fmt.Sprintf("delete %s %d", kind, id), res)
}
