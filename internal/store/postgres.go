package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/eleven-am/larder/internal/logger"
	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/orm"
	"github.com/jmoiron/sqlx"
)

var (
	userMeta       = mustMeta(orm.MetadataFor[models.User]("users", "id")).WithGeneratedKey("id")
	foodItemMeta   = mustMeta(orm.MetadataFor[models.FoodItem]("food_items", "id")).WithGeneratedKey("id")
	collectionMeta = mustMeta(orm.MetadataFor[models.FoodCollection]("food_collections", "id")).WithGeneratedKey("id")
	ingredientMeta = mustMeta(orm.MetadataFor[models.Ingredient]("ingredients", "food_collection_id", "food_item_id"))
	mealMeta       = mustMeta(orm.MetadataFor[models.Meal]("meals", "id")).WithGeneratedKey("id")
)

var (
	colID               = orm.Column[int64]{Name: "id"}
	colName             = orm.StringColumn{Column: orm.Column[string]{Name: "name"}}
	colUsername         = orm.StringColumn{Column: orm.Column[string]{Name: "username"}}
	colBarcode          = orm.StringColumn{Column: orm.Column[string]{Name: "barcode"}}
	colCreatorID        = orm.Column[int64]{Name: "creator_id"}
	colCreatedAt        = orm.Column[models.Date]{Name: "created_at"}
	colIsShared         = orm.BoolColumn{Column: orm.Column[bool]{Name: "is_shared"}}
	colFoodCollectionID = orm.Column[int64]{Name: "food_collection_id"}
	colFoodItemID       = orm.Column[int64]{Name: "food_item_id"}
)

func mustMeta(meta *orm.ModelMetadata, err error) *orm.ModelMetadata {
	if err != nil {
		panic(err)
	}
	return meta
}

// Postgres is the Store backed by a PostgreSQL database
type Postgres struct {
	storm *orm.Storm
	log   logger.Logger
}

// NewPostgres wraps an open connection. Every statement is logged at debug
// level through the ORM middleware.
func NewPostgres(db *sqlx.DB) *Postgres {
	storm := orm.NewStorm(db)
	storm.Use(orm.LoggingMiddleware(logger.DB()))
	return &Postgres{storm: storm, log: logger.DB()}
}

// View runs fn in a read-only transaction
func (p *Postgres) View(ctx context.Context, fn func(Tx) error) error {
	return p.run(ctx, orm.ReadOnlyTransactionOptions(), fn)
}

// WithTransaction runs fn in a read-write transaction, re-running it after
// serialization failures and deadlocks. fn must not leak state out of a
// failed attempt.
func (p *Postgres) WithTransaction(ctx context.Context, fn func(Tx) error) error {
	return p.run(ctx, orm.DefaultTransactionOptions(), fn)
}

// maxAttempts bounds how often a transaction is re-run after a retryable
// failure such as a serialization conflict
const maxAttempts = 3

func (p *Postgres) run(ctx context.Context, opts *orm.TransactionOptions, fn func(Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = p.storm.WithTransactionOptions(ctx, opts, func(tx *orm.Storm) error {
			ptx, err := newPgTx(tx)
			if err != nil {
				return err
			}
			return fn(ptx)
		})
		if !orm.IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		p.log.Warn("retrying transaction", "attempt", attempt, "error", err)
	}
	return err
}

// Ping checks the connection
func (p *Postgres) Ping(ctx context.Context) error {
	return p.storm.GetDB().PingContext(ctx)
}

// Close closes the underlying pool
func (p *Postgres) Close() error {
	return p.storm.GetDB().Close()
}

type pgTx struct {
	users       *orm.Repository[models.User]
	foodItems   *orm.Repository[models.FoodItem]
	collections *orm.Repository[models.FoodCollection]
	ingredients *orm.Repository[models.Ingredient]
	meals       *orm.Repository[models.Meal]
}

func newPgTx(s *orm.Storm) (*pgTx, error) {
	var (
		tx  pgTx
		err error
	)
	if tx.users, err = orm.RepositoryFor[models.User](s, userMeta); err != nil {
		return nil, err
	}
	if tx.foodItems, err = orm.RepositoryFor[models.FoodItem](s, foodItemMeta); err != nil {
		return nil, err
	}
	if tx.collections, err = orm.RepositoryFor[models.FoodCollection](s, collectionMeta); err != nil {
		return nil, err
	}
	if tx.ingredients, err = orm.RepositoryFor[models.Ingredient](s, ingredientMeta); err != nil {
		return nil, err
	}
	if tx.meals, err = orm.RepositoryFor[models.Meal](s, mealMeta); err != nil {
		return nil, err
	}
	return &tx, nil
}

// translate maps ORM errors onto the store sentinels. A foreign key failure
// on delete means the row is still referenced; on insert or update it means
// the referenced row is missing.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var ormErr *orm.Error
	isDelete := errors.As(err, &ormErr) && ormErr.Op == string(orm.OpDelete)

	switch {
	case errors.Is(err, orm.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, orm.ErrForeignKey) && isDelete:
		return fmt.Errorf("%w: %w", ErrReferenced, err)
	case errors.Is(err, orm.ErrForeignKey):
		return fmt.Errorf("%w: %w", ErrMissingReference, err)
	case errors.Is(err, orm.ErrDuplicateKey):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case orm.IsConstraintError(err):
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return err
}

func first[T any](record *T, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, translate(err)
	}
	return *record, nil
}

// GetUser and the other single-row lookups return ErrNotFound for a
// missing id
func (t *pgTx) GetUser(ctx context.Context, id int64) (models.User, error) {
	return first(t.users.FindByID(ctx, id))
}

func (t *pgTx) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return first(t.users.Query(ctx).Where(colUsername.Eq(username)).First())
}

func (t *pgTx) CreateUser(ctx context.Context, user *models.User) error {
	return translate(t.users.Create(ctx, user))
}

func (t *pgTx) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(t.users.Update(ctx, user))
}

func (t *pgTx) ListUsers(ctx context.Context, page Page) ([]models.User, error) {
	page = page.Normalize()
	users, err := t.users.Query(ctx).
		OrderBy(colID.Asc()).
		Offset(page.Offset).
		Limit(page.Limit).
		Find()
	return users, translate(err)
}

func (t *pgTx) GetFoodItem(ctx context.Context, id int64) (models.FoodItem, error) {
	return first(t.foodItems.FindByID(ctx, id))
}

// GetFoodItems loads every id in one query. Unknown ids are absent from the
// map.
func (t *pgTx) GetFoodItems(ctx context.Context, ids []int64) (map[int64]models.FoodItem, error) {
	found := make(map[int64]models.FoodItem, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	items, err := t.foodItems.Query(ctx).Where(colID.In(ids...)).Find()
	if err != nil {
		return nil, translate(err)
	}
	for _, item := range items {
		found[item.ID] = item
	}
	return found, nil
}

func (t *pgTx) CreateFoodItem(ctx context.Context, item *models.FoodItem) error {
	return translate(t.foodItems.Create(ctx, item))
}

func (t *pgTx) UpdateFoodItem(ctx context.Context, item *models.FoodItem) error {
	return translate(t.foodItems.Update(ctx, item))
}

func (t *pgTx) DeleteFoodItem(ctx context.Context, id int64) error {
	return translate(t.foodItems.Delete(ctx, id))
}

// ListFoodItems orders by id and matches the name filter case-insensitively
func (t *pgTx) ListFoodItems(ctx context.Context, filter FoodItemFilter) ([]models.FoodItem, error) {
	page := filter.Page.Normalize()
	q := t.foodItems.Query(ctx)
	if filter.Name != "" {
		q = q.Where(colName.Contains(filter.Name))
	}
	if filter.Barcode != "" {
		q = q.Where(colBarcode.Contains(filter.Barcode))
	}
	items, err := q.OrderBy(colID.Asc()).Offset(page.Offset).Limit(page.Limit).Find()
	return items, translate(err)
}

func (t *pgTx) GetCollection(ctx context.Context, id int64) (models.FoodCollection, error) {
	c, err := first(t.collections.FindByID(ctx, id))
	if err != nil {
		return c, err
	}
	c.Ingredients = []models.Ingredient{}
	return c, nil
}

func (t *pgTx) CreateCollection(ctx context.Context, c *models.FoodCollection) error {
	return translate(t.collections.Create(ctx, c))
}

func (t *pgTx) UpdateCollection(ctx context.Context, c *models.FoodCollection) error {
	return translate(t.collections.Update(ctx, c))
}

// DeleteCollection relies on the schema to cascade to ingredients and meals
func (t *pgTx) DeleteCollection(ctx context.Context, id int64) error {
	return translate(t.collections.Delete(ctx, id))
}

// ListCollections returns collections without their ingredients
func (t *pgTx) ListCollections(ctx context.Context, filter CollectionFilter) ([]models.FoodCollection, error) {
	page := filter.Page.Normalize()
	q := t.collections.Query(ctx)
	if filter.Name != "" {
		q = q.Where(colName.Contains(filter.Name))
	}
	collections, err := q.OrderBy(colID.Asc()).Offset(page.Offset).Limit(page.Limit).Find()
	if err != nil {
		return nil, translate(err)
	}
	for i := range collections {
		collections[i].Ingredients = []models.Ingredient{}
	}
	return collections, nil
}

// ListIngredients loads the ingredients of all given collections at once
func (t *pgTx) ListIngredients(ctx context.Context, collectionIDs ...int64) ([]models.Ingredient, error) {
	if len(collectionIDs) == 0 {
		return []models.Ingredient{}, nil
	}
	ingredients, err := t.ingredients.Query(ctx).
		Where(colFoodCollectionID.In(collectionIDs...)).
		OrderBy(colFoodCollectionID.Asc(), colFoodItemID.Asc()).
		Find()
	return ingredients, translate(err)
}

// ReplaceIngredients deletes the current set and inserts the new one in a
// single statement
func (t *pgTx) ReplaceIngredients(ctx context.Context, collectionID int64, ingredients []models.Ingredient) error {
	if _, err := t.ingredients.Query(ctx).Where(colFoodCollectionID.Eq(collectionID)).Delete(); err != nil {
		return translate(err)
	}

	rows := make([]models.Ingredient, len(ingredients))
	for i, in := range ingredients {
		rows[i] = models.Ingredient{
			FoodCollectionID: collectionID,
			FoodItemID:       in.FoodItemID,
			Amount:           in.Amount,
		}
	}
	return translate(t.ingredients.CreateMany(ctx, rows))
}

func (t *pgTx) GetMeal(ctx context.Context, id int64) (models.Meal, error) {
	return first(t.meals.FindByID(ctx, id))
}

func (t *pgTx) CreateMeal(ctx context.Context, meal *models.Meal) error {
	return translate(t.meals.Create(ctx, meal))
}

func (t *pgTx) UpdateMeal(ctx context.Context, meal *models.Meal) error {
	return translate(t.meals.Update(ctx, meal))
}

func (t *pgTx) DeleteMeal(ctx context.Context, id int64) error {
	return translate(t.meals.Delete(ctx, id))
}

// ListMeals applies every filter field that is set, ordered by id
func (t *pgTx) ListMeals(ctx context.Context, filter MealFilter) ([]models.Meal, error) {
	q := t.meals.Query(ctx)
	if filter.CreatorID != nil {
		q = q.Where(colCreatorID.Eq(*filter.CreatorID))
	}
	if filter.Date != nil {
		q = q.Where(colCreatedAt.Eq(*filter.Date))
	}
	if filter.IDs != nil {
		q = q.Where(colID.In(filter.IDs...))
	}
	if filter.SharedOnly {
		q = q.Where(colIsShared.IsTrue())
	}
	meals, err := q.OrderBy(colID.Asc()).Find()
	return meals, translate(err)
}
