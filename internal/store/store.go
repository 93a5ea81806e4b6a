// Package store persists larder entities. Callers work inside a transaction
// scope obtained from a Store; every write made through the Tx commits or
// rolls back together.
package store

import (
	"context"
	"errors"

	"github.com/eleven-am/larder/internal/models"
)

var (
	// ErrNotFound means the addressed row does not exist
	ErrNotFound = errors.New("store: not found")
	// ErrReferenced means a delete was refused because other rows point at
	// the target
	ErrReferenced = errors.New("store: still referenced")
	// ErrMissingReference means a write pointed at a row that does not exist
	ErrMissingReference = errors.New("store: referenced row does not exist")
	// ErrDuplicate means a unique constraint was violated
	ErrDuplicate = errors.New("store: duplicate")
	// ErrConstraint means a check constraint rejected the row
	ErrConstraint = errors.New("store: constraint violated")
)

// MaxLimit caps every list query
const MaxLimit = 100

// Page selects a window of a list. A zero Limit means MaxLimit.
type Page struct {
	Offset uint64
	Limit  uint64
}

// Normalize clamps the limit into (0, MaxLimit]
func (p Page) Normalize() Page {
	if p.Limit == 0 || p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// FoodItemFilter matches food items whose name and barcode contain the given
// substrings, case-insensitively. Empty strings match everything.
type FoodItemFilter struct {
	Name    string
	Barcode string
	Page
}

// CollectionFilter matches collections by name substring
type CollectionFilter struct {
	Name string
	Page
}

// MealFilter selects meals. Set fields are combined with AND.
type MealFilter struct {
	CreatorID  *int64
	Date       *models.Date
	IDs        []int64
	SharedOnly bool
}

// Tx is the typed view of the entity store inside one transaction
type Tx interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, page Page) ([]models.User, error)

	GetFoodItem(ctx context.Context, id int64) (models.FoodItem, error)
	// GetFoodItems returns the items that exist among ids, keyed by id
	GetFoodItems(ctx context.Context, ids []int64) (map[int64]models.FoodItem, error)
	CreateFoodItem(ctx context.Context, item *models.FoodItem) error
	UpdateFoodItem(ctx context.Context, item *models.FoodItem) error
	DeleteFoodItem(ctx context.Context, id int64) error
	ListFoodItems(ctx context.Context, filter FoodItemFilter) ([]models.FoodItem, error)

	// GetCollection loads a collection without its ingredients
	GetCollection(ctx context.Context, id int64) (models.FoodCollection, error)
	CreateCollection(ctx context.Context, c *models.FoodCollection) error
	UpdateCollection(ctx context.Context, c *models.FoodCollection) error
	DeleteCollection(ctx context.Context, id int64) error
	ListCollections(ctx context.Context, filter CollectionFilter) ([]models.FoodCollection, error)

	// ListIngredients returns the ingredients of the given collections
	// ordered by collection then food item
	ListIngredients(ctx context.Context, collectionIDs ...int64) ([]models.Ingredient, error)
	// ReplaceIngredients swaps the whole ingredient set of a collection
	ReplaceIngredients(ctx context.Context, collectionID int64, ingredients []models.Ingredient) error

	GetMeal(ctx context.Context, id int64) (models.Meal, error)
	CreateMeal(ctx context.Context, meal *models.Meal) error
	UpdateMeal(ctx context.Context, meal *models.Meal) error
	DeleteMeal(ctx context.Context, id int64) error
	ListMeals(ctx context.Context, filter MealFilter) ([]models.Meal, error)
}

// Store hands out transaction scopes
type Store interface {
	// View runs fn in a read-only scope
	View(ctx context.Context, fn func(Tx) error) error
	// WithTransaction runs fn in a read-write scope. An error from fn or a
	// panic rolls every write back.
	WithTransaction(ctx context.Context, fn func(Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
