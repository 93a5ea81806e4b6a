package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eleven-am/larder/internal/models"
)

// ErrReadOnly is returned by writes attempted inside View
var ErrReadOnly = errors.New("store: write in read-only scope")

type memoryState struct {
	lastID      map[string]int64
	users       map[int64]models.User
	foodItems   map[int64]models.FoodItem
	collections map[int64]models.FoodCollection
	ingredients map[int64]map[int64]models.Ingredient
	meals       map[int64]models.Meal
}

func newMemoryState() *memoryState {
	return &memoryState{
		lastID:      map[string]int64{},
		users:       map[int64]models.User{},
		foodItems:   map[int64]models.FoodItem{},
		collections: map[int64]models.FoodCollection{},
		ingredients: map[int64]map[int64]models.Ingredient{},
		meals:       map[int64]models.Meal{},
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.lastID {
		c.lastID[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.foodItems {
		c.foodItems[k] = cloneFoodItem(v)
	}
	for k, v := range s.collections {
		c.collections[k] = cloneCollection(v)
	}
	for k, set := range s.ingredients {
		inner := make(map[int64]models.Ingredient, len(set))
		for item, in := range set {
			inner[item] = cloneIngredient(in)
		}
		c.ingredients[k] = inner
	}
	for k, v := range s.meals {
		c.meals[k] = cloneMeal(v)
	}
	return c
}

func (s *memoryState) nextID(table string) int64 {
	s.lastID[table]++
	return s.lastID[table]
}

// Memory is an in-process Store. Transactions are serialized; each one
// works on a private copy that replaces the shared state only on commit.
type Memory struct {
	mu    sync.Mutex
	state *memoryState
}

// NewMemory returns an empty store
func NewMemory() *Memory {
	return &Memory{state: newMemoryState()}
}

// View runs fn against the committed state. Writes fail with ErrReadOnly.
func (m *Memory) View(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{state: m.state, readOnly: true})
}

// WithTransaction runs fn on a copy of the state and publishes the copy
// only if fn succeeds and ctx is still live
func (m *Memory) WithTransaction(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := m.state.clone()
	if err := fn(&memTx{state: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	m.state = working
	return nil
}

// Ping only reports a cancelled context
func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op
func (m *Memory) Close() error { return nil }

type memTx struct {
	state    *memoryState
	readOnly bool
}

func (t *memTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func notFound(entity string, id interface{}) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, id)
}

func (t *memTx) requireUser(id int64) error {
	if _, ok := t.state.users[id]; !ok {
		return fmt.Errorf("%w: user %d", ErrMissingReference, id)
	}
	return nil
}

func (t *memTx) GetUser(_ context.Context, id int64) (models.User, error) {
	u, ok := t.state.users[id]
	if !ok {
		return models.User{}, notFound("user", id)
	}
	return u, nil
}

func (t *memTx) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range t.state.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, notFound("user", username)
}

func (t *memTx) usernameTaken(username string, except int64) bool {
	for _, u := range t.state.users {
		if u.ID != except && u.Username == username {
			return true
		}
	}
	return false
}

func (t *memTx) CreateUser(_ context.Context, user *models.User) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.usernameTaken(user.Username, 0) {
		return fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
	}
	user.ID = t.state.nextID("users")
	t.state.users[user.ID] = *user
	return nil
}

func (t *memTx) UpdateUser(_ context.Context, user *models.User) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.users[user.ID]; !ok {
		return notFound("user", user.ID)
	}
	if t.usernameTaken(user.Username, user.ID) {
		return fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
	}
	t.state.users[user.ID] = *user
	return nil
}

func (t *memTx) ListUsers(_ context.Context, page Page) ([]models.User, error) {
	users := sortedValues(t.state.users)
	return paginate(users, page), nil
}

func (t *memTx) GetFoodItem(_ context.Context, id int64) (models.FoodItem, error) {
	item, ok := t.state.foodItems[id]
	if !ok {
		return models.FoodItem{}, notFound("food item", id)
	}
	return cloneFoodItem(item), nil
}

// GetFoodItems skips ids that do not exist
func (t *memTx) GetFoodItems(_ context.Context, ids []int64) (map[int64]models.FoodItem, error) {
	found := make(map[int64]models.FoodItem, len(ids))
	for _, id := range ids {
		if item, ok := t.state.foodItems[id]; ok {
			found[id] = cloneFoodItem(item)
		}
	}
	return found, nil
}

func (t *memTx) CreateFoodItem(_ context.Context, item *models.FoodItem) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := t.requireUser(item.CreatorID); err != nil {
		return err
	}
	item.ID = t.state.nextID("food_items")
	t.state.foodItems[item.ID] = cloneFoodItem(*item)
	return nil
}

func (t *memTx) UpdateFoodItem(_ context.Context, item *models.FoodItem) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.foodItems[item.ID]; !ok {
		return notFound("food item", item.ID)
	}
	t.state.foodItems[item.ID] = cloneFoodItem(*item)
	return nil
}

// DeleteFoodItem refuses while an ingredient or a meal references the item
func (t *memTx) DeleteFoodItem(_ context.Context, id int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.foodItems[id]; !ok {
		return notFound("food item", id)
	}
	for collectionID, set := range t.state.ingredients {
		if _, ok := set[id]; ok {
			return fmt.Errorf("%w: food item %d is an ingredient of collection %d", ErrReferenced, id, collectionID)
		}
	}
	for _, meal := range t.state.meals {
		if meal.FoodItemID != nil && *meal.FoodItemID == id {
			return fmt.Errorf("%w: food item %d is used by meal %d", ErrReferenced, id, meal.ID)
		}
	}
	delete(t.state.foodItems, id)
	return nil
}

func (t *memTx) ListFoodItems(_ context.Context, filter FoodItemFilter) ([]models.FoodItem, error) {
	var items []models.FoodItem
	for _, item := range sortedValues(t.state.foodItems) {
		if !containsFold(item.Name, filter.Name) {
			continue
		}
		if filter.Barcode != "" && (item.Barcode == nil || !containsFold(*item.Barcode, filter.Barcode)) {
			continue
		}
		items = append(items, cloneFoodItem(item))
	}
	return paginate(items, filter.Page), nil
}

func (t *memTx) GetCollection(_ context.Context, id int64) (models.FoodCollection, error) {
	c, ok := t.state.collections[id]
	if !ok {
		return models.FoodCollection{}, notFound("food collection", id)
	}
	return cloneCollection(c), nil
}

func (t *memTx) CreateCollection(_ context.Context, c *models.FoodCollection) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := t.requireUser(c.CreatorID); err != nil {
		return err
	}
	c.ID = t.state.nextID("food_collections")
	t.state.collections[c.ID] = cloneCollection(*c)
	return nil
}

func (t *memTx) UpdateCollection(_ context.Context, c *models.FoodCollection) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.collections[c.ID]; !ok {
		return notFound("food collection", c.ID)
	}
	t.state.collections[c.ID] = cloneCollection(*c)
	return nil
}

// DeleteCollection cascades to the collection's ingredients and meals
func (t *memTx) DeleteCollection(_ context.Context, id int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.collections[id]; !ok {
		return notFound("food collection", id)
	}
	delete(t.state.collections, id)
	delete(t.state.ingredients, id)
	for mealID, meal := range t.state.meals {
		if meal.FoodCollectionID != nil && *meal.FoodCollectionID == id {
			delete(t.state.meals, mealID)
		}
	}
	return nil
}

func (t *memTx) ListCollections(_ context.Context, filter CollectionFilter) ([]models.FoodCollection, error) {
	var collections []models.FoodCollection
	for _, c := range sortedValues(t.state.collections) {
		if containsFold(c.Name, filter.Name) {
			collections = append(collections, cloneCollection(c))
		}
	}
	return paginate(collections, filter.Page), nil
}

// ListIngredients orders by collection id, then food item id, as Postgres
// does
func (t *memTx) ListIngredients(_ context.Context, collectionIDs ...int64) ([]models.Ingredient, error) {
	ids := append([]int64(nil), collectionIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ingredients := []models.Ingredient{}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		set := t.state.ingredients[id]
		itemIDs := make([]int64, 0, len(set))
		for itemID := range set {
			itemIDs = append(itemIDs, itemID)
		}
		sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })
		for _, itemID := range itemIDs {
			ingredients = append(ingredients, cloneIngredient(set[itemID]))
		}
	}
	return ingredients, nil
}

// ReplaceIngredients drops the collection's current set before storing the
// new one
func (t *memTx) ReplaceIngredients(_ context.Context, collectionID int64, ingredients []models.Ingredient) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.collections[collectionID]; !ok {
		return fmt.Errorf("%w: food collection %d", ErrMissingReference, collectionID)
	}

	set := make(map[int64]models.Ingredient, len(ingredients))
	for _, in := range ingredients {
		if _, ok := t.state.foodItems[in.FoodItemID]; !ok {
			return fmt.Errorf("%w: food item %d", ErrMissingReference, in.FoodItemID)
		}
		if _, dup := set[in.FoodItemID]; dup {
			return fmt.Errorf("%w: ingredient (%d, %d)", ErrDuplicate, collectionID, in.FoodItemID)
		}
		set[in.FoodItemID] = models.Ingredient{
			FoodCollectionID: collectionID,
			FoodItemID:       in.FoodItemID,
			Amount:           in.Amount,
		}
	}
	t.state.ingredients[collectionID] = set
	return nil
}

func (t *memTx) GetMeal(_ context.Context, id int64) (models.Meal, error) {
	meal, ok := t.state.meals[id]
	if !ok {
		return models.Meal{}, notFound("meal", id)
	}
	return cloneMeal(meal), nil
}

func (t *memTx) checkMealRefs(meal models.Meal) error {
	if err := t.requireUser(meal.CreatorID); err != nil {
		return err
	}
	if meal.FoodItemID != nil {
		if _, ok := t.state.foodItems[*meal.FoodItemID]; !ok {
			return fmt.Errorf("%w: food item %d", ErrMissingReference, *meal.FoodItemID)
		}
	}
	if meal.FoodCollectionID != nil {
		if _, ok := t.state.collections[*meal.FoodCollectionID]; !ok {
			return fmt.Errorf("%w: food collection %d", ErrMissingReference, *meal.FoodCollectionID)
		}
	}
	if (meal.FoodItemID == nil) == (meal.FoodCollectionID == nil) {
		return fmt.Errorf("%w: meal must reference exactly one food", ErrConstraint)
	}
	return nil
}

func (t *memTx) CreateMeal(_ context.Context, meal *models.Meal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := t.checkMealRefs(*meal); err != nil {
		return err
	}
	meal.ID = t.state.nextID("meals")
	t.state.meals[meal.ID] = cloneMeal(*meal)
	return nil
}

func (t *memTx) UpdateMeal(_ context.Context, meal *models.Meal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.meals[meal.ID]; !ok {
		return notFound("meal", meal.ID)
	}
	if err := t.checkMealRefs(*meal); err != nil {
		return err
	}
	t.state.meals[meal.ID] = cloneMeal(*meal)
	return nil
}

func (t *memTx) DeleteMeal(_ context.Context, id int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.meals[id]; !ok {
		return notFound("meal", id)
	}
	delete(t.state.meals, id)
	return nil
}

// ListMeals applies every filter field that is set
func (t *memTx) ListMeals(_ context.Context, filter MealFilter) ([]models.Meal, error) {
	var wanted map[int64]bool
	if filter.IDs != nil {
		wanted = make(map[int64]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = true
		}
	}

	meals := []models.Meal{}
	for _, meal := range sortedValues(t.state.meals) {
		if filter.CreatorID != nil && meal.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Date != nil && !meal.CreatedAt.Equal(*filter.Date) {
			continue
		}
		if wanted != nil && !wanted[meal.ID] {
			continue
		}
		if filter.SharedOnly && !meal.IsShared {
			continue
		}
		meals = append(meals, cloneMeal(meal))
	}
	return meals, nil
}

type identified interface {
	models.User | models.FoodItem | models.FoodCollection | models.Meal
}

func idOf[T identified](v T) int64 {
	switch e := any(v).(type) {
	case models.User:
		return e.ID
	case models.FoodItem:
		return e.ID
	case models.FoodCollection:
		return e.ID
	case models.Meal:
		return e.ID
	}
	return 0
}

func sortedValues[T identified](m map[int64]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return idOf(out[i]) < idOf(out[j]) })
	return out
}

func paginate[T any](items []T, page Page) []T {
	page = page.Normalize()
	if page.Offset >= uint64(len(items)) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > uint64(len(items)) {
		end = uint64(len(items))
	}
	return items[page.Offset:end]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneFoodItem(f models.FoodItem) models.FoodItem {
	f.Brand = cloneString(f.Brand)
	f.Barcode = cloneString(f.Barcode)
	return f
}

// cloneCollection drops ingredients; they live in their own table
func cloneCollection(c models.FoodCollection) models.FoodCollection {
	c.Ingredients = []models.Ingredient{}
	return c
}

func cloneIngredient(in models.Ingredient) models.Ingredient {
	in.FoodItem = nil
	return in
}

func cloneMeal(m models.Meal) models.Meal {
	m.FoodItemID = cloneInt64(m.FoodItemID)
	m.FoodCollectionID = cloneInt64(m.FoodCollectionID)
	return m
}
