package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eleven-am/larder/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s Store, name string) models.User {
	t.Helper()
	u := models.User{Username: name, HashedPassword: "x", IsActive: true}
	require.NoError(t, s.WithTransaction(context.Background(), func(tx Tx) error {
		return tx.CreateUser(context.Background(), &u)
	}))
	return u
}

func seedFoodItem(t *testing.T, s Store, creator int64, name string) models.FoodItem {
	t.Helper()
	item := models.FoodItem{Name: name, Calories: decimal.NewFromInt(100), CreatorID: creator}
	require.NoError(t, s.WithTransaction(context.Background(), func(tx Tx) error {
		return tx.CreateFoodItem(context.Background(), &item)
	}))
	return item
}

func TestMemoryRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := seedUser(t, s, "alice")

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(tx Tx) error {
		item := models.FoodItem{Name: "Oats", CreatorID: u.ID}
		require.NoError(t, tx.CreateFoodItem(ctx, &item))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		items, err := tx.ListFoodItems(ctx, FoodItemFilter{})
		require.NoError(t, err)
		assert.Empty(t, items)
		return nil
	}))
}

func TestMemoryViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	err := s.View(ctx, func(tx Tx) error {
		return tx.CreateUser(ctx, &models.User{Username: "bob", HashedPassword: "x"})
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestMemoryUniqueUsername(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	seedUser(t, s, "alice")

	err := s.WithTransaction(ctx, func(tx Tx) error {
		return tx.CreateUser(ctx, &models.User{Username: "alice", HashedPassword: "y"})
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryFoodItemDeleteIsRestricted(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := seedUser(t, s, "alice")
	item := seedFoodItem(t, s, u.ID, "Flour")

	var collection models.FoodCollection
	require.NoError(t, s.WithTransaction(ctx, func(tx Tx) error {
		collection = models.FoodCollection{Name: "Bread", CreatorID: u.ID}
		if err := tx.CreateCollection(ctx, &collection); err != nil {
			return err
		}
		return tx.ReplaceIngredients(ctx, collection.ID, []models.Ingredient{
			{FoodItemID: item.ID, Amount: decimal.NewFromInt(500)},
		})
	}))

	err := s.WithTransaction(ctx, func(tx Tx) error {
		return tx.DeleteFoodItem(ctx, item.ID)
	})
	assert.ErrorIs(t, err, ErrReferenced)

	require.NoError(t, s.WithTransaction(ctx, func(tx Tx) error {
		return tx.DeleteCollection(ctx, collection.ID)
	}))
	require.NoError(t, s.WithTransaction(ctx, func(tx Tx) error {
		return tx.DeleteFoodItem(ctx, item.ID)
	}))
}

func TestMemoryCollectionDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := seedUser(t, s, "alice")
	item := seedFoodItem(t, s, u.ID, "Rice")

	var collection models.FoodCollection
	var itemMeal, collectionMeal models.Meal
	require.NoError(t, s.WithTransaction(ctx, func(tx Tx) error {
		collection = models.FoodCollection{Name: "Risotto", CreatorID: u.ID}
		require.NoError(t, tx.CreateCollection(ctx, &collection))
		require.NoError(t, tx.ReplaceIngredients(ctx, collection.ID, []models.Ingredient{
			{FoodItemID: item.ID, Amount: decimal.NewFromInt(100)},
		}))

		day := models.NewDate(2024, time.May, 1)
		collectionMeal = models.Meal{FoodCollectionID: &collection.ID, CreatedAt: day, Mealtime: 1, CreatorID: u.ID}
		require.NoError(t, tx.CreateMeal(ctx, &collectionMeal))
		itemMeal = models.Meal{FoodItemID: &item.ID, CreatedAt: day, Mealtime: 2, CreatorID: u.ID}
		return tx.CreateMeal(ctx, &itemMeal)
	}))

	require.NoError(t, s.WithTransaction(ctx, func(tx Tx) error {
		return tx.DeleteCollection(ctx, collection.ID)
	}))

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		ingredients, err := tx.ListIngredients(ctx, collection.ID)
		require.NoError(t, err)
		assert.Empty(t, ingredients)

		_, err = tx.GetMeal(ctx, collectionMeal.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = tx.GetMeal(ctx, itemMeal.ID)
		assert.NoError(t, err)
		return nil
	}))
}

func TestMemoryReplaceIngredientsRequiresFoodItems(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := seedUser(t, s, "alice")

	err := s.WithTransaction(ctx, func(tx Tx) error {
		c := models.FoodCollection{Name: "Soup", CreatorID: u.ID}
		require.NoError(t, tx.CreateCollection(ctx, &c))
		return tx.ReplaceIngredients(ctx, c.ID, []models.Ingredient{{FoodItemID: 404, Amount: decimal.NewFromInt(1)}})
	})
	assert.ErrorIs(t, err, ErrMissingReference)

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		collections, err := tx.ListCollections(ctx, CollectionFilter{})
		require.NoError(t, err)
		assert.Empty(t, collections, "failed transaction must not leave the collection behind")
		return nil
	}))
}

func TestMemoryListFoodItemsFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := seedUser(t, s, "alice")

	barcode := "4006381333931"
	require.NoError(t, s.WithTransaction(ctx, func(tx Tx) error {
		for _, item := range []models.FoodItem{
			{Name: "Greek Yogurt", Barcode: &barcode, CreatorID: u.ID},
			{Name: "yogurt drink", CreatorID: u.ID},
			{Name: "Apple", CreatorID: u.ID},
		} {
			item := item
			if err := tx.CreateFoodItem(ctx, &item); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		items, err := tx.ListFoodItems(ctx, FoodItemFilter{Name: "YOGURT"})
		require.NoError(t, err)
		assert.Len(t, items, 2)

		items, err = tx.ListFoodItems(ctx, FoodItemFilter{Barcode: "33393"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Greek Yogurt", items[0].Name)

		items, err = tx.ListFoodItems(ctx, FoodItemFilter{Page: Page{Offset: 1, Limit: 1}})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "yogurt drink", items[0].Name)

		items, err = tx.ListFoodItems(ctx, FoodItemFilter{Page: Page{Offset: 10}})
		require.NoError(t, err)
		assert.Empty(t, items)
		return nil
	}))
}

func TestMemoryListMeals(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	item := seedFoodItem(t, s, alice.ID, "Egg")

	monday := models.NewDate(2024, time.June, 3)
	tuesday := models.NewDate(2024, time.June, 4)
	meals := []models.Meal{
		{FoodItemID: &item.ID, CreatedAt: monday, Mealtime: 1, CreatorID: alice.ID},
		{FoodItemID: &item.ID, CreatedAt: tuesday, Mealtime: 1, CreatorID: alice.ID, IsShared: true},
		{FoodItemID: &item.ID, CreatedAt: monday, Mealtime: 3, CreatorID: bob.ID},
	}
	require.NoError(t, s.WithTransaction(ctx, func(tx Tx) error {
		for i := range meals {
			if err := tx.CreateMeal(ctx, &meals[i]); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		got, err := tx.ListMeals(ctx, MealFilter{CreatorID: &alice.ID, Date: &monday})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, meals[0].ID, got[0].ID)

		got, err = tx.ListMeals(ctx, MealFilter{IDs: []int64{meals[0].ID, meals[1].ID}, SharedOnly: true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, meals[1].ID, got[0].ID)
		return nil
	}))
}

func TestMemoryMealRequiresExistingFood(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := seedUser(t, s, "alice")
	missing := int64(99)

	err := s.WithTransaction(ctx, func(tx Tx) error {
		return tx.CreateMeal(ctx, &models.Meal{
			FoodItemID: &missing,
			CreatedAt:  models.NewDate(2024, time.June, 3),
			Mealtime:   1,
			CreatorID:  u.ID,
		})
	})
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := seedUser(t, s, "alice")
	brand := "Acme"

	item := models.FoodItem{Name: "Beans", Brand: &brand, CreatorID: u.ID}
	require.NoError(t, s.WithTransaction(ctx, func(tx Tx) error {
		return tx.CreateFoodItem(ctx, &item)
	}))
	brand = "Changed"

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		got, err := tx.GetFoodItem(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Brand)
		assert.Equal(t, "Acme", *got.Brand)
		return nil
	}))
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, uint64(MaxLimit), Page{}.Normalize().Limit)
	assert.Equal(t, uint64(MaxLimit), Page{Limit: 1000}.Normalize().Limit)
	assert.Equal(t, uint64(5), Page{Limit: 5}.Normalize().Limit)
}

func TestMemoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemory().WithTransaction(ctx, func(tx Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
