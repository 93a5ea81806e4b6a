//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/eleven-am/larder/internal/migrator"
	"github.com/eleven-am/larder/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("larder_test"),
		postgres.WithUsername("larder"),
		postgres.WithPassword("larder"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := migrator.NewDBConfig(dsn).Connect(ctx)
	require.NoError(t, err)

	m, err := migrator.NewMigrator(db, migrator.DefaultTable)
	require.NoError(t, err)
	_, err = m.Up(ctx)
	require.NoError(t, err)

	p := NewPostgres(db)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPostgresIntegration(t *testing.T) {
	ctx := context.Background()
	p := setupPostgres(t)

	var (
		user       models.User
		item       models.FoodItem
		collection models.FoodCollection
		meal       models.Meal
	)
	require.NoError(t, p.WithTransaction(ctx, func(tx Tx) error {
		user = models.User{Username: "alice", HashedPassword: "hash", IsActive: true}
		require.NoError(t, tx.CreateUser(ctx, &user))

		barcode := "4006381333931"
		item = models.FoodItem{
			Name:      "Oats",
			Calories:  decimal.RequireFromString("389"),
			Fats:      decimal.RequireFromString("6.9"),
			Carbs:     decimal.RequireFromString("66.27"),
			Protein:   decimal.RequireFromString("16.89"),
			Barcode:   &barcode,
			CreatorID: user.ID,
		}
		require.NoError(t, tx.CreateFoodItem(ctx, &item))

		collection = models.FoodCollection{Name: "Porridge", CreatorID: user.ID}
		require.NoError(t, tx.CreateCollection(ctx, &collection))
		require.NoError(t, tx.ReplaceIngredients(ctx, collection.ID, []models.Ingredient{
			{FoodItemID: item.ID, Amount: decimal.NewFromInt(80)},
		}))

		meal = models.Meal{
			Calories:         decimal.NewFromInt(311),
			FoodAmount:       decimal.NewFromInt(80),
			FoodCollectionID: &collection.ID,
			CreatedAt:        models.NewDate(2024, time.June, 3),
			Mealtime:         1,
			CreatorID:        user.ID,
		}
		return tx.CreateMeal(ctx, &meal)
	}))
	assert.NotZero(t, user.ID)
	assert.NotZero(t, meal.ID)

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, p.View(ctx, func(tx Tx) error {
			got, err := tx.GetFoodItem(ctx, item.ID)
			require.NoError(t, err)
			assert.True(t, got.Carbs.Equal(item.Carbs))
			require.NotNil(t, got.Barcode)

			items, err := tx.ListFoodItems(ctx, FoodItemFilter{Name: "oat"})
			require.NoError(t, err)
			assert.Len(t, items, 1)

			ingredients, err := tx.ListIngredients(ctx, collection.ID)
			require.NoError(t, err)
			require.Len(t, ingredients, 1)
			assert.True(t, ingredients[0].Amount.Equal(decimal.NewFromInt(80)))

			day := models.NewDate(2024, time.June, 3)
			meals, err := tx.ListMeals(ctx, MealFilter{CreatorID: &user.ID, Date: &day})
			require.NoError(t, err)
			require.Len(t, meals, 1)
			assert.True(t, meals[0].CreatedAt.Equal(day))
			return nil
		}))
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := p.WithTransaction(ctx, func(tx Tx) error {
			return tx.CreateUser(ctx, &models.User{Username: "alice", HashedPassword: "x"})
		})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("referenced food item", func(t *testing.T) {
		err := p.WithTransaction(ctx, func(tx Tx) error {
			return tx.DeleteFoodItem(ctx, item.ID)
		})
		assert.ErrorIs(t, err, ErrReferenced)
	})

	t.Run("rollback", func(t *testing.T) {
		err := p.WithTransaction(ctx, func(tx Tx) error {
			c := models.FoodCollection{Name: "Ghost", CreatorID: user.ID}
			require.NoError(t, tx.CreateCollection(ctx, &c))
			return tx.ReplaceIngredients(ctx, c.ID, []models.Ingredient{{FoodItemID: 999999, Amount: decimal.NewFromInt(1)}})
		})
		assert.ErrorIs(t, err, ErrMissingReference)

		require.NoError(t, p.View(ctx, func(tx Tx) error {
			collections, err := tx.ListCollections(ctx, CollectionFilter{Name: "ghost"})
			require.NoError(t, err)
			assert.Empty(t, collections)
			return nil
		}))
	})

	t.Run("collection delete cascades", func(t *testing.T) {
		require.NoError(t, p.WithTransaction(ctx, func(tx Tx) error {
			return tx.DeleteCollection(ctx, collection.ID)
		}))
		require.NoError(t, p.View(ctx, func(tx Tx) error {
			_, err := tx.GetMeal(ctx, meal.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			ingredients, err := tx.ListIngredients(ctx, collection.ID)
			require.NoError(t, err)
			assert.Empty(t, ingredients)
			return nil
		}))
		require.NoError(t, p.WithTransaction(ctx, func(tx Tx) error {
			return tx.DeleteFoodItem(ctx, item.ID)
		}))
	})
}
