package service

import (
	"context"
	"testing"
	"time"

	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoodItemCreateNormalizesZeroCalories(t *testing.T) {
	f := newFixture(t)

	item := f.foodItem(t, f.alice, "Water", "0", "1", "2", "3")
	assert.True(t, item.Fats.IsZero())
	assert.True(t, item.Carbs.IsZero())
	assert.True(t, item.Protein.IsZero())
	assert.Equal(t, f.alice.ID, item.CreatorID)
}

func TestFoodItemUpdateDoesNotNormalize(t *testing.T) {
	f := newFixture(t)
	item := f.foodItem(t, f.alice, "Butter", "717", "81", "0.1", "0.9")

	updated, err := f.svc.FoodItems.Update(context.Background(), f.alice, item.ID, models.FoodItemPatch{Calories: dp("0")})
	require.NoError(t, err)
	assert.True(t, updated.Calories.IsZero())
	assert.True(t, updated.Fats.Equal(d("81")))
}

func TestFoodItemUpdateValidates(t *testing.T) {
	f := newFixture(t)
	item := f.foodItem(t, f.alice, "Butter", "717", "81", "0.1", "0.9")

	_, err := f.svc.FoodItems.Update(context.Background(), f.alice, item.ID, models.FoodItemPatch{Fats: dp("1.234")})
	assertKind(t, KindValidation, err)

	got, err := f.svc.FoodItems.Get(context.Background(), f.alice, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Fats.Equal(d("81")))
}

func TestFoodItemOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.foodItem(t, f.alice, "Bread", "250", "3", "49", "9")

	_, err := f.svc.FoodItems.Update(ctx, f.bob, item.ID, models.FoodItemPatch{Calories: dp("1")})
	assertKind(t, KindForbidden, err)
	assertKind(t, KindForbidden, f.svc.FoodItems.Delete(ctx, f.bob, item.ID))

	require.NoError(t, f.svc.FoodItems.Delete(ctx, f.admin, item.ID))
	_, err = f.svc.FoodItems.Get(ctx, f.alice, item.ID)
	assertKind(t, KindNotFound, err)
}

func TestFoodItemDeleteWhileReferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.foodItem(t, f.alice, "Flour", "364", "1", "76", "10")
	egg := f.foodItem(t, f.alice, "Egg", "155", "11", "1.1", "13")

	_, err := f.svc.Collections.Create(ctx, f.alice, CollectionInput{Name: "Bread", Ingredients: ingredients(flour.ID, "500")})
	require.NoError(t, err)
	_, err = f.svc.Meals.Create(ctx, f.alice, MealInput{
		FoodAmount: d("60"),
		FoodItemID: &egg.ID,
		CreatedAt:  models.NewDate(2024, time.June, 3),
		Mealtime:   1,
	})
	require.NoError(t, err)

	for _, id := range []int64{flour.ID, egg.ID} {
		err := f.svc.FoodItems.Delete(ctx, f.alice, id)
		assertKind(t, KindReferentialIntegrity, err)
		assert.Equal(t, []int64{id}, err.(*Error).IDs)

		_, err = f.svc.FoodItems.Get(ctx, f.alice, id)
		assert.NoError(t, err)
	}
}

func TestFoodItemList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.foodItem(t, f.alice, "Greek Yogurt", "97", "5", "3.6", "9")
	f.foodItem(t, f.bob, "Apple", "52", "0.2", "14", "0.3")

	items, err := f.svc.FoodItems.List(ctx, f.alice, store.FoodItemFilter{Name: "yog"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Greek Yogurt", items[0].Name)

	items, err = f.svc.FoodItems.List(ctx, f.alice, store.FoodItemFilter{Name: "nothing"})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFoodItemCreateRejectsInvalidSpec(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FoodItems.Create(context.Background(), f.alice, models.FoodItemSpec{Name: "  ", Calories: d("1")})
	assertKind(t, KindValidation, err)

	_, err = f.svc.FoodItems.Create(context.Background(), f.alice, models.FoodItemSpec{Name: "Bad", Calories: d("-1")})
	assertKind(t, KindValidation, err)
}
