package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIngredients(t *testing.T) {
	tests := []struct {
		name    string
		input   []IngredientInput
		wantDup []int64
		wantAmt bool
	}{
		{
			name:  "empty list",
			input: nil,
		},
		{
			name: "distinct items",
			input: []IngredientInput{
				{FoodItemID: 1, Amount: d("10")},
				{FoodItemID: 2, Amount: d("0")},
			},
		},
		{
			name: "every duplicate in first seen order",
			input: []IngredientInput{
				{FoodItemID: 5, Amount: d("1")},
				{FoodItemID: 3, Amount: d("1")},
				{FoodItemID: 9, Amount: d("1")},
				{FoodItemID: 3, Amount: d("2")},
				{FoodItemID: 5, Amount: d("2")},
				{FoodItemID: 3, Amount: d("3")},
			},
			wantDup: []int64{5, 3},
		},
		{
			name: "negative amount",
			input: []IngredientInput{
				{FoodItemID: 1, Amount: d("-0.01")},
			},
			wantAmt: true,
		},
		{
			name: "too many decimals",
			input: []IngredientInput{
				{FoodItemID: 1, Amount: d("1.005")},
			},
			wantAmt: true,
		},
		{
			name: "duplicates win over bad amounts",
			input: []IngredientInput{
				{FoodItemID: 1, Amount: d("-1")},
				{FoodItemID: 1, Amount: d("1")},
			},
			wantDup: []int64{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIngredients(tt.input)

			switch {
			case tt.wantDup != nil:
				var dup *DuplicateIngredientError
				require.ErrorAs(t, err, &dup)
				assert.Equal(t, tt.wantDup, dup.IDs)
			case tt.wantAmt:
				var amt *InvalidAmountError
				require.ErrorAs(t, err, &amt)
				assert.Equal(t, int64(1), amt.FoodItemID)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestDuplicateIngredientErrorMessage(t *testing.T) {
	err := &DuplicateIngredientError{IDs: []int64{4, 2}}
	assert.Equal(t, "duplicate ingredients for food items: 4, 2", err.Error())
}

func TestValidWeight(t *testing.T) {
	assert.True(t, ValidWeight(d("0")))
	assert.True(t, ValidWeight(d("99999999.99")))
	assert.False(t, ValidWeight(d("100000000")))
	assert.False(t, ValidWeight(d("-1")))
	assert.False(t, ValidWeight(d("0.001")))
}
