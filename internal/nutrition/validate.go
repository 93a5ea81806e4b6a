package nutrition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// IngredientInput is one requested ingredient before it is resolved
type IngredientInput struct {
	FoodItemID int64
	Amount     decimal.Decimal
}

// DuplicateIngredientError lists every food item referenced more than once,
// in the order each was first seen
type DuplicateIngredientError struct {
	IDs []int64
}

func (e *DuplicateIngredientError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("duplicate ingredients for food items: %s", strings.Join(ids, ", "))
}

// InvalidAmountError reports an ingredient amount that is not a valid weight
type InvalidAmountError struct {
	FoodItemID int64
	Amount     decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s for food item %d: must be a non-negative weight with at most %d decimals",
		e.Amount.String(), e.FoodItemID, Places)
}

// ValidateIngredients checks an ingredient list before anything is written.
// Duplicates are reported first and all together.
func ValidateIngredients(ingredients []IngredientInput) error {
	counts := make(map[int64]int, len(ingredients))
	var order []int64
	for _, in := range ingredients {
		if counts[in.FoodItemID] == 0 {
			order = append(order, in.FoodItemID)
		}
		counts[in.FoodItemID]++
	}

	var duplicates []int64
	for _, id := range order {
		if counts[id] > 1 {
			duplicates = append(duplicates, id)
		}
	}
	if len(duplicates) > 0 {
		return &DuplicateIngredientError{IDs: duplicates}
	}

	for _, in := range ingredients {
		if !ValidWeight(in.Amount) {
			return &InvalidAmountError{FoodItemID: in.FoodItemID, Amount: in.Amount}
		}
	}
	return nil
}

// MaxValue is the largest value a NUMERIC(10,2) column holds
var MaxValue = decimal.RequireFromString("99999999.99")

// ValidWeight reports whether v is non-negative, has at most two decimals
// and fits the storage precision
func ValidWeight(v decimal.Decimal) bool {
	return !v.IsNegative() && v.Equal(v.Round(Places)) && v.LessThanOrEqual(MaxValue)
}
