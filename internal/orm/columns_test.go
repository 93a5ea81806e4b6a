package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringColumn(t *testing.T) {
	col := StringColumn{Column: Column[string]{Name: "name", Table: "food_items"}}

	tests := []struct {
		name     string
		method   func() Condition
		expected string
		args     []interface{}
	}{
		{
			name:     "Eq",
			method:   func() Condition { return col.Eq("Oats") },
			expected: "food_items.name = ?",
			args:     []interface{}{"Oats"},
		},
		{
			name:     "ILike",
			method:   func() Condition { return col.ILike("%oat%") },
			expected: "food_items.name ILIKE ?",
			args:     []interface{}{"%oat%"},
		},
		{
			name:     "Contains escapes wildcards",
			method:   func() Condition { return col.Contains("50%_fat") },
			expected: "food_items.name ILIKE ?",
			args:     []interface{}{`%50\%\_fat%`},
		},
		{
			name:     "In",
			method:   func() Condition { return col.In("a", "b") },
			expected: "food_items.name IN (?,?)",
			args:     []interface{}{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.method().ToSqlizer().ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sql)
			if tt.args != nil {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestEmptyInMatchesNothing(t *testing.T) {
	col := Column[int64]{Name: "id"}
	sql, args, err := col.In().ToSqlizer().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(1=0)", sql)
	assert.Empty(t, args)
}

func TestBoolColumn(t *testing.T) {
	shared := BoolColumn{Column: Column[bool]{Name: "is_shared"}}
	sql, args, err := shared.IsTrue().ToSqlizer().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "is_shared = ?", sql)
	assert.Equal(t, []interface{}{true}, args)
}

func TestColumnOrdering(t *testing.T) {
	col := Column[string]{Name: "name", Table: "food_collections"}
	assert.Equal(t, "food_collections.name ASC", col.Asc())
}
