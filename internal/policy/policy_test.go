package policy

import (
	"testing"

	"github.com/eleven-am/larder/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanModify(t *testing.T) {
	owner := models.User{ID: 1, IsActive: true}
	other := models.User{ID: 2, IsActive: true}
	admin := models.User{ID: 3, IsActive: true, IsAdmin: true}

	assert.True(t, CanModify(owner, 1))
	assert.False(t, CanModify(other, 1))
	assert.True(t, CanModify(admin, 1))

	assert.NoError(t, RequireModify(owner, 1))
	assert.ErrorIs(t, RequireModify(other, 1), ErrNotOwner)
}

func TestRequireActive(t *testing.T) {
	assert.NoError(t, RequireActive(models.User{ID: 1, IsActive: true}))
	assert.ErrorIs(t, RequireActive(models.User{ID: 1, IsAdmin: true}), ErrInactive)
}

func TestCanViewMeal(t *testing.T) {
	private := models.Meal{CreatorID: 1}
	shared := models.Meal{CreatorID: 1, IsShared: true}
	stranger := models.User{ID: 2, IsActive: true}

	assert.False(t, CanViewMeal(stranger, private))
	assert.True(t, CanViewMeal(stranger, shared))
	assert.True(t, CanViewMeal(models.User{ID: 1}, private))
	assert.True(t, CanViewMeal(models.User{ID: 5, IsAdmin: true}, private))
}
