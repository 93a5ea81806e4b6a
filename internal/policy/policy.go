// Package policy holds the authorization rules shared by every mutation.
package policy

import (
	"errors"

	"github.com/eleven-am/larder/internal/models"
)

var (
	ErrInactive = errors.New("inactive user")
	ErrNotOwner = errors.New("only the creator or an admin can modify this resource")
)

// CanModify reports whether actor may change a resource created by creatorID
func CanModify(actor models.User, creatorID int64) bool {
	return actor.IsAdmin || actor.ID == creatorID
}

// RequireModify is CanModify as an error
func RequireModify(actor models.User, creatorID int64) error {
	if !CanModify(actor, creatorID) {
		return ErrNotOwner
	}
	return nil
}

// RequireActive rejects deactivated accounts
func RequireActive(actor models.User) error {
	if !actor.IsActive {
		return ErrInactive
	}
	return nil
}

// CanViewMeal reports whether actor may read a meal. Shared meals are
// readable by everyone.
func CanViewMeal(actor models.User, meal models.Meal) bool {
	return meal.IsShared || CanModify(actor, meal.CreatorID)
}
