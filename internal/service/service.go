// Package service implements the larder operations on top of the entity
// store. Every mutation runs inside one store transaction and every error
// leaving the package is a *Error.
package service

import (
	"context"
	"errors"

	"github.com/eleven-am/larder/internal/auth"
	"github.com/eleven-am/larder/internal/logger"
	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/policy"
	"github.com/eleven-am/larder/internal/store"
)

// Service groups the per-entity services over one store
type Service struct {
	Collections *Collections
	FoodItems   *FoodItems
	Meals       *Meals
	Users       *Users
	Search      *Search
}

// New builds every service over st. issuer may be nil when no tokens are
// issued.
func New(st store.Store, issuer *auth.Issuer) *Service {
	b := base{store: st, log: logger.Service()}
	return &Service{
		Collections: &Collections{base: b},
		FoodItems:   &FoodItems{base: b},
		Meals:       &Meals{base: b},
		Users:       &Users{base: b, issuer: issuer},
		Search:      &Search{base: b},
	}
}

type base struct {
	store store.Store
	log   logger.Logger
}

func (b base) view(ctx context.Context, fn func(store.Tx) error) error {
	return classify(b.store.View(ctx, fn))
}

func (b base) write(ctx context.Context, fn func(store.Tx) error) error {
	return classify(b.store.WithTransaction(ctx, fn))
}

// active rejects deactivated actors before any store access
func active(actor models.User) error {
	return classify(policy.RequireActive(actor))
}

// owned is policy.RequireModify with a message naming the refused action
func owned(actor models.User, creatorID int64, action string) error {
	if err := policy.RequireModify(actor, creatorID); err != nil {
		return &Error{
			Kind:    KindForbidden,
			Message: "only the creator or an admin can " + action,
			Err:     err,
		}
	}
	return nil
}

// missing converts a store not-found on a direct lookup into a NotFound
// naming the entity
func missing(err error, entity string, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(entity, id)
	}
	return err
}
