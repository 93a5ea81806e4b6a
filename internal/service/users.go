package service

import (
	"context"
	"errors"
	"strings"

	"github.com/eleven-am/larder/internal/auth"
	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/store"
)

// Registration is a new account. Only the CLI creates admins.
type Registration struct {
	Username string
	Password string
	IsAdmin  bool
}

// UserPatch is a partial account update. IsActive and IsAdmin are
// admin-only.
type UserPatch struct {
	Username *string
	Password *string
	IsActive *bool
	IsAdmin  *bool
}

type Users struct {
	base
	issuer *auth.Issuer
}

// Register hashes the password and stores a new active account
func (s *Users) Register(ctx context.Context, r Registration) (models.User, error) {
	if r.Password == "" {
		return models.User{}, newError(KindValidation, "password: must not be empty")
	}
	hashed, err := auth.HashPassword(r.Password)
	if err != nil {
		return models.User{}, classify(err)
	}
	user, err := models.NewUser(r.Username, hashed)
	if err != nil {
		return models.User{}, classify(err)
	}
	user.IsAdmin = r.IsAdmin

	draft := user
	err = s.write(ctx, func(tx store.Tx) error {
		created := draft
		err := tx.CreateUser(ctx, &created)
		if errors.Is(err, store.ErrDuplicate) {
			return newError(KindValidation, "username %q is already registered", created.Username)
		}
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	s.log.Info("user registered", "id", user.ID, "username", user.Username, "admin", user.IsAdmin)
	return user, nil
}

// Authenticate checks the credentials and issues a bearer token. Unknown
// users and wrong passwords fail the same way.
func (s *Users) Authenticate(ctx context.Context, username, password string) (auth.Token, error) {
	denied := newError(KindUnauthorized, "incorrect username or password")

	var user models.User
	err := s.view(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUserByUsername(ctx, strings.TrimSpace(username))
		return err
	})
	if KindOf(err) == KindNotFound {
		return auth.Token{}, denied
	}
	if err != nil {
		return auth.Token{}, err
	}
	if !auth.CheckPassword(user.HashedPassword, password) {
		s.log.Debug("password mismatch", "username", user.Username)
		return auth.Token{}, denied
	}

	token, err := s.issuer.Issue(user.Username)
	if err != nil {
		return auth.Token{}, classify(err)
	}
	return token, nil
}

// Resolve returns the user a bearer token was issued to. Activity is not
// checked here.
func (s *Users) Resolve(ctx context.Context, token string) (models.User, error) {
	username, err := s.issuer.Parse(token)
	if err != nil {
		return models.User{}, classify(err)
	}

	var user models.User
	err = s.view(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUserByUsername(ctx, username)
		return err
	})
	if KindOf(err) == KindNotFound {
		return models.User{}, newError(KindUnauthorized, "could not validate credentials")
	}
	return user, err
}

// List is admin-only
func (s *Users) List(ctx context.Context, actor models.User, page store.Page) ([]models.User, error) {
	if err := active(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, newError(KindForbidden, "only for admins")
	}

	var users []models.User
	err := s.view(ctx, func(tx store.Tx) error {
		var err error
		users, err = tx.ListUsers(ctx, page)
		return err
	})
	return users, err
}

// Update lets users edit themselves and admins edit anyone
func (s *Users) Update(ctx context.Context, actor models.User, id int64, patch UserPatch) (models.User, error) {
	if err := active(actor); err != nil {
		return models.User{}, err
	}
	if err := owned(actor, id, "update this user"); err != nil {
		return models.User{}, err
	}
	if !actor.IsAdmin && (patch.IsActive != nil || patch.IsAdmin != nil) {
		return models.User{}, newError(KindForbidden, "only admins can change is_active or is_admin")
	}

	var hashed string
	if patch.Password != nil {
		if *patch.Password == "" {
			return models.User{}, newError(KindValidation, "password: must not be empty")
		}
		var err error
		if hashed, err = auth.HashPassword(*patch.Password); err != nil {
			return models.User{}, classify(err)
		}
	}

	var user models.User
	err := s.write(ctx, func(tx store.Tx) error {
		var err error
		if user, err = tx.GetUser(ctx, id); err != nil {
			return missing(err, "user", id)
		}
		if patch.Username != nil {
			user.Username = strings.TrimSpace(*patch.Username)
		}
		if patch.Password != nil {
			user.HashedPassword = hashed
		}
		if patch.IsActive != nil {
			user.IsActive = *patch.IsActive
		}
		if patch.IsAdmin != nil {
			user.IsAdmin = *patch.IsAdmin
		}
		if err := user.Validate(); err != nil {
			return err
		}

		err = tx.UpdateUser(ctx, &user)
		if errors.Is(err, store.ErrDuplicate) {
			return newError(KindValidation, "username %q is already registered", user.Username)
		}
		return err
	})
	if err != nil {
		return models.User{}, err
	}

	s.log.Info("user updated", "id", user.ID, "actor_id", actor.ID)
	return user, nil
}
