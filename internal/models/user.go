package models

import "strings"

const MaxUsernameLength = 64

type User struct {
	ID             int64  `db:"id" json:"id"`
	Username       string `db:"username" json:"username"`
	HashedPassword string `db:"hashed_password" json:"-"`
	IsActive       bool   `db:"is_active" json:"is_active"`
	IsAdmin        bool   `db:"is_admin" json:"is_admin"`
}

// NewUser builds an active, non-admin user
func NewUser(username, hashedPassword string) (User, error) {
	u := User{
		Username:       strings.TrimSpace(username),
		HashedPassword: hashedPassword,
		IsActive:       true,
	}
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	return u, nil
}

func (u User) Validate() error {
	if u.Username == "" {
		return invalid("username", "must not be empty")
	}
	if len(u.Username) > MaxUsernameLength {
		return invalid("username", "must be at most %d characters", MaxUsernameLength)
	}
	if u.HashedPassword == "" {
		return invalid("password", "must not be empty")
	}
	return nil
}
