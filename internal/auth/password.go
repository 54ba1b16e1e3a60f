// Package auth implements password-based registration and login.
//
// The original applications stored and compared passwords in cleartext;
// that defect is not replicated. Passwords are hashed with bcrypt (salted
// per hash) and verified with bcrypt's constant-time comparison.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"gastos/internal/core"
	"gastos/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// dummyHash is compared against on login attempts for unknown usernames,
// so their timing matches a wrong-password attempt.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing equalizer, never a valid login"), bcrypt.DefaultCost)

// UserStorage is the slice of the store the authenticator needs. Both the
// SQLite and the flat-file backends implement it.
type UserStorage interface {
	RegisterUser(ctx context.Context, user core.User) error
	GetUser(ctx context.Context, username string) (core.User, error)
}

// Service handles registration and login against a user store.
type Service struct {
	storage UserStorage
	cost    int
}

// NewService creates an authentication service. cost is the bcrypt work
// factor; values outside the bcrypt range fall back to the default.
func NewService(storage UserStorage, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{storage: storage, cost: cost}
}

// Register creates a new user account with a hashed password. Username and
// password are required; name and email are free-form.
func (s *Service) Register(ctx context.Context, username, name, email, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, core.ErrEmptyUsername
	}
	if strings.TrimSpace(password) == "" {
		return core.User{}, core.ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		Username:     username,
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
	}
	if err := s.storage.RegisterUser(ctx, user); err != nil {
		return core.User{}, err
	}
	return user, nil
}

// Authenticate verifies the username and password and returns a session
// for the authenticated user. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (core.Session, error) {
	user, err := s.storage.GetUser(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Burn the same bcrypt work as a real comparison
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return core.Session{}, ErrInvalidCredentials
		}
		return core.Session{}, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return core.Session{}, ErrInvalidCredentials
	}

	return core.Session{Username: user.Username}, nil
}
