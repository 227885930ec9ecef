package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finbook/internal/auth"
	"finbook/internal/core"
	"finbook/internal/store"
)

const defaultCurrency = "USD"

// ErrBadCredentials is returned for both unknown usernames and wrong
// passwords, so login failures don't leak which one it was.
var ErrBadCredentials = errors.New("invalid username or password")

// UserService registers accounts and checks credentials.
type UserService struct {
	store store.Store
	now   func() time.Time
}

func NewUserService(s store.Store) *UserService {
	return &UserService{store: s, now: time.Now}
}

// Register creates a new account. Usernames are unique; duplicates
// fail with store.ErrExists. The currency code is uppercased and
// defaults to USD.
func (s *UserService) Register(ctx context.Context, username, password, currency string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, core.ErrEmptyName
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, err
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultCurrency
	}

	u := core.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Currency:     currency,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate checks a username/password pair and returns the account
// on success.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	u, err := s.store.FindUser(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.User{}, ErrBadCredentials
		}
		return core.User{}, err
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return core.User{}, ErrBadCredentials
	}
	return u, nil
}
