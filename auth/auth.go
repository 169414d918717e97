// Package auth resolves the "Authorization: Token <key>" header to the
// owning user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"recipe_backend/models"
	"recipe_backend/store"
)

var (
	// ErrNoCredentials is returned when the request carries no token.
	ErrNoCredentials = errors.New("authentication credentials were not provided")
	// ErrInvalidToken is returned for malformed or unknown tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Directory maps API tokens to users.
type Directory interface {
	Lookup(ctx context.Context, token string) (*models.User, error)
}

// ParseHeader extracts the key from an Authorization header value. Any
// scheme other than Token counts as no credentials.
func ParseHeader(value string) (string, error) {
	parts := strings.Fields(value)
	if len(parts) == 0 || !strings.EqualFold(parts[0], "token") {
		return "", ErrNoCredentials
	}
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected \"Token <key>\"", ErrInvalidToken)
	}
	return parts[1], nil
}

// StoreDirectory looks tokens up in the users table.
type StoreDirectory struct {
	users store.UserRepository
}

func NewStoreDirectory(users store.UserRepository) *StoreDirectory {
	return &StoreDirectory{users: users}
}

func (d *StoreDirectory) Lookup(ctx context.Context, token string) (*models.User, error) {
	user, err := d.users.GetByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return user, err
}

// CachedDirectory keeps recently resolved tokens in an LRU cache. Unknown
// tokens are not cached.
type CachedDirectory struct {
	next  Directory
	cache *lru.Cache
}

func NewCachedDirectory(next Directory, size int) (*CachedDirectory, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	return &CachedDirectory{next: next, cache: cache}, nil
}

func (d *CachedDirectory) Lookup(ctx context.Context, token string) (*models.User, error) {
	if v, ok := d.cache.Get(token); ok {
		user := v.(models.User)
		return &user, nil
	}
	user, err := d.next.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	d.cache.Add(token, *user)
	return user, nil
}

// Forget drops token from the cache.
func (d *CachedDirectory) Forget(token string) {
	d.cache.Remove(token)
}

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok && user != nil
}
