package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe_backend/models"
	"recipe_backend/store"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr error
	}{
		{name: "token", value: "Token abc123", want: "abc123"},
		{name: "lowercase scheme", value: "token abc123", want: "abc123"},
		{name: "empty", value: "", wantErr: ErrNoCredentials},
		{name: "bearer", value: "Bearer abc123", wantErr: ErrNoCredentials},
		{name: "missing key", value: "Token", wantErr: ErrInvalidToken},
		{name: "spaces in key", value: "Token abc 123", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader(tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoreDirectory(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Users().Create(ctx, &models.User{Email: "cook@example.com", Token: "t1"}))

	dir := NewStoreDirectory(s.Users())

	user, err := dir.Lookup(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", user.Email)

	_, err = dir.Lookup(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type countingDirectory struct {
	calls int
	users map[string]models.User
}

func (d *countingDirectory) Lookup(_ context.Context, token string) (*models.User, error) {
	d.calls++
	u, ok := d.users[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &u, nil
}

func TestCachedDirectory(t *testing.T) {
	ctx := context.Background()
	next := &countingDirectory{users: map[string]models.User{"t1": {ID: 1, Email: "a@example.com"}}}
	dir, err := NewCachedDirectory(next, 8)
	require.NoError(t, err)

	for range 3 {
		user, err := dir.Lookup(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	}
	assert.Equal(t, 1, next.calls)

	_, err = dir.Lookup(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = dir.Lookup(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 3, next.calls, "unknown tokens are not cached")

	dir.Forget("t1")
	_, err = dir.Lookup(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 4, next.calls)
}

func TestCachedDirectory_ReturnsCopies(t *testing.T) {
	next := &countingDirectory{users: map[string]models.User{"t1": {ID: 1, Email: "a@example.com"}}}
	dir, err := NewCachedDirectory(next, 8)
	require.NoError(t, err)

	first, err := dir.Lookup(context.Background(), "t1")
	require.NoError(t, err)
	first.Email = "changed@example.com"

	second, err := dir.Lookup(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", second.Email)
}

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &models.User{ID: 5})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(5), user.ID)
}
