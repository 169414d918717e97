package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[db]
driver = "memory"

[images]
backend = "local"
local_dir = "` + filepath.ToSlash(filepath.Join(dir, "media")) + `"

[log]
level = "error"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	err := cmd.Run(context.Background(), append([]string{name}, args...))
	return out.String(), err
}

func TestUserAddCommand(t *testing.T) {
	out, err := runCommand(t, "--config", writeConfig(t), "user", "add", "--email", "cook@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "<cook@example.com>")
	assert.Regexp(t, `token: [0-9a-f-]{72}`, out)
}

func TestUserListCommand(t *testing.T) {
	out, err := runCommand(t, "--config", writeConfig(t), "user", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMigrateCommand(t *testing.T) {
	out, err := runCommand(t, "--config", writeConfig(t), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")
}

func TestAppHandler(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, writeConfig(t))
	require.NoError(t, err)
	defer a.Close()

	user, err := a.AddUser(ctx, "cook@example.com")
	require.NoError(t, err)

	_, err = a.AddUser(ctx, "cook@example.com")
	assert.Error(t, err)

	users, err := a.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "cook@example.com", users[0].Email)

	h, err := a.Handler(ctx)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/recipe/recipes", nil)
	req.Header.Set("Authorization", "Token "+user.Token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipe_http_requests_total")
}
