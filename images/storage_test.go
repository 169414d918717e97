package images

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/media/")
	require.NoError(t, err)

	key := "uploads/recipe/abc.jpg"
	require.NoError(t, s.Put(ctx, key, "image/jpeg", strings.NewReader("data")))

	data, err := os.ReadFile(filepath.Join(dir, "uploads", "recipe", "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	assert.Equal(t, "/media/uploads/recipe/abc.jpg", s.URL(key))

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "uploads", "recipe", "abc.jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, key), "deleting a missing object is not an error")
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	for _, key := range []string{"../evil.jpg", "uploads/../../evil.jpg", "", "/abs.jpg"} {
		assert.Error(t, s.Put(context.Background(), key, "image/jpeg", strings.NewReader("x")), key)
	}
}

type fakeS3 struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string][]byte
	types    map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.bodies[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.bodies, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Storage(t *testing.T) {
	fake := &fakeS3{bodies: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s, err := NewS3Storage(ctx, S3Config{
		Key:      "key",
		Secret:   "secret",
		Region:   "us-east-1",
		Bucket:   "recipes",
		Endpoint: srv.URL,
		Prefix:   "/media/",
	})
	require.NoError(t, err)

	key := "uploads/recipe/abc.png"
	require.NoError(t, s.Put(ctx, key, "image/png", bytes.NewReader([]byte("png-bytes"))))
	assert.Equal(t, []byte("png-bytes"), fake.bodies["/recipes/media/uploads/recipe/abc.png"])
	assert.Equal(t, "image/png", fake.types["/recipes/media/uploads/recipe/abc.png"])
	assert.Equal(t, srv.URL+"/recipes/media/uploads/recipe/abc.png", s.URL(key))

	require.NoError(t, s.Delete(ctx, key))
	assert.Contains(t, fake.requests, "DELETE /recipes/media/uploads/recipe/abc.png")
}

func TestS3Storage_PublicURL(t *testing.T) {
	s, err := NewS3Storage(context.Background(), S3Config{
		Key: "k", Secret: "s", Region: "nyc3", Bucket: "b", PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/recipe/x.jpg", s.URL("uploads/recipe/x.jpg"))

	s, err = NewS3Storage(context.Background(), S3Config{Key: "k", Secret: "s", Region: "eu-west-1", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/uploads/recipe/x.jpg", s.URL("uploads/recipe/x.jpg"))
}
