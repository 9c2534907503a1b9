package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	f := NewNativeFetcher(srv.Client(), 0, 0)
	result, err := f.Scrape(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "<html>hello</html>", string(result.Content))
	assert.Equal(t, "text/html", result.MimeType)
}

func TestNativeFetcher_AuthErrorOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewNativeFetcher(srv.Client(), 0, 0)
	_, err := f.Scrape(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	require.Error(t, err)
	assert.True(t, IsAuth(err))
}

func TestNativeFetcher_ServerErrorOn500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewNativeFetcher(srv.Client(), 0, 0)
	_, err := f.Scrape(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	require.Error(t, err)
	assert.False(t, IsAuth(err))
	fe, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CategoryServer, fe.Category)
}

func TestNativeFetcher_EmptyBodyIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewNativeFetcher(srv.Client(), 0, 0)
	_, err := f.Scrape(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	require.Error(t, err)
}

func TestNativeFetcher_TimeoutAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte("too late"))
	}))
	defer srv.Close()

	f := NewNativeFetcher(srv.Client(), 0, 0)
	_, err := f.Scrape(context.Background(), srv.URL, Options{Timeout: 10 * time.Millisecond})
	require.Error(t, err)
}
