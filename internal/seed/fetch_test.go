package seed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/mimereg/internal/config"
)

func newTestFetcher(t *testing.T, baseURL string, retries int, maxBytes int64) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(config.SeedConfig{
		FeedURL:          baseURL + "/assignments/media-types/",
		UserAgent:        "mimereg-test",
		FetchTimeout:     2 * time.Second,
		FetchRetries:     retries,
		MaxDocumentBytes: maxBytes,
	}, WithRetryInterval(time.Millisecond))
	require.NoError(t, err)
	return f
}

func readBody(t *testing.T, body io.ReadCloser) string {
	t.Helper()
	defer body.Close()
	b, err := io.ReadAll(body)
	require.NoError(t, err)
	return string(b)
}

func TestHTTPFetcherFetch(t *testing.T) {
	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAgent = r.URL.Path, r.UserAgent()
		_, _ = w.Write([]byte("Name,Template,Reference\n"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL, 0, 1024)
	body, err := f.Fetch(context.Background(), "image")
	require.NoError(t, err)

	assert.Equal(t, "Name,Template,Reference\n", readBody(t, body))
	assert.Equal(t, "/assignments/media-types/image.csv", gotPath)
	assert.Equal(t, "mimereg-test", gotAgent)
}

func TestHTTPFetcherRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL, 2, 1024)
	body, err := f.Fetch(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "ok", readBody(t, body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPFetcherPermanentFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
		wantMsg string
	}{
		{
			name: "not found is not retried",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantMsg: "unexpected status 404",
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantErr: ErrEmptyDocument,
		},
		{
			name: "oversized body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			},
			wantErr: ErrDocumentTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			f := newTestFetcher(t, srv.URL, 3, 32)
			_, err := f.Fetch(context.Background(), "audio")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, int32(1), hits.Load(), "permanent failures must not be retried")
		})
	}
}

func TestHTTPFetcherGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL, 2, 1024)
	_, err := f.Fetch(context.Background(), "video")
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}
