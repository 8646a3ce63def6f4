package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/JonMunkholm/mimereg/internal/config"
)

const defaultMaxDocumentBytes = 8 << 20

// Fetcher retrieves one named feed document. The caller closes the body.
// A read error from the body is counted as a parse failure of that document.
type Fetcher interface {
	Fetch(ctx context.Context, document string) (io.ReadCloser, error)
}

var (
	// ErrEmptyDocument is returned when a feed document has no body.
	ErrEmptyDocument = errors.New("empty document")
	// ErrDocumentTooLarge is returned when a body exceeds the size cap.
	ErrDocumentTooLarge = errors.New("document too large")
)

// HTTPFetcher fetches "<base>/<document>.csv" over HTTP. Each document is
// retried with exponential backoff; client errors and oversized or empty
// bodies are not retried.
type HTTPFetcher struct {
	client    *http.Client
	base      *url.URL
	userAgent string
	timeout   time.Duration
	retries   int
	maxBytes  int64
	interval  time.Duration
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithRetryInterval sets the initial backoff interval between attempts.
func WithRetryInterval(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.interval = d
	}
}

// NewHTTPFetcher builds a fetcher from the seed configuration.
func NewHTTPFetcher(cfg config.SeedConfig, opts ...FetcherOption) (*HTTPFetcher, error) {
	base, err := url.Parse(cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed URL: %w", err)
	}
	f := &HTTPFetcher{
		client:    &http.Client{},
		base:      base,
		userAgent: cfg.UserAgent,
		timeout:   cfg.FetchTimeout,
		retries:   cfg.FetchRetries,
		maxBytes:  cfg.MaxDocumentBytes,
		interval:  500 * time.Millisecond,
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxDocumentBytes
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// URL returns the address a document is fetched from.
func (f *HTTPFetcher) URL(document string) string {
	return f.base.JoinPath(document + ".csv").String()
}

// Fetch downloads document, retrying transient failures. The body is fully
// buffered so a retry never hands the parser a partial document.
func (f *HTTPFetcher) Fetch(ctx context.Context, document string) (io.ReadCloser, error) {
	target := f.URL(document)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.interval
	eb.MaxElapsedTime = 0
	var b backoff.BackOff = backoff.WithMaxRetries(eb, uint64(max(f.retries, 0)))
	b = backoff.WithContext(b, ctx)

	body, err := backoff.RetryWithData(func() ([]byte, error) {
		return f.fetchOnce(ctx, target)
	}, b)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, target string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("get %s: unexpected status %d", target, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, backoff.Permanent(fmt.Errorf("%s: %w (limit %d bytes)", target, ErrDocumentTooLarge, f.maxBytes))
	}
	if len(body) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("%s: %w", target, ErrEmptyDocument))
	}
	return body, nil
}
