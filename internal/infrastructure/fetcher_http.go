package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yourusername/manga-dl-go/internal/domain"
)

// HTTPFetcher implements ResourceFetcher with a plain GET.
// Locators carry their own access tokens, so no headers are added.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher; timeout bounds a single fetch including the body read
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads one resource. Transport errors, non-2xx statuses and body
// read errors are all returned as *domain.FetchError. There are no retries.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, &domain.FetchError{Locator: locator, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// *url.Error repeats the tokenized URL in its message
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &domain.FetchError{Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &domain.FetchError{Locator: locator, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Locator: locator, Err: fmt.Errorf("read body: %w", err)}
	}

	return data, nil
}
