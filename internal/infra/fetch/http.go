// Package fetch provides widget.Fetcher implementations.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"staycal/internal/app/widget"
	"staycal/internal/domain/calendar"
)

var ErrUnexpectedStatus = errors.New("fetch: unexpected status")

// HTTPFetcher GETs payloads from a remote availability endpoint. Concurrent
// requests for the same path share one round trip. Any 2xx is accepted (204
// is an empty payload); other statuses wrap ErrUnexpectedStatus.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	group   singleflight.Group
}

func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req widget.FetchRequest) (calendar.Payload, error) {
	url := f.baseURL + req.Path()
	v, err, _ := f.group.Do(url, func() (any, error) {
		return f.get(ctx, url)
	})
	if err != nil {
		return calendar.Payload{}, err
	}
	return v.(calendar.Payload), nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (calendar.Payload, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return calendar.Payload{}, fmt.Errorf("fetch: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return calendar.Payload{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return calendar.Payload{}, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	if resp.StatusCode == http.StatusNoContent {
		return calendar.Payload{}, nil
	}
	var p calendar.Payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return calendar.Payload{}, fmt.Errorf("fetch: decode payload: %w", err)
	}
	return p, nil
}

var _ widget.Fetcher = (*HTTPFetcher)(nil)
