/**
 * @description
 * HTTP Client for the external fixtures/odds provider.
 * Fetches fixtures and odds changed within a window, paginated by offset.
 * A token-bucket limiter sized to the provider's declared requests-per-minute
 * is shared across every call of a sync pass.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - golang.org/x/time/rate
 * - internal/config
 * - internal/apperrors
 */

package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/P2PPERU/sportbackend2-sub001/internal/apperrors"
	"github.com/P2PPERU/sportbackend2-sub001/internal/config"
)

const (
	DefaultTimeout = 10 * time.Second

	// pageSize is the provider's maximum page length.
	pageSize = 100
)

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Feed.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rpm := cfg.Feed.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	return &Client{
		BaseURL: cfg.Feed.BaseURL,
		APIKey:  cfg.Feed.APIKey,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm/6+1),
	}
}

// FetchFixtures pulls every fixture changed within the window.
func (c *Client) FetchFixtures(ctx context.Context, w Window) ([]FeedFixture, error) {
	const op = "oddsfeed.FetchFixtures"

	var all []FeedFixture
	offset := 0
	for {
		var page []FeedFixture
		if err := c.getJSON(ctx, op, "/fixtures", w, offset, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		offset += pageSize
	}
}

// FetchOdds pulls every odds quote observed within the window.
func (c *Client) FetchOdds(ctx context.Context, w Window) ([]FeedOdds, error) {
	const op = "oddsfeed.FetchOdds"

	var all []FeedOdds
	offset := 0
	for {
		var page []FeedOdds
		if err := c.getJSON(ctx, op, "/odds", w, offset, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		offset += pageSize
	}
}

func (c *Client) getJSON(ctx context.Context, op, path string, w Window, offset int, out interface{}) error {
	// Throttle before the call so a pass never exceeds the provider budget.
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.E(apperrors.KindUpstreamUnavailable, op, err)
	}

	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return apperrors.E(apperrors.KindUpstreamRejected, op, err)
	}

	q := u.Query()
	q.Set("from", w.From.UTC().Format(time.RFC3339))
	q.Set("to", w.To.UTC().Format(time.RFC3339))
	q.Set("limit", strconv.Itoa(pageSize))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return apperrors.E(apperrors.KindUpstreamRejected, op, err)
	}
	req.Header.Set("X-Api-Key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Network failures and timeouts: the provider cannot be reached.
		return apperrors.E(apperrors.KindUpstreamUnavailable, op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.Errorf(apperrors.KindUpstreamRateLimited, op, "feed api error: status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Errorf(apperrors.KindUpstreamRejected, op, "feed api error: status %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return apperrors.Errorf(apperrors.KindUpstreamUnavailable, op, "feed api error: status %d", resp.StatusCode)
	default:
		return apperrors.Errorf(apperrors.KindUpstreamRejected, op, "feed api error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A schema the decoder cannot read is structural, not transient.
		return apperrors.E(apperrors.KindUpstreamRejected, op, fmt.Errorf("malformed feed payload: %w", err))
	}
	return nil
}
