package oddsfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/P2PPERU/sportbackend2-sub001/internal/apperrors"
	"github.com/P2PPERU/sportbackend2-sub001/internal/config"
)

func testClient(baseURL string) *Client {
	cfg := &config.Config{}
	cfg.Feed.BaseURL = baseURL
	cfg.Feed.APIKey = "test-key"
	cfg.Feed.RequestsPerMinute = 6000
	cfg.Feed.Timeout = 2 * time.Second
	return NewClient(cfg)
}

func testWindow() Window {
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	return Window{From: to.Add(-24 * time.Hour), To: to}
}

func TestFetchFixturesPaginates(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		requests = append(requests, r.URL.Query().Get("offset"))

		page := make([]FeedFixture, 0, pageSize)
		if r.URL.Query().Get("offset") == "" {
			for i := 0; i < pageSize; i++ {
				page = append(page, FeedFixture{ID: "fx"})
			}
		} else {
			page = append(page, FeedFixture{ID: "fx-last"})
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	fixtures, err := testClient(srv.URL).FetchFixtures(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("FetchFixtures failed: %v", err)
	}
	if len(fixtures) != pageSize+1 {
		t.Fatalf("expected %d fixtures, got %d", pageSize+1, len(fixtures))
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(requests))
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   apperrors.Kind
	}{
		{http.StatusTooManyRequests, apperrors.KindUpstreamRateLimited},
		{http.StatusUnauthorized, apperrors.KindUpstreamRejected},
		{http.StatusForbidden, apperrors.KindUpstreamRejected},
		{http.StatusBadGateway, apperrors.KindUpstreamUnavailable},
		{http.StatusBadRequest, apperrors.KindUpstreamRejected},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := testClient(srv.URL).FetchOdds(context.Background(), testWindow())
		srv.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := apperrors.KindOf(err); got != tc.kind {
			t.Fatalf("status %d: kind = %s, want %s", tc.status, got, tc.kind)
		}
	}
}

func TestMalformedPayloadIsStructural(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchOdds(context.Background(), testWindow())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if apperrors.IsRetryable(err) {
		t.Fatal("malformed payload must not be retryable")
	}
}

func TestUnreachableProviderIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := testClient(srv.URL).FetchFixtures(context.Background(), testWindow())
	if err == nil {
		t.Fatal("expected network error")
	}
	if !apperrors.IsRetryable(err) {
		t.Fatalf("network failure must be retryable, got kind %s", apperrors.KindOf(err))
	}
}
