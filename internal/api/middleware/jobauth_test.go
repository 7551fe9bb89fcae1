package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newGuardedServer(t *testing.T, secret string) *httptest.Server {
	t.Helper()
	app := fiber.New()
	app.Post("/job", RequireJobSecret(secret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, secret string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if secret != "" {
		req.Header.Set("X-Job-Secret", secret)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRequireJobSecret(t *testing.T) {
	srv := newGuardedServer(t, "s3cret")

	if got := post(t, srv.URL+"/job", "s3cret"); got != http.StatusOK {
		t.Fatalf("valid secret: status = %d, want 200", got)
	}
	if got := post(t, srv.URL+"/job", "wrong"); got != http.StatusUnauthorized {
		t.Fatalf("wrong secret: status = %d, want 401", got)
	}
	if got := post(t, srv.URL+"/job", ""); got != http.StatusUnauthorized {
		t.Fatalf("missing secret: status = %d, want 401", got)
	}
}

func TestUnsetSecretRejectsEverything(t *testing.T) {
	srv := newGuardedServer(t, "")

	if got := post(t, srv.URL+"/job", "anything"); got != http.StatusUnauthorized {
		t.Fatalf("unset secret: status = %d, want 401", got)
	}
}
