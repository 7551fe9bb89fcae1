package config

import "testing"

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ODDS_FEED_API_KEY", "key")

	if _, err := Load(); err == nil {
		t.Fatal("expected a missing DATABASE_URL to fail validation")
	}
}

func TestLoadAllowsMissingFeedKeyInTestEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/odds_test")
	t.Setenv("ODDS_FEED_API_KEY", "")
	t.Setenv("GO_ENV", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("test env must not require a feed key: %v", err)
	}
	if cfg.Feed.APIKey != "" {
		t.Fatalf("unexpected api key: %q", cfg.Feed.APIKey)
	}
}

func TestLoadWarnsButSucceedsWithoutJobSecretInProduction(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/odds")
	t.Setenv("ODDS_FEED_API_KEY", "key")
	t.Setenv("GO_ENV", "production")
	t.Setenv("JOB_SYNC_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("missing job secret must not fail startup: %v", err)
	}
	if cfg.Sync.JobSecret != "" {
		t.Fatalf("unexpected job secret: %q", cfg.Sync.JobSecret)
	}
}

func TestCredentialsAreSanitized(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/odds")
	t.Setenv("ODDS_FEED_API_KEY", ` "key-with-quotes" `)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Feed.APIKey != "key-with-quotes" {
		t.Fatalf("api key not sanitized: %q", cfg.Feed.APIKey)
	}
}
