/**
 * @description
 * Sync orchestrator.
 * Pulls fixtures and odds changed within a window from the feed provider and
 * reconciles them into the canonical store idempotently. Resource types fail
 * independently: a broken odds pull still lets fixtures update, and the pass
 * reports a structured, degraded result instead of aborting. Transient feed
 * failures retry with bounded exponential backoff; structural failures
 * (auth rejection, malformed schema) fail the resource immediately.
 *
 * @dependencies
 * - github.com/google/uuid: pass ids
 * - internal/oddsfeed
 * - internal/models
 * - internal/apperrors
 */

package syncer

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/P2PPERU/sportbackend2-sub001/internal/apperrors"
	"github.com/P2PPERU/sportbackend2-sub001/internal/logger"
	"github.com/P2PPERU/sportbackend2-sub001/internal/models"
	"github.com/P2PPERU/sportbackend2-sub001/internal/oddsfeed"
)

// FeedClient is the provider capability the orchestrator consumes.
type FeedClient interface {
	FetchFixtures(ctx context.Context, w oddsfeed.Window) ([]oddsfeed.FeedFixture, error)
	FetchOdds(ctx context.Context, w oddsfeed.Window) ([]oddsfeed.FeedOdds, error)
}

// Store is the canonical-store capability the orchestrator consumes.
type Store interface {
	UpsertLeagues(ctx context.Context, leagues []models.League) error
	UpsertTeams(ctx context.Context, teams []models.Team) error
	UpsertFixtures(ctx context.Context, fixtures []models.Fixture) error
	UpsertQuotes(ctx context.Context, quotes []models.OddsQuote) error
	LeagueIDsByExternal(ctx context.Context, externalIDs []string) (map[string]uint, error)
	TeamIDsByExternal(ctx context.Context, externalIDs []string) (map[string]uint, error)
	FixtureIDsByExternal(ctx context.Context, externalIDs []string) (map[string]uint, error)
}

// ResourceResult reports one resource type's outcome within a pass.
type ResourceResult struct {
	Fetched   int    `json:"fetched"`
	Upserted  int    `json:"upserted"`
	Skipped   int    `json:"skipped"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func (r ResourceResult) failed() bool {
	return r.Error != ""
}

func (r *ResourceResult) fail(err error) {
	r.Error = err.Error()
	r.ErrorKind = apperrors.KindOf(err).String()
}

// Result is the structured outcome of one sync pass.
type Result struct {
	PassID     string         `json:"pass_id"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Fixtures   ResourceResult `json:"fixtures"`
	Odds       ResourceResult `json:"odds"`
	Degraded   bool           `json:"degraded"`
}

// Orchestrator reconciles the feed into the store. Dependencies are injected
// so passes run identically against fakes in tests.
type Orchestrator struct {
	feed  FeedClient
	store Store

	maxAttempts int
	baseBackoff time.Duration
	now         func() time.Time
}

func New(feed FeedClient, store Store, maxAttempts int) *Orchestrator {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return &Orchestrator{
		feed:        feed,
		store:       store,
		maxAttempts: maxAttempts,
		baseBackoff: 500 * time.Millisecond,
		now:         time.Now,
	}
}

// Sync runs one pass over the window. Re-running the same window is a no-op:
// every write is an upsert keyed by external identity, with the newer
// observation winning conflicts.
func (o *Orchestrator) Sync(ctx context.Context, w oddsfeed.Window) Result {
	result := Result{
		PassID:    uuid.NewString(),
		From:      w.From,
		To:        w.To,
		StartedAt: o.now(),
	}

	logger.Info("🔄 Sync pass %s: window [%s, %s)", result.PassID,
		w.From.UTC().Format(time.RFC3339), w.To.UTC().Format(time.RFC3339))

	o.syncFixtures(ctx, w, &result.Fixtures)
	// Odds reconcile even when the fixture pull failed: quotes resolve
	// against fixtures already in the store.
	o.syncOdds(ctx, w, &result.Odds)

	result.FinishedAt = o.now()
	result.Degraded = result.Fixtures.failed() || result.Odds.failed()

	if result.Degraded {
		logger.Error("⚠️ Sync pass %s degraded: fixtures=%q odds=%q",
			result.PassID, result.Fixtures.Error, result.Odds.Error)
	} else {
		logger.Info("✅ Sync pass %s: %d fixtures, %d quotes upserted",
			result.PassID, result.Fixtures.Upserted, result.Odds.Upserted)
	}
	return result
}

func (o *Orchestrator) syncFixtures(ctx context.Context, w oddsfeed.Window, res *ResourceResult) {
	var raws []oddsfeed.FeedFixture
	err := o.withRetry(ctx, func() error {
		var fetchErr error
		raws, fetchErr = o.feed.FetchFixtures(ctx, w)
		return fetchErr
	})
	if err != nil {
		res.fail(err)
		return
	}
	res.Fetched = len(raws)

	if err := o.reconcileFixtures(ctx, raws, res); err != nil {
		res.fail(err)
	}
}

func (o *Orchestrator) syncOdds(ctx context.Context, w oddsfeed.Window, res *ResourceResult) {
	var raws []oddsfeed.FeedOdds
	err := o.withRetry(ctx, func() error {
		var fetchErr error
		raws, fetchErr = o.feed.FetchOdds(ctx, w)
		return fetchErr
	})
	if err != nil {
		res.fail(err)
		return
	}
	res.Fetched = len(raws)

	if err := o.reconcileOdds(ctx, raws, res); err != nil {
		res.fail(err)
	}
}

func (o *Orchestrator) reconcileFixtures(ctx context.Context, raws []oddsfeed.FeedFixture, res *ResourceResult) error {
	if len(raws) == 0 {
		return nil
	}
	observedAt := o.now().UTC()

	leagues := make(map[string]models.League)
	teams := make(map[string]models.Team)
	for _, f := range raws {
		leagues[f.League.ID] = models.League{
			ExternalID: f.League.ID,
			Name:       f.League.Name,
			Country:    f.League.Country,
			LogoURL:    f.League.Logo,
			SyncedAt:   observedAt,
		}
		for _, t := range []oddsfeed.FeedTeam{f.HomeTeam, f.AwayTeam} {
			teams[t.ID] = models.Team{
				ExternalID: t.ID,
				Name:       t.Name,
				ShortCode:  t.Short,
				LogoURL:    t.Logo,
				SyncedAt:   observedAt,
			}
		}
	}

	if err := o.store.UpsertLeagues(ctx, mapValues(leagues)); err != nil {
		return err
	}
	if err := o.store.UpsertTeams(ctx, mapValues(teams)); err != nil {
		return err
	}

	leagueIDs, err := o.store.LeagueIDsByExternal(ctx, mapKeys(leagues))
	if err != nil {
		return err
	}
	teamIDs, err := o.store.TeamIDsByExternal(ctx, mapKeys(teams))
	if err != nil {
		return err
	}

	// Dedup fixtures within the window: a record can page through twice.
	dedup := make(map[string]models.Fixture, len(raws))
	for _, f := range raws {
		leagueID, ok := leagueIDs[f.League.ID]
		if !ok {
			res.Skipped++
			continue
		}
		homeID, okHome := teamIDs[f.HomeTeam.ID]
		awayID, okAway := teamIDs[f.AwayTeam.ID]
		if !okHome || !okAway {
			res.Skipped++
			continue
		}
		dedup[f.ID] = models.Fixture{
			ExternalID:   f.ID,
			LeagueID:     leagueID,
			HomeTeamID:   homeID,
			AwayTeamID:   awayID,
			KickoffUTC:   f.Kickoff.UTC(),
			Status:       normalizeStatus(f.Status),
			LastSyncedAt: observedAt,
		}
	}

	batch := mapValues(dedup)
	if err := o.store.UpsertFixtures(ctx, batch); err != nil {
		return err
	}
	res.Upserted = len(batch)
	return nil
}

func (o *Orchestrator) reconcileOdds(ctx context.Context, raws []oddsfeed.FeedOdds, res *ResourceResult) error {
	if len(raws) == 0 {
		return nil
	}

	fixtureExt := make(map[string]struct{}, len(raws))
	for _, q := range raws {
		fixtureExt[q.FixtureID] = struct{}{}
	}
	ids := make([]string, 0, len(fixtureExt))
	for id := range fixtureExt {
		ids = append(ids, id)
	}
	fixtureIDs, err := o.store.FixtureIDsByExternal(ctx, ids)
	if err != nil {
		return err
	}

	// Dedup by quote identity: when the window carries several observations
	// of one (fixture, bookmaker, market, outcome), the newest wins here and
	// the store's observed_at guard resolves the rest.
	type quoteKey struct {
		fixtureID  uint
		bookmaker  string
		marketCode string
		outcome    string
	}
	dedup := make(map[quoteKey]models.OddsQuote, len(raws))
	for _, q := range raws {
		fixtureID, ok := fixtureIDs[q.FixtureID]
		if !ok {
			// Quote for a fixture the store has never observed.
			res.Skipped++
			continue
		}
		key := quoteKey{fixtureID, q.Bookmaker, q.MarketCode, q.Outcome}
		if prev, exists := dedup[key]; exists && prev.ObservedAt.After(q.ObservedAt) {
			continue
		}
		dedup[key] = models.OddsQuote{
			FixtureID:  fixtureID,
			Bookmaker:  q.Bookmaker,
			MarketCode: q.MarketCode,
			Outcome:    q.Outcome,
			Price:      q.Price,
			ObservedAt: q.ObservedAt.UTC(),
		}
	}

	batch := make([]models.OddsQuote, 0, len(dedup))
	for _, q := range dedup {
		batch = append(batch, q)
	}
	if err := o.store.UpsertQuotes(ctx, batch); err != nil {
		return err
	}
	res.Upserted = len(batch)
	return nil
}

// withRetry retries transient failures with jittered exponential backoff.
// Structural failures return immediately.
func (o *Orchestrator) withRetry(ctx context.Context, fn func() error) error {
	var err error
	backoff := o.baseBackoff
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !apperrors.IsRetryable(err) || attempt == o.maxAttempts {
			return err
		}

		sleep := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		backoff *= 2
	}
	return err
}

func normalizeStatus(status string) string {
	switch status {
	case models.StatusScheduled, models.StatusLive, models.StatusFinished,
		models.StatusPostponed, models.StatusCancelled:
		return status
	default:
		return models.StatusScheduled
	}
}

func mapValues[V any](m map[string]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func mapKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
