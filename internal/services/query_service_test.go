package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/P2PPERU/sportbackend2-sub001/internal/apperrors"
	"github.com/P2PPERU/sportbackend2-sub001/internal/cache"
	"github.com/P2PPERU/sportbackend2-sub001/internal/models"
	"github.com/P2PPERU/sportbackend2-sub001/internal/store"
	"github.com/P2PPERU/sportbackend2-sub001/internal/tz"
)

type rangeQuery struct {
	start, end time.Time
}

type fakeQueryStore struct {
	fixtures []models.Fixture
	quotes   []models.OddsQuote
	catalog  []models.BettingMarket

	rangeQueries []rangeQuery
	failReads    bool
}

var errStoreDown = errors.New("store down")

func (f *fakeQueryStore) FixturesByRange(ctx context.Context, startUTC, endUTC time.Time, league string, limit int) ([]models.Fixture, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	f.rangeQueries = append(f.rangeQueries, rangeQuery{startUTC, endUTC})

	var out []models.Fixture
	for _, fx := range f.fixtures {
		if !fx.KickoffUTC.Before(startUTC) && fx.KickoffUTC.Before(endUTC) {
			out = append(out, fx)
		}
	}
	return out, nil
}

func (f *fakeQueryStore) LiveFixtures(ctx context.Context, league string, limit int) ([]models.Fixture, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	var out []models.Fixture
	for _, fx := range f.fixtures {
		if fx.Status == models.StatusLive {
			out = append(out, fx)
		}
	}
	return out, nil
}

func (f *fakeQueryStore) SearchFixtures(ctx context.Context, filter store.FixtureFilter) ([]models.Fixture, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	return f.fixtures, nil
}

func (f *fakeQueryStore) FixtureByID(ctx context.Context, id uint) (*models.Fixture, error) {
	for i := range f.fixtures {
		if f.fixtures[i].ID == id {
			return &f.fixtures[i], nil
		}
	}
	return nil, apperrors.Errorf(apperrors.KindNotFound, "fake.FixtureByID", "fixture %d not found", id)
}

func (f *fakeQueryStore) CurrentQuotes(ctx context.Context, fixtureID uint, bookmaker string) ([]models.OddsQuote, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	var out []models.OddsQuote
	for _, q := range f.quotes {
		if q.FixtureID == fixtureID && (bookmaker == "" || q.Bookmaker == bookmaker) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQueryStore) MarketCatalog(ctx context.Context, category string, popularOnly bool) ([]models.BettingMarket, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	return f.catalog, nil
}

func (f *fakeQueryStore) QuoteStatsByBookmaker(ctx context.Context) ([]store.CountStat, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	return []store.CountStat{{Key: "BookmakerA", Count: 2}}, nil
}

func (f *fakeQueryStore) QuoteStatsByMarket(ctx context.Context) ([]store.CountStat, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	return []store.CountStat{{Key: "1X2", Count: 2}}, nil
}

func newTestService(t *testing.T, st *fakeQueryStore) (*QueryService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewQueryService(st, cache.New(rdb), tz.NewResolver("America/Lima"))
	return svc, mr
}

func TestFixturesByDayBoundsFollowRequestedZone(t *testing.T) {
	// Kickoff at 03:00 UTC on March 10: March 9 in Lima, March 10 in Madrid.
	st := &fakeQueryStore{fixtures: []models.Fixture{{
		ID:         1,
		ExternalID: "FX1",
		KickoffUTC: time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC),
		Status:     models.StatusScheduled,
	}}}
	svc, _ := newTestService(t, st)
	ctx := context.Background()

	limaResp, err := svc.FixturesByDay(ctx, "2024-03-09", "America/Lima", "", 0)
	if err != nil {
		t.Fatalf("lima query failed: %v", err)
	}
	madridResp, err := svc.FixturesByDay(ctx, "2024-03-09", "Europe/Madrid", "", 0)
	if err != nil {
		t.Fatalf("madrid query failed: %v", err)
	}

	if len(limaResp.Fixtures) != 1 {
		t.Fatalf("fixture must belong to March 9 in Lima, got %d fixtures", len(limaResp.Fixtures))
	}
	if len(madridResp.Fixtures) != 0 {
		t.Fatalf("fixture must not belong to March 9 in Madrid, got %d fixtures", len(madridResp.Fixtures))
	}

	// Both queries hit the store: distinct zones must never share an entry.
	if len(st.rangeQueries) != 2 {
		t.Fatalf("expected 2 store queries, got %d", len(st.rangeQueries))
	}
	if reflect.DeepEqual(st.rangeQueries[0], st.rangeQueries[1]) {
		t.Fatal("distinct zones produced identical UTC bounds")
	}

	if limaResp.Meta.Timezone != "America/Lima" || madridResp.Meta.Timezone != "Europe/Madrid" {
		t.Fatalf("responses must annotate their zone: %q / %q", limaResp.Meta.Timezone, madridResp.Meta.Timezone)
	}
}

func TestFixturesByDayServesSecondRequestFromCache(t *testing.T) {
	st := &fakeQueryStore{}
	svc, _ := newTestService(t, st)
	ctx := context.Background()

	if _, err := svc.FixturesByDay(ctx, "2024-03-09", "America/Lima", "", 0); err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	if _, err := svc.FixturesByDay(ctx, "2024-03-09", "America/Lima", "", 0); err != nil {
		t.Fatalf("second query failed: %v", err)
	}
	if len(st.rangeQueries) != 1 {
		t.Fatalf("expected 1 store query with a warm cache, got %d", len(st.rangeQueries))
	}
}

func TestInvalidTimezoneFallsBackAndAnnotates(t *testing.T) {
	st := &fakeQueryStore{}
	svc, _ := newTestService(t, st)

	resp, err := svc.FixturesByDay(context.Background(), "2024-03-09", "Mars/OlympusMons", "", 0)
	if err != nil {
		t.Fatalf("invalid zone must not fail the request: %v", err)
	}
	if !resp.Meta.TimezoneFallback {
		t.Fatal("expected the fallback annotation")
	}
	if resp.Meta.Timezone != "America/Lima" {
		t.Fatalf("expected the default zone, got %s", resp.Meta.Timezone)
	}
}

func TestMalformedDateIsRejected(t *testing.T) {
	st := &fakeQueryStore{}
	svc, _ := newTestService(t, st)
	ctx := context.Background()

	_, err := svc.FixturesByDay(ctx, "2024-13-40", "America/Lima", "", 0)
	if err == nil {
		t.Fatal("expected a malformed date to be rejected")
	}
	if apperrors.KindOf(err) != apperrors.KindInvalidDate {
		t.Fatalf("error kind = %s, want %s", apperrors.KindOf(err), apperrors.KindInvalidDate)
	}

	if _, err := svc.SearchFixtures(ctx, SearchParams{DateFrom: "garbage"}); apperrors.KindOf(err) != apperrors.KindInvalidDate {
		t.Fatalf("search from-date error kind = %s, want %s", apperrors.KindOf(err), apperrors.KindInvalidDate)
	}
	if _, err := svc.SearchFixtures(ctx, SearchParams{DateTo: "garbage"}); apperrors.KindOf(err) != apperrors.KindInvalidDate {
		t.Fatalf("search to-date error kind = %s, want %s", apperrors.KindOf(err), apperrors.KindInvalidDate)
	}

	// An omitted date still means "today" in the resolved zone.
	if _, err := svc.FixturesByDay(ctx, "", "America/Lima", "", 0); err != nil {
		t.Fatalf("empty date must resolve to today: %v", err)
	}
}

func TestStaleFallbackIsFlagged(t *testing.T) {
	st := &fakeQueryStore{fixtures: []models.Fixture{{
		ID:         1,
		ExternalID: "FX1",
		KickoffUTC: time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC),
	}}}
	svc, mr := newTestService(t, st)
	ctx := context.Background()

	first, err := svc.FixturesByDay(ctx, "2024-03-09", "America/Lima", "", 0)
	if err != nil {
		t.Fatalf("seed query failed: %v", err)
	}
	if first.Meta.Stale {
		t.Fatal("fresh response must not be stale")
	}

	// Expire the fresh entry, keep the stale replica, break the store.
	mr.FastForward(cache.TTLListing + time.Second)
	st.failReads = true

	degraded, err := svc.FixturesByDay(ctx, "2024-03-09", "America/Lima", "", 0)
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if !degraded.Meta.Stale {
		t.Fatal("degraded response must carry the staleness flag")
	}
	if len(degraded.Fixtures) != 1 {
		t.Fatalf("stale payload lost data: %d fixtures", len(degraded.Fixtures))
	}
}

func TestBestOddsReportsTies(t *testing.T) {
	st := &fakeQueryStore{
		fixtures: []models.Fixture{{ID: 7, ExternalID: "FX7", Status: models.StatusScheduled}},
		quotes: []models.OddsQuote{
			{FixtureID: 7, Bookmaker: "BookmakerA", MarketCode: "1X2", Outcome: "Home", Price: 2.10},
			{FixtureID: 7, Bookmaker: "BookmakerB", MarketCode: "1X2", Outcome: "Home", Price: 2.05},
			{FixtureID: 7, Bookmaker: "BookmakerC", MarketCode: "1X2", Outcome: "Home", Price: 2.10},
		},
		catalog: []models.BettingMarket{{Code: "1X2", Name: "Match Result", DisplayOrder: 10}},
	}
	svc, _ := newTestService(t, st)

	resp, err := svc.BestOddsForFixture(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("best odds failed: %v", err)
	}
	if len(resp.Outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(resp.Outcomes))
	}
	best := resp.Outcomes[0]
	if best.BestPrice != 2.10 {
		t.Fatalf("best price = %v, want 2.10", best.BestPrice)
	}
	if want := []string{"BookmakerA", "BookmakerC"}; !reflect.DeepEqual(best.Bookmakers, want) {
		t.Fatalf("tied bookmakers = %v, want %v", best.Bookmakers, want)
	}
}

func TestOddsForUnknownFixture(t *testing.T) {
	svc, _ := newTestService(t, &fakeQueryStore{})

	_, err := svc.OddsForFixture(context.Background(), 99, "", "")
	if err == nil {
		t.Fatal("expected an error for an unknown fixture")
	}
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Fatalf("error kind = %s, want %s", apperrors.KindOf(err), apperrors.KindNotFound)
	}
}

func TestGenerationBumpForcesReload(t *testing.T) {
	st := &fakeQueryStore{}
	svc, mr := newTestService(t, st)
	ctx := context.Background()

	if _, err := svc.FixturesByDay(ctx, "2024-03-09", "America/Lima", "", 0); err != nil {
		t.Fatalf("first query failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	if _, err := cache.New(rdb).BumpGeneration(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}

	if _, err := svc.FixturesByDay(ctx, "2024-03-09", "America/Lima", "", 0); err != nil {
		t.Fatalf("post-bump query failed: %v", err)
	}
	if len(st.rangeQueries) != 2 {
		t.Fatalf("generation bump must force a reload, got %d store queries", len(st.rangeQueries))
	}
}
