/**
 * @description
 * Read-path service composing the timezone normalizer, the response cache,
 * the canonical store and the odds aggregation engine.
 * Every operation resolves the requested zone first, derives UTC bounds from
 * it, and folds the resolved zone into the cache key, so a query and its
 * cached entry always agree on which zone produced the boundaries.
 *
 * @dependencies
 * - internal/store
 * - internal/cache
 * - internal/tz
 * - internal/odds
 * - internal/apperrors
 */

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/P2PPERU/sportbackend2-sub001/internal/apperrors"
	"github.com/P2PPERU/sportbackend2-sub001/internal/cache"
	"github.com/P2PPERU/sportbackend2-sub001/internal/models"
	"github.com/P2PPERU/sportbackend2-sub001/internal/odds"
	"github.com/P2PPERU/sportbackend2-sub001/internal/store"
	"github.com/P2PPERU/sportbackend2-sub001/internal/tz"
)

// QueryStore is the read capability the service consumes from the canonical
// store, injectable as a fake in tests.
type QueryStore interface {
	FixturesByRange(ctx context.Context, startUTC, endUTC time.Time, leagueExternalID string, limit int) ([]models.Fixture, error)
	LiveFixtures(ctx context.Context, leagueExternalID string, limit int) ([]models.Fixture, error)
	SearchFixtures(ctx context.Context, f store.FixtureFilter) ([]models.Fixture, error)
	FixtureByID(ctx context.Context, id uint) (*models.Fixture, error)
	CurrentQuotes(ctx context.Context, fixtureID uint, bookmaker string) ([]models.OddsQuote, error)
	MarketCatalog(ctx context.Context, category string, popularOnly bool) ([]models.BettingMarket, error)
	QuoteStatsByBookmaker(ctx context.Context) ([]store.CountStat, error)
	QuoteStatsByMarket(ctx context.Context) ([]store.CountStat, error)
}

// Meta annotates every response with the zone that produced its boundaries
// and whether the payload came from the stale fallback.
type Meta struct {
	Timezone         string `json:"timezone"`
	TimezoneFallback bool   `json:"timezone_fallback,omitempty"`
	Date             string `json:"date,omitempty"`
	Stale            bool   `json:"stale,omitempty"`
}

type FixturesResponse struct {
	Meta     Meta             `json:"meta"`
	Fixtures []models.Fixture `json:"fixtures"`
}

type OddsResponse struct {
	Meta      Meta              `json:"meta"`
	FixtureID uint              `json:"fixture_id"`
	Markets   []odds.MarketOdds `json:"markets"`
}

type BestOddsResponse struct {
	Meta      Meta               `json:"meta"`
	FixtureID uint               `json:"fixture_id"`
	Outcomes  []odds.BestOutcome `json:"outcomes"`
}

type StatsResponse struct {
	Meta       Meta              `json:"meta"`
	Bookmakers []store.CountStat `json:"bookmakers"`
	Markets    []store.CountStat `json:"markets"`
}

type CatalogResponse struct {
	Markets []models.BettingMarket `json:"markets"`
}

// SearchParams narrows fixture search. Dates are YYYY-MM-DD in the requested
// zone.
type SearchParams struct {
	Timezone string
	League   string
	Status   string
	Team     string
	DateFrom string
	DateTo   string
	Limit    int
}

type QueryService struct {
	store QueryStore
	cache *cache.Cache
	zones *tz.Resolver
	now   func() time.Time
}

func NewQueryService(st QueryStore, c *cache.Cache, zones *tz.Resolver) *QueryService {
	return &QueryService{store: st, cache: c, zones: zones, now: time.Now}
}

// FixturesByDay lists fixtures of one local calendar day. An empty date means
// "today" in the resolved zone; a malformed date is rejected.
func (s *QueryService) FixturesByDay(ctx context.Context, date, zoneName, league string, limit int) (*FixturesResponse, error) {
	loc, fellBack := s.zones.Resolve(zoneName)

	day, ok := tz.ParseDate(date)
	if !ok {
		if date != "" {
			return nil, apperrors.Errorf(apperrors.KindInvalidDate, "services.FixturesByDay", "malformed date %q", date)
		}
		day = s.now().In(loc)
	}
	startUTC, endUTC := tz.DayBounds(day, loc)
	meta := Meta{
		Timezone:         loc.String(),
		TimezoneFallback: fellBack,
		Date:             day.Format(tz.DateLayout),
	}

	key := s.key(ctx, "fixtures-day",
		startUTC.Format(time.RFC3339), endUTC.Format(time.RFC3339),
		loc.String(), league, strconv.Itoa(limit))

	resp := &FixturesResponse{}
	err := s.cached(ctx, key, cache.TTLListing, resp, func(loadCtx context.Context) (interface{}, error) {
		fixtures, err := s.store.FixturesByRange(loadCtx, startUTC, endUTC, league, limit)
		if err != nil {
			return nil, err
		}
		return &FixturesResponse{Meta: meta, Fixtures: localize(fixtures, loc)}, nil
	})
	if err != nil {
		return nil, err
	}
	// The fallback annotation is per-request: an invalid zone shares its
	// cache entry with explicit default-zone requests.
	resp.Meta.TimezoneFallback = fellBack
	return resp, nil
}

// LiveFixtures lists fixtures currently in play.
func (s *QueryService) LiveFixtures(ctx context.Context, zoneName, league string, limit int) (*FixturesResponse, error) {
	loc, fellBack := s.zones.Resolve(zoneName)
	key := s.key(ctx, "fixtures-live", loc.String(), league, strconv.Itoa(limit))

	resp := &FixturesResponse{}
	err := s.cached(ctx, key, cache.TTLLive, resp, func(loadCtx context.Context) (interface{}, error) {
		fixtures, err := s.store.LiveFixtures(loadCtx, league, limit)
		if err != nil {
			return nil, err
		}
		return &FixturesResponse{
			Meta:     Meta{Timezone: loc.String(), TimezoneFallback: fellBack},
			Fixtures: localize(fixtures, loc),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	resp.Meta.TimezoneFallback = fellBack
	return resp, nil
}

// SearchFixtures applies an arbitrary filter combination. Date bounds follow
// the requested zone's midnights like every other date-scoped query.
func (s *QueryService) SearchFixtures(ctx context.Context, p SearchParams) (*FixturesResponse, error) {
	loc, fellBack := s.zones.Resolve(p.Timezone)

	filter := store.FixtureFilter{
		LeagueExternalID: p.League,
		Status:           p.Status,
		TeamName:         p.Team,
		Limit:            p.Limit,
	}
	if p.DateFrom != "" {
		day, ok := tz.ParseDate(p.DateFrom)
		if !ok {
			return nil, apperrors.Errorf(apperrors.KindInvalidDate, "services.SearchFixtures", "malformed from date %q", p.DateFrom)
		}
		filter.From, _ = tz.DayBounds(day, loc)
	}
	if p.DateTo != "" {
		day, ok := tz.ParseDate(p.DateTo)
		if !ok {
			return nil, apperrors.Errorf(apperrors.KindInvalidDate, "services.SearchFixtures", "malformed to date %q", p.DateTo)
		}
		_, filter.To = tz.DayBounds(day, loc)
	}

	key := s.key(ctx, "fixtures-search",
		loc.String(), p.League, p.Status, p.Team,
		filter.From.Format(time.RFC3339), filter.To.Format(time.RFC3339),
		strconv.Itoa(p.Limit))

	resp := &FixturesResponse{}
	err := s.cached(ctx, key, cache.TTLListing, resp, func(loadCtx context.Context) (interface{}, error) {
		fixtures, err := s.store.SearchFixtures(loadCtx, filter)
		if err != nil {
			return nil, err
		}
		return &FixturesResponse{
			Meta:     Meta{Timezone: loc.String(), TimezoneFallback: fellBack},
			Fixtures: localize(fixtures, loc),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	resp.Meta.TimezoneFallback = fellBack
	return resp, nil
}

// OddsForFixture aggregates the fixture's current quotes per market.
func (s *QueryService) OddsForFixture(ctx context.Context, fixtureID uint, bookmaker, zoneName string) (*OddsResponse, error) {
	loc, fellBack, ttl, err := s.oddsContext(ctx, fixtureID, zoneName)
	if err != nil {
		return nil, err
	}

	key := s.key(ctx, "odds", strconv.FormatUint(uint64(fixtureID), 10), bookmaker, loc.String())

	resp := &OddsResponse{}
	err = s.cached(ctx, key, ttl, resp, func(loadCtx context.Context) (interface{}, error) {
		markets, err := s.aggregate(loadCtx, fixtureID, bookmaker)
		if err != nil {
			return nil, err
		}
		return &OddsResponse{
			Meta:      Meta{Timezone: loc.String(), TimezoneFallback: fellBack},
			FixtureID: fixtureID,
			Markets:   markets,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	resp.Meta.TimezoneFallback = fellBack
	return resp, nil
}

// BestOddsForFixture reduces the aggregation to the best price per outcome,
// reporting every bookmaker tied at the maximum.
func (s *QueryService) BestOddsForFixture(ctx context.Context, fixtureID uint, zoneName string) (*BestOddsResponse, error) {
	loc, fellBack, ttl, err := s.oddsContext(ctx, fixtureID, zoneName)
	if err != nil {
		return nil, err
	}

	key := s.key(ctx, "best-odds", strconv.FormatUint(uint64(fixtureID), 10), loc.String())

	resp := &BestOddsResponse{}
	err = s.cached(ctx, key, ttl, resp, func(loadCtx context.Context) (interface{}, error) {
		markets, err := s.aggregate(loadCtx, fixtureID, "")
		if err != nil {
			return nil, err
		}
		return &BestOddsResponse{
			Meta:      Meta{Timezone: loc.String(), TimezoneFallback: fellBack},
			FixtureID: fixtureID,
			Outcomes:  odds.Best(markets),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	resp.Meta.TimezoneFallback = fellBack
	return resp, nil
}

// Stats counts current quotes per bookmaker and per market.
func (s *QueryService) Stats(ctx context.Context) (*StatsResponse, error) {
	key := s.key(ctx, "odds-stats")

	resp := &StatsResponse{}
	err := s.cached(ctx, key, cache.TTLListing, resp, func(loadCtx context.Context) (interface{}, error) {
		byBookmaker, err := s.store.QuoteStatsByBookmaker(loadCtx)
		if err != nil {
			return nil, err
		}
		byMarket, err := s.store.QuoteStatsByMarket(loadCtx)
		if err != nil {
			return nil, err
		}
		return &StatsResponse{
			Meta:       Meta{Timezone: s.zones.Default().String()},
			Bookmakers: byBookmaker,
			Markets:    byMarket,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// MarketCatalog lists the betting-market catalog in display order. Static
// data: cached without expiry until the generation is bumped.
func (s *QueryService) MarketCatalog(ctx context.Context, category string, popularOnly bool) (*CatalogResponse, error) {
	key := s.key(ctx, "catalog", category, strconv.FormatBool(popularOnly))

	resp := &CatalogResponse{}
	err := s.cached(ctx, key, cache.TTLCatalog, resp, func(loadCtx context.Context) (interface{}, error) {
		catalog, err := s.store.MarketCatalog(loadCtx, category, popularOnly)
		if err != nil {
			return nil, err
		}
		return &CatalogResponse{Markets: catalog}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// oddsContext resolves the zone and picks the TTL class for a fixture's odds:
// seconds-scale while in play, minutes-scale otherwise. The existence check
// runs before the cache so unknown fixtures fail typed instead of caching an
// empty aggregate.
func (s *QueryService) oddsContext(ctx context.Context, fixtureID uint, zoneName string) (loc *time.Location, fellBack bool, ttl time.Duration, err error) {
	loc, fellBack = s.zones.Resolve(zoneName)

	fixture, err := s.store.FixtureByID(ctx, fixtureID)
	if err != nil {
		return nil, false, 0, err
	}

	ttl = cache.TTLListing
	if fixture.Status == models.StatusLive {
		ttl = cache.TTLLive
	}
	return loc, fellBack, ttl, nil
}

func (s *QueryService) aggregate(ctx context.Context, fixtureID uint, bookmaker string) ([]odds.MarketOdds, error) {
	quotes, err := s.store.CurrentQuotes(ctx, fixtureID, bookmaker)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.MarketCatalog(ctx, "", false)
	if err != nil {
		return nil, err
	}
	return odds.Aggregate(quotes, catalog), nil
}

// cached runs loader through the single-flight cache and unmarshals the
// (possibly stale) payload into out, marking Meta.Stale via the staleness
// flag the cache reports.
func (s *QueryService) cached(ctx context.Context, key string, ttl time.Duration, out interface{}, loader func(context.Context) (interface{}, error)) error {
	payload, stale, err := s.cache.GetOrLoad(ctx, key, ttl, func(loadCtx context.Context) ([]byte, error) {
		value, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.E(apperrors.KindInternal, "services.cached", err)
	}
	if stale {
		setStale(out)
	}
	return nil
}

func setStale(out interface{}) {
	switch r := out.(type) {
	case *FixturesResponse:
		r.Meta.Stale = true
	case *OddsResponse:
		r.Meta.Stale = true
	case *BestOddsResponse:
		r.Meta.Stale = true
	case *StatsResponse:
		r.Meta.Stale = true
	}
}

// key builds a generation-scoped cache key: endpoint kind plus a digest of
// the normalized query signature. The resolved zone is always part of the
// signature, so cross-zone queries can never share an entry.
func (s *QueryService) key(ctx context.Context, endpoint string, parts ...string) string {
	sig := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(sig))
	return fmt.Sprintf("q:%s:g%s:%s", endpoint, s.cache.Generation(ctx), hex.EncodeToString(sum[:8]))
}

func localize(fixtures []models.Fixture, loc *time.Location) []models.Fixture {
	for i := range fixtures {
		fixtures[i].KickoffLocal = tz.ToZone(fixtures[i].KickoffUTC, loc).Format(time.RFC3339)
	}
	return fixtures
}
