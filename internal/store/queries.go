/**
 * @description
 * Read queries backing the query service.
 * All fixture ranges are half-open UTC intervals computed upstream by the
 * timezone normalizer; the store itself never reasons about zones.
 *
 * @dependencies
 * - gorm.io/gorm
 * - internal/models
 * - internal/apperrors
 */

package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/P2PPERU/sportbackend2-sub001/internal/apperrors"
	"github.com/P2PPERU/sportbackend2-sub001/internal/models"
)

// FixtureFilter narrows fixture queries. Zero values mean "no filter".
type FixtureFilter struct {
	LeagueExternalID string
	Status           string
	TeamName         string
	From             time.Time
	To               time.Time
	Limit            int
}

// FixturesByRange returns fixtures kicking off within [startUTC, endUTC),
// ordered by kickoff.
func (s *Store) FixturesByRange(ctx context.Context, startUTC, endUTC time.Time, leagueExternalID string, limit int) ([]models.Fixture, error) {
	q := s.db.WithContext(ctx).Model(&models.Fixture{}).
		Preload("League").Preload("HomeTeam").Preload("AwayTeam").
		Where("kickoff_utc >= ? AND kickoff_utc < ?", startUTC, endUTC).
		Order("kickoff_utc ASC")

	if leagueExternalID != "" {
		q = q.Joins("JOIN leagues ON leagues.id = fixtures.league_id").
			Where("leagues.external_id = ?", leagueExternalID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var fixtures []models.Fixture
	if err := q.Find(&fixtures).Error; err != nil {
		return nil, apperrors.E(apperrors.KindInternal, "store.FixturesByRange", err)
	}
	return fixtures, nil
}

// LiveFixtures returns fixtures currently in play.
func (s *Store) LiveFixtures(ctx context.Context, leagueExternalID string, limit int) ([]models.Fixture, error) {
	return s.SearchFixtures(ctx, FixtureFilter{
		LeagueExternalID: leagueExternalID,
		Status:           models.StatusLive,
		Limit:            limit,
	})
}

// SearchFixtures applies an arbitrary filter combination.
func (s *Store) SearchFixtures(ctx context.Context, f FixtureFilter) ([]models.Fixture, error) {
	q := s.db.WithContext(ctx).Model(&models.Fixture{}).
		Preload("League").Preload("HomeTeam").Preload("AwayTeam").
		Order("kickoff_utc ASC")

	if f.LeagueExternalID != "" {
		q = q.Joins("JOIN leagues ON leagues.id = fixtures.league_id").
			Where("leagues.external_id = ?", f.LeagueExternalID)
	}
	if f.Status != "" {
		q = q.Where("fixtures.status = ?", f.Status)
	}
	if f.TeamName != "" {
		pattern := "%" + f.TeamName + "%"
		q = q.Joins("JOIN teams AS home ON home.id = fixtures.home_team_id").
			Joins("JOIN teams AS away ON away.id = fixtures.away_team_id").
			Where("home.name ILIKE ? OR away.name ILIKE ?", pattern, pattern)
	}
	if !f.From.IsZero() {
		q = q.Where("fixtures.kickoff_utc >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("fixtures.kickoff_utc < ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var fixtures []models.Fixture
	if err := q.Find(&fixtures).Error; err != nil {
		return nil, apperrors.E(apperrors.KindInternal, "store.SearchFixtures", err)
	}
	return fixtures, nil
}

// FixtureByID loads one fixture with its references.
func (s *Store) FixtureByID(ctx context.Context, id uint) (*models.Fixture, error) {
	var fixture models.Fixture
	err := s.db.WithContext(ctx).
		Preload("League").Preload("HomeTeam").Preload("AwayTeam").
		First(&fixture, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Errorf(apperrors.KindNotFound, "store.FixtureByID", "fixture %d not found", id)
		}
		return nil, apperrors.E(apperrors.KindInternal, "store.FixtureByID", err)
	}
	return &fixture, nil
}

// CurrentQuotes returns the current quotes of a fixture, optionally filtered
// by bookmaker. The unique (fixture, bookmaker, market, outcome) constraint
// guarantees one row per tuple.
func (s *Store) CurrentQuotes(ctx context.Context, fixtureID uint, bookmaker string) ([]models.OddsQuote, error) {
	q := s.db.WithContext(ctx).Model(&models.OddsQuote{}).
		Where("fixture_id = ?", fixtureID)
	if bookmaker != "" {
		q = q.Where("bookmaker = ?", bookmaker)
	}

	var quotes []models.OddsQuote
	if err := q.Find(&quotes).Error; err != nil {
		return nil, apperrors.E(apperrors.KindInternal, "store.CurrentQuotes", err)
	}
	return quotes, nil
}

// MarketCatalog lists catalog entries in display order.
func (s *Store) MarketCatalog(ctx context.Context, category string, popularOnly bool) ([]models.BettingMarket, error) {
	q := s.db.WithContext(ctx).Model(&models.BettingMarket{})
	if category != "" {
		q = q.Where("category = ?", category).Order("category, display_order")
	} else {
		q = q.Order("display_order")
	}
	if popularOnly {
		q = q.Where("is_popular = ?", true)
	}

	var catalog []models.BettingMarket
	if err := q.Find(&catalog).Error; err != nil {
		return nil, apperrors.E(apperrors.KindInternal, "store.MarketCatalog", err)
	}
	return catalog, nil
}

// CountStat is one aggregate-stats row.
type CountStat struct {
	Key   string `gorm:"column:key" json:"key"`
	Count int64  `gorm:"column:count" json:"count"`
}

// QuoteStatsByBookmaker counts current quotes per bookmaker.
func (s *Store) QuoteStatsByBookmaker(ctx context.Context) ([]CountStat, error) {
	var stats []CountStat
	err := s.db.WithContext(ctx).Model(&models.OddsQuote{}).
		Select("bookmaker AS key, COUNT(*) AS count").
		Group("bookmaker").
		Order("count DESC, key ASC").
		Find(&stats).Error
	if err != nil {
		return nil, apperrors.E(apperrors.KindInternal, "store.QuoteStatsByBookmaker", err)
	}
	return stats, nil
}

// QuoteStatsByMarket counts current quotes per market code.
func (s *Store) QuoteStatsByMarket(ctx context.Context) ([]CountStat, error) {
	var stats []CountStat
	err := s.db.WithContext(ctx).Model(&models.OddsQuote{}).
		Select("market_code AS key, COUNT(*) AS count").
		Group("market_code").
		Order("count DESC, key ASC").
		Find(&stats).Error
	if err != nil {
		return nil, apperrors.E(apperrors.KindInternal, "store.QuoteStatsByMarket", err)
	}
	return stats, nil
}
