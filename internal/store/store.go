/**
 * @description
 * Canonical store for leagues, teams, fixtures and odds quotes.
 * Batch upserts run inside one transaction per resource type and resolve
 * concurrent sync races declaratively: ON CONFLICT on the external id (or the
 * quote identity tuple) with a DO UPDATE guarded by the observation timestamp,
 * so the last-observed record wins regardless of arrival order.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgx/v5/pgconn: Postgres error-code inspection
 * - internal/models
 * - internal/apperrors
 */

package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/P2PPERU/sportbackend2-sub001/internal/apperrors"
	"github.com/P2PPERU/sportbackend2-sub001/internal/logger"
	"github.com/P2PPERU/sportbackend2-sub001/internal/models"
)

const (
	upsertBatchSize = 100
	maxTxRetries    = 5
)

// Store wraps the Postgres connection. All methods are safe for concurrent
// use; writers rely on per-batch transactions so readers never observe a
// partially applied batch.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UpsertLeagues inserts or refreshes reference metadata keyed by external id.
func (s *Store) UpsertLeagues(ctx context.Context, leagues []models.League) error {
	if len(leagues) == 0 {
		return nil
	}
	return s.runBatch(ctx, "store.UpsertLeagues", func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "country", "logo_url", "synced_at",
			}),
		}).CreateInBatches(leagues, upsertBatchSize).Error
	})
}

// UpsertTeams inserts or refreshes reference metadata keyed by external id.
func (s *Store) UpsertTeams(ctx context.Context, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	return s.runBatch(ctx, "store.UpsertTeams", func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "short_code", "logo_url", "synced_at",
			}),
		}).CreateInBatches(teams, upsertBatchSize).Error
	})
}

// UpsertFixtures inserts or updates fixtures keyed by external id. A stale
// pass re-sending an already reconciled window loses the conflict: the DO
// UPDATE only applies when the incoming observation is at least as fresh.
func (s *Store) UpsertFixtures(ctx context.Context, fixtures []models.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}
	return s.runBatch(ctx, "store.UpsertFixtures", func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"league_id", "home_team_id", "away_team_id",
				"kickoff_utc", "status", "last_synced_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "fixtures.last_synced_at <= excluded.last_synced_at"},
			}},
		}).CreateInBatches(fixtures, upsertBatchSize).Error
	})
}

// UpsertQuotes inserts or updates the current quote per
// (fixture, bookmaker, market, outcome); the newer observed_at wins ties.
func (s *Store) UpsertQuotes(ctx context.Context, quotes []models.OddsQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	return s.runBatch(ctx, "store.UpsertQuotes", func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "fixture_id"}, {Name: "bookmaker"},
				{Name: "market_code"}, {Name: "outcome"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"price", "observed_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "odds_quotes.observed_at <= excluded.observed_at"},
			}},
		}).CreateInBatches(quotes, upsertBatchSize).Error
	})
}

// runBatch executes fn in a transaction, retrying deadlocks, serialization
// failures and unique-constraint races with jittered backoff. A 23505 rolls
// the whole batch back, so it must re-run; the upserts are idempotent, so the
// retry converges on the racing pass's rows instead of duplicating them.
func (s *Store) runBatch(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}

		switch pgErrorCode(err) {
		case "40P01", "40001": // deadlock, serialization failure
		case "23505":
			logger.Info("%s: unique-constraint race, re-running batch: %v", op, err)
		default:
			return apperrors.E(apperrors.KindInternal, op, err)
		}
		if attempt == maxTxRetries {
			break
		}

		backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
		time.Sleep(backoff)
	}

	if pgErrorCode(err) == "23505" {
		return apperrors.E(apperrors.KindConstraintConflict, op, err)
	}
	return apperrors.E(apperrors.KindInternal, op, err)
}

// pgErrorCode extracts the Postgres error code from a driver error. The
// postgres driver runs on pgx/v5, so unwrapping targets its PgError type.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// LeagueIDsByExternal maps provider league ids to canonical row ids.
func (s *Store) LeagueIDsByExternal(ctx context.Context, externalIDs []string) (map[string]uint, error) {
	return s.idsByExternal(ctx, &models.League{}, externalIDs)
}

// TeamIDsByExternal maps provider team ids to canonical row ids.
func (s *Store) TeamIDsByExternal(ctx context.Context, externalIDs []string) (map[string]uint, error) {
	return s.idsByExternal(ctx, &models.Team{}, externalIDs)
}

// FixtureIDsByExternal maps provider fixture ids to canonical row ids.
func (s *Store) FixtureIDsByExternal(ctx context.Context, externalIDs []string) (map[string]uint, error) {
	return s.idsByExternal(ctx, &models.Fixture{}, externalIDs)
}

func (s *Store) idsByExternal(ctx context.Context, model interface{}, externalIDs []string) (map[string]uint, error) {
	if len(externalIDs) == 0 {
		return map[string]uint{}, nil
	}

	type row struct {
		ID         uint
		ExternalID string
	}
	var rows []row
	if err := s.db.WithContext(ctx).Model(model).
		Select("id", "external_id").
		Where("external_id IN ?", externalIDs).
		Find(&rows).Error; err != nil {
		return nil, apperrors.E(apperrors.KindInternal, "store.idsByExternal", err)
	}

	out := make(map[string]uint, len(rows))
	for _, r := range rows {
		out[r.ExternalID] = r.ID
	}
	return out, nil
}
