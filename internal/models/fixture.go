/**
 * @description
 * League, Team and Fixture database models.
 * Maps to the 'leagues', 'teams' and 'fixtures' tables in PostgreSQL.
 * All three are keyed by the provider's external id; sync upserts on it.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

import "time"

// Fixture status values. Text column with an additive CHECK constraint so new
// states can be introduced without renarrowing existing rows.
const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
)

// TerminalStatus reports whether a fixture can no longer change state.
func TerminalStatus(status string) bool {
	return status == StatusFinished || status == StatusCancelled
}

// League is a reference entity, immutable once created except for metadata refresh.
type League struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	ExternalID string    `gorm:"column:external_id;uniqueIndex" json:"external_id"`
	Name       string    `gorm:"column:name" json:"name"`
	Country    string    `gorm:"column:country" json:"country"`
	LogoURL    string    `gorm:"column:logo_url" json:"logo_url"`
	SyncedAt   time.Time `gorm:"column:synced_at" json:"synced_at"`
}

func (League) TableName() string {
	return "leagues"
}

// Team is a reference entity, immutable once created except for metadata refresh.
type Team struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	ExternalID string    `gorm:"column:external_id;uniqueIndex" json:"external_id"`
	Name       string    `gorm:"column:name" json:"name"`
	ShortCode  string    `gorm:"column:short_code" json:"short_code"`
	LogoURL    string    `gorm:"column:logo_url" json:"logo_url"`
	SyncedAt   time.Time `gorm:"column:synced_at" json:"synced_at"`
}

func (Team) TableName() string {
	return "teams"
}

// Fixture is one sporting event. Created on first sync observation; status
// transitions are driven only by subsequent sync passes. Never deleted, only
// marked terminal.
type Fixture struct {
	ID           uint      `gorm:"primaryKey;column:id" json:"id"`
	ExternalID   string    `gorm:"column:external_id;uniqueIndex" json:"external_id"`
	LeagueID     uint      `gorm:"column:league_id;index" json:"league_id"`
	HomeTeamID   uint      `gorm:"column:home_team_id" json:"home_team_id"`
	AwayTeamID   uint      `gorm:"column:away_team_id" json:"away_team_id"`
	KickoffUTC   time.Time `gorm:"column:kickoff_utc;index" json:"kickoff_utc"`
	Status       string    `gorm:"column:status;default:SCHEDULED" json:"status"`
	LastSyncedAt time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`

	League   *League `gorm:"foreignKey:LeagueID" json:"league,omitempty"`
	HomeTeam *Team   `gorm:"foreignKey:HomeTeamID" json:"home_team,omitempty"`
	AwayTeam *Team   `gorm:"foreignKey:AwayTeamID" json:"away_team,omitempty"`

	// KickoffLocal is the kickoff rendered in the zone the query resolved.
	// Never persisted.
	KickoffLocal string `gorm:"-" json:"kickoff_local,omitempty"`
}

func (Fixture) TableName() string {
	return "fixtures"
}
