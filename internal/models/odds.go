/**
 * @description
 * OddsQuote database model.
 * Maps to the 'odds_quotes' table. One row per (fixture, bookmaker, market,
 * outcome): the current quote. Sync upserts on that tuple and a newer
 * observed_at wins conflicts, so the table never holds two "current" prices
 * from the same bookmaker.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

import "time"

// OddsQuote is one bookmaker's decimal price for one outcome of one market on
// one fixture, captured at observed_at.
type OddsQuote struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	FixtureID  uint      `gorm:"column:fixture_id;uniqueIndex:idx_quotes_current,priority:1" json:"fixture_id"`
	Bookmaker  string    `gorm:"column:bookmaker;uniqueIndex:idx_quotes_current,priority:2" json:"bookmaker"`
	MarketCode string    `gorm:"column:market_code;uniqueIndex:idx_quotes_current,priority:3" json:"market_code"`
	Outcome    string    `gorm:"column:outcome;uniqueIndex:idx_quotes_current,priority:4" json:"outcome"`
	Price      float64   `gorm:"column:price" json:"price"`
	ObservedAt time.Time `gorm:"column:observed_at" json:"observed_at"`
}

func (OddsQuote) TableName() string {
	return "odds_quotes"
}
