/**
 * @description
 * Wire types for the external fixtures/odds provider.
 * Raw provider records; the syncer maps them onto canonical models.
 *
 * @dependencies
 * - standard "time"
 */

package oddsfeed

import "time"

// Window bounds a sync pull: every record changed within [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// FeedLeague is the provider's league record embedded in fixtures.
type FeedLeague struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo"`
}

// FeedTeam is the provider's team record embedded in fixtures.
type FeedTeam struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Short string `json:"short_code"`
	Logo  string `json:"logo"`
}

// FeedFixture is one provider fixture record.
type FeedFixture struct {
	ID       string     `json:"id"`
	League   FeedLeague `json:"league"`
	HomeTeam FeedTeam   `json:"home_team"`
	AwayTeam FeedTeam   `json:"away_team"`
	Kickoff  time.Time  `json:"kickoff"`
	Status   string     `json:"status"`
}

// FeedOdds is one provider odds record: a single bookmaker price for one
// outcome of one market on one fixture.
type FeedOdds struct {
	FixtureID  string    `json:"fixture_id"`
	Bookmaker  string    `json:"bookmaker"`
	MarketCode string    `json:"market"`
	Outcome    string    `json:"outcome"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}
