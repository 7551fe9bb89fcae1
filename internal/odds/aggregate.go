/**
 * @description
 * Odds aggregation engine.
 * Derives implied probabilities and the best price per outcome from the
 * current per-bookmaker quotes of a fixture. Pure computation: the same
 * quotes always produce the same output, nothing here is persisted.
 *
 * @dependencies
 * - internal/models
 * - standard "math", "sort"
 */

package odds

import (
	"math"
	"sort"

	"github.com/P2PPERU/sportbackend2-sub001/internal/models"
)

// BookmakerPrice is one bookmaker's current quote for an outcome.
type BookmakerPrice struct {
	Bookmaker          string  `json:"bookmaker"`
	Price              float64 `json:"price"`
	ImpliedProbability float64 `json:"implied_probability"`
}

// OutcomeOdds aggregates every current quote for one outcome.
// Every bookmaker tied at the maximum price appears in BestBookmakers.
type OutcomeOdds struct {
	Outcome        string           `json:"outcome"`
	BestPrice      float64          `json:"best_price"`
	BestBookmakers []string         `json:"best_bookmakers"`
	Prices         []BookmakerPrice `json:"prices"`
}

// MarketOdds is one market of a fixture with at least one current quote.
type MarketOdds struct {
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Category     string        `json:"category"`
	DisplayOrder int           `json:"display_order"`
	Outcomes     []OutcomeOdds `json:"outcomes"`
}

// ImpliedProbability converts a decimal price into the percentage it implies,
// rounded to one decimal, matching response precision. Non-positive prices
// yield 0.
func ImpliedProbability(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return math.Round(100/price*10) / 10
}

// Aggregate groups a fixture's current quotes by market then outcome and
// derives per-bookmaker implied probabilities and the best price per outcome.
// Markets with zero quotes are omitted. catalog supplies display metadata and
// ordering; quotes for codes missing from it still aggregate, sorted last.
func Aggregate(quotes []models.OddsQuote, catalog []models.BettingMarket) []MarketOdds {
	if len(quotes) == 0 {
		return nil
	}

	meta := make(map[string]models.BettingMarket, len(catalog))
	for _, m := range catalog {
		meta[m.Code] = m
	}

	byMarket := make(map[string]map[string][]models.OddsQuote)
	for _, q := range quotes {
		outcomes, ok := byMarket[q.MarketCode]
		if !ok {
			outcomes = make(map[string][]models.OddsQuote)
			byMarket[q.MarketCode] = outcomes
		}
		outcomes[q.Outcome] = append(outcomes[q.Outcome], q)
	}

	markets := make([]MarketOdds, 0, len(byMarket))
	for code, outcomes := range byMarket {
		m := MarketOdds{Code: code}
		if entry, ok := meta[code]; ok {
			m.Name = entry.Name
			m.Category = entry.Category
			m.DisplayOrder = entry.DisplayOrder
		} else {
			// Unknown code: keep the quotes visible, order after the catalog.
			m.DisplayOrder = math.MaxInt32
		}

		for outcome, qs := range outcomes {
			m.Outcomes = append(m.Outcomes, aggregateOutcome(outcome, qs))
		}
		sort.Slice(m.Outcomes, func(i, j int) bool {
			return m.Outcomes[i].Outcome < m.Outcomes[j].Outcome
		})

		markets = append(markets, m)
	}

	sort.Slice(markets, func(i, j int) bool {
		if markets[i].DisplayOrder != markets[j].DisplayOrder {
			return markets[i].DisplayOrder < markets[j].DisplayOrder
		}
		return markets[i].Code < markets[j].Code
	})
	return markets
}

func aggregateOutcome(outcome string, qs []models.OddsQuote) OutcomeOdds {
	out := OutcomeOdds{
		Outcome: outcome,
		Prices:  make([]BookmakerPrice, 0, len(qs)),
	}

	for _, q := range qs {
		out.Prices = append(out.Prices, BookmakerPrice{
			Bookmaker:          q.Bookmaker,
			Price:              q.Price,
			ImpliedProbability: ImpliedProbability(q.Price),
		})
		if q.Price > out.BestPrice {
			out.BestPrice = q.Price
		}
	}

	for _, p := range out.Prices {
		if p.Price == out.BestPrice {
			out.BestBookmakers = append(out.BestBookmakers, p.Bookmaker)
		}
	}
	sort.Strings(out.BestBookmakers)
	sort.Slice(out.Prices, func(i, j int) bool {
		return out.Prices[i].Bookmaker < out.Prices[j].Bookmaker
	})
	return out
}

// Best reduces aggregated markets to only the best price and its bookmakers
// per outcome.
type BestOutcome struct {
	MarketCode string   `json:"market_code"`
	Outcome    string   `json:"outcome"`
	BestPrice  float64  `json:"best_price"`
	Bookmakers []string `json:"bookmakers"`
}

// Best flattens aggregated markets into a best-price-per-outcome snapshot.
func Best(markets []MarketOdds) []BestOutcome {
	var snapshot []BestOutcome
	for _, m := range markets {
		for _, o := range m.Outcomes {
			snapshot = append(snapshot, BestOutcome{
				MarketCode: m.Code,
				Outcome:    o.Outcome,
				BestPrice:  o.BestPrice,
				Bookmakers: o.BestBookmakers,
			})
		}
	}
	return snapshot
}
