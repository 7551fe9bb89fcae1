/**
 * @description
 * BettingMarket catalog model.
 * Maps to the 'betting_markets' table. Static reference data: seeded by
 * migration, mutated only by catalog maintenance, never by sync.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

// BettingMarket is one catalog entry (e.g. "1X2", "Over/Under 2.5").
// DisplayOrder totally orders the catalog for presentation.
type BettingMarket struct {
	ID           uint   `gorm:"primaryKey;column:id" json:"id"`
	Code         string `gorm:"column:code;uniqueIndex" json:"code"`
	Name         string `gorm:"column:name" json:"name"`
	Category     string `gorm:"column:category;index:idx_markets_category_order,priority:1" json:"category"`
	DisplayOrder int    `gorm:"column:display_order;index;index:idx_markets_category_order,priority:2" json:"display_order"`
	IsPopular    bool   `gorm:"column:is_popular;index;default:false" json:"is_popular"`
	Icon         string `gorm:"column:icon" json:"icon"`
	Description  string `gorm:"column:description" json:"description"`
}

func (BettingMarket) TableName() string {
	return "betting_markets"
}
