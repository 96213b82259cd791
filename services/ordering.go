package services

import (
	"fmt"

	"gorm.io/gorm"
)

// nextOrderIndex returns 1 + the highest order_index in scope, or 1 for an
// empty scope. Positions are never renumbered, so deletions leave gaps.
func nextOrderIndex(tx *gorm.DB, model interface{}, scope func(*gorm.DB) *gorm.DB) (int, error) {
	var max int
	q := tx.Model(model)
	if scope != nil {
		q = scope(q)
	}
	if err := q.Select("COALESCE(MAX(order_index), 0)").Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("next order index: %w", err)
	}
	return max + 1, nil
}
