package services

import (
	"fmt"

	"fairprice/models"
)

// PriceContextFor compares a listed price against locality quartiles.
//
// The below-q25 percentage divides by the listed price while the above-q75
// percentage divides by q75. Both are kept as the trained model's reports
// computed them.
func PriceContextFor(price float64, loc models.LocalityStatistics) *models.PriceContext {
	pc := &models.PriceContext{
		Q25:    loc.Q25,
		Median: loc.Median,
		Q75:    loc.Q75,
	}
	if loc.Median != 0 {
		pc.DeviationPct = (price - loc.Median) / loc.Median * 100
	}

	switch {
	case price < loc.Q25:
		pc.Position = models.BelowQ25
		pc.PositionPct = (loc.Q25 - price) / price * 100
		pc.Summary = fmt.Sprintf("below q25 by %.1f%%", pc.PositionPct)
	case price > loc.Q75:
		pc.Position = models.AboveQ75
		if loc.Q75 != 0 {
			pc.PositionPct = (price - loc.Q75) / loc.Q75 * 100
		}
		pc.Summary = fmt.Sprintf("above q75 by %.1f%%", pc.PositionPct)
	default:
		pc.Position = models.WithinRange
		pc.Summary = "within normal range"
	}
	return pc
}
