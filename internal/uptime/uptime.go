// Package uptime derives a rolling uptime percentage from check history.
package uptime

import (
	"math"

	"github.com/linkforge/linkwatch/internal/domain"
)

// Compute returns the success ratio of the given check logs as a percentage
// rounded to two decimals. Callers pass the aggregation window (most recent
// logs bounded by count and age); ordering does not affect the result.
//
// With zero logs the result is 100.00: an unchecked backlink is assumed
// healthy until proven otherwise.
func Compute(logs []domain.CheckLog) float64 {
	if len(logs) == 0 {
		return 100.00
	}

	var successes int
	for i := range logs {
		if logs[i].CheckStatus == domain.CheckStatusSuccess {
			successes++
		}
	}

	pct := 100 * float64(successes) / float64(len(logs))

	return math.Round(pct*100) / 100
}
