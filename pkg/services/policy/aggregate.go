package policy

import "github.com/sudoersllc/opsbox-rego/pkg/models/domain"

// RoundingMode selects how the matched percentage is reduced to an
// integer.
type RoundingMode int

const (
	// RoundTruncate drops the fractional part (integer division).
	RoundTruncate RoundingMode = iota
	// RoundHalfUp rounds .5 and above away from zero.
	RoundHalfUp
)

// DefaultRounding is the engine-wide rounding mode for matched
// percentages.
const DefaultRounding = RoundTruncate

// Aggregate computes the summary statistics of a matched subset
// relative to the full collection. When total is zero the matched
// percentage is defined as zero rather than a division error.
func Aggregate(total, matched int, mode RoundingMode) domain.Stats {
	stats := domain.Stats{Total: total, Matched: matched}
	if total == 0 || matched == 0 {
		return stats
	}
	switch mode {
	case RoundHalfUp:
		stats.MatchedPercentage = (200*matched + total) / (2 * total)
	default:
		stats.MatchedPercentage = 100 * matched / total
	}
	return stats
}
