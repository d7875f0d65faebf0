package domain

// Stats is the aggregate block of a finding report. MatchedPercentage
// is an integer 0-100 computed with the engine's configured rounding
// mode; it is defined as 0 when Total is 0.
type Stats struct {
	Total             int
	Matched           int
	MatchedPercentage int
}

// Report is the structured output of one evaluation: the policy name,
// the effective threshold values used, the matched records in snapshot
// order, and the aggregate statistics. A report is produced fresh per
// evaluation and never mutated after return.
type Report struct {
	Policy     string
	Thresholds map[string]any
	Matched    []Record
	Stats      Stats
}
