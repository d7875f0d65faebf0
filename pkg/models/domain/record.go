package domain

import "time"

// Record is one resource's attribute map within a snapshot. Values are
// JSON-shaped: string, float64, bool, nil, []any for lists and
// map[string]any (or Record) for nested records. A missing key is
// distinct from an explicit nil value.
type Record map[string]any

// Snapshot is an immutable, ordered collection of Records of one
// resource kind, taken at a single point in time. The engine never
// retains a reference to a snapshot after an evaluation returns.
type Snapshot struct {
	Resource string
	AsOf     time.Time
	Records  []Record
}
