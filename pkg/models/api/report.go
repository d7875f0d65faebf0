package api

import "time"

// Snapshot is the wire form of a resource snapshot submitted for
// evaluation.
type Snapshot struct {
	Resource string           `json:"resource"`
	AsOf     time.Time        `json:"as_of"`
	Records  []map[string]any `json:"records"`
}

// EvaluateRequest is the body of an evaluate call: the snapshot plus
// optional per-call threshold overrides keyed by parameter name.
type EvaluateRequest struct {
	Snapshot  Snapshot       `json:"snapshot"`
	Overrides map[string]any `json:"overrides,omitempty"`
}

type Stats struct {
	Total             int `json:"total"`
	Matched           int `json:"matched"`
	MatchedPercentage int `json:"matched_percentage"`
}

type Report struct {
	Policy     string           `json:"policy"`
	Thresholds map[string]any   `json:"thresholds"`
	Matched    []map[string]any `json:"matched"`
	Stats      Stats            `json:"stats"`
}

// PolicyParam describes one threshold parameter of a registered policy.
type PolicyParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     any    `json:"default"`
	Description string `json:"description,omitempty"`
}

// Policy is the wire form of a registered policy definition.
type Policy struct {
	Name        string        `json:"name"`
	Resource    string        `json:"resource"`
	Description string        `json:"description,omitempty"`
	Params      []PolicyParam `json:"params,omitempty"`
}
