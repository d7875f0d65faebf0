package domain

// ParamType is the semantic type of a threshold parameter. It decides
// how override values are validated and how the parameter is applied
// inside a predicate leaf.
type ParamType string

const (
	// ParamPercent is a raw 0-100 percentage, never a fraction.
	ParamPercent ParamType = "percent"
	// ParamDuration is a non-negative duration, expressed in seconds
	// when supplied as a number.
	ParamDuration ParamType = "duration"
	// ParamCount is a non-negative absolute number.
	ParamCount ParamType = "count"
	// ParamTimestamp is an absolute point-in-time boundary.
	ParamTimestamp ParamType = "timestamp"
)

// ThresholdParam declares one named, overridable threshold of a policy.
type ThresholdParam struct {
	Name        string
	Type        ParamType
	Default     any
	Description string
}

// Policy is a named, registered rule definition: the resource kind it
// applies to, a predicate tree, and zero or more threshold parameters
// the predicate may reference. Policies are defined once at startup and
// are read-only thereafter.
type Policy struct {
	Name        string
	Resource    string
	Description string
	Predicate   Predicate
	Params      []ThresholdParam
}
