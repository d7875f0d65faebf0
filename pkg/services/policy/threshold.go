package policy

import (
	"time"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// Threshold is one resolved parameter value. Number carries percent,
// count and duration-in-seconds values; Time carries timestamp
// boundaries.
type Threshold struct {
	Type   domain.ParamType
	Number float64
	Time   time.Time
}

// Duration returns the threshold as a time.Duration. Only meaningful
// for duration-typed parameters.
func (t Threshold) Duration() time.Duration {
	return time.Duration(t.Number * float64(time.Second))
}

// Value returns the serializable form of the threshold: a number for
// percent, count and duration parameters, an RFC3339 string for
// timestamps.
func (t Threshold) Value() any {
	if t.Type == domain.ParamTimestamp {
		return t.Time.UTC().Format(time.RFC3339)
	}
	return t.Number
}

// Thresholds maps parameter name to its effective value for one
// evaluation.
type Thresholds map[string]Threshold

// Values returns the thresholds in report form, keyed by parameter
// name.
func (t Thresholds) Values() map[string]any {
	out := make(map[string]any, len(t))
	for name, th := range t {
		out[name] = th.Value()
	}
	return out
}

// Resolve merges a policy's declared defaults with caller-supplied
// overrides. An override takes effect only when it passes the
// parameter's semantic-type and range validation; out-of-range values
// are rejected, never clamped. An override naming an undeclared
// parameter is likewise rejected.
func Resolve(p domain.Policy, overrides map[string]any) (Thresholds, error) {
	declared := make(map[string]bool, len(p.Params))
	for _, param := range p.Params {
		declared[param.Name] = true
	}
	for name := range overrides {
		if !declared[name] {
			return nil, configErrorf("policy %q has no threshold parameter %q", p.Name, name)
		}
	}

	resolved := make(Thresholds, len(p.Params))
	for _, param := range p.Params {
		raw := param.Default
		if override, ok := overrides[param.Name]; ok {
			raw = override
		}
		th, err := coerceThreshold(p.Name, param, raw)
		if err != nil {
			return nil, err
		}
		resolved[param.Name] = th
	}
	return resolved, nil
}

func coerceThreshold(policyName string, param domain.ThresholdParam, raw any) (Threshold, error) {
	switch param.Type {
	case domain.ParamPercent:
		n, ok := asNumber(raw)
		if !ok {
			return Threshold{}, configErrorf(
				"policy %q: parameter %q must be a number, got %T", policyName, param.Name, raw)
		}
		if n < 0 || n > 100 {
			return Threshold{}, configErrorf(
				"policy %q: parameter %q must be a percentage between 0 and 100, got %v", policyName, param.Name, n)
		}
		return Threshold{Type: param.Type, Number: n}, nil

	case domain.ParamCount:
		n, ok := asNumber(raw)
		if !ok {
			return Threshold{}, configErrorf(
				"policy %q: parameter %q must be a number, got %T", policyName, param.Name, raw)
		}
		if n < 0 {
			return Threshold{}, configErrorf(
				"policy %q: parameter %q must be non-negative, got %v", policyName, param.Name, n)
		}
		return Threshold{Type: param.Type, Number: n}, nil

	case domain.ParamDuration:
		var seconds float64
		switch d := raw.(type) {
		case time.Duration:
			seconds = d.Seconds()
		default:
			n, ok := asNumber(raw)
			if !ok {
				return Threshold{}, configErrorf(
					"policy %q: parameter %q must be a duration in seconds, got %T", policyName, param.Name, raw)
			}
			seconds = n
		}
		if seconds < 0 {
			return Threshold{}, configErrorf(
				"policy %q: parameter %q must be a non-negative duration, got %vs", policyName, param.Name, seconds)
		}
		return Threshold{Type: param.Type, Number: seconds}, nil

	case domain.ParamTimestamp:
		t, ok := asTime(raw)
		if !ok {
			return Threshold{}, configErrorf(
				"policy %q: parameter %q must be a timestamp, got %T", policyName, param.Name, raw)
		}
		return Threshold{Type: param.Type, Time: t}, nil

	default:
		return Threshold{}, configErrorf(
			"policy %q: parameter %q has unknown type %q", policyName, param.Name, param.Type)
	}
}
