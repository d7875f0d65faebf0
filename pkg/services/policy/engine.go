package policy

import (
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// Engine evaluates registered policies against resource snapshots. It
// holds no mutable state of its own: once the registry is frozen, any
// number of evaluations may run concurrently, and the same snapshot,
// policy and overrides always produce the same report.
type Engine struct {
	registry *Registry
	rounding RoundingMode
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry, rounding: DefaultRounding}
}

// SetRounding changes the percentage rounding mode. Call during
// initialization, before evaluation traffic starts.
func (e *Engine) SetRounding(mode RoundingMode) {
	e.rounding = mode
}

// Evaluate resolves the named policy, applies the overrides, filters
// the snapshot and returns the finding report. Callers get either a
// complete report or a typed error; there are no partial reports.
func (e *Engine) Evaluate(
	snapshot domain.Snapshot,
	policyName string,
	overrides map[string]any,
) (domain.Report, error) {
	p, err := e.registry.Lookup(policyName)
	if err != nil {
		return domain.Report{}, err
	}
	if p.Resource != snapshot.Resource {
		return domain.Report{}, configErrorf(
			"policy %q applies to resource kind %q, snapshot is %q",
			p.Name, p.Resource, snapshot.Resource)
	}

	thresholds, err := Resolve(p, overrides)
	if err != nil {
		return domain.Report{}, err
	}

	var matched []domain.Record
	for _, rec := range snapshot.Records {
		if evalPredicate(p.Predicate, rec, thresholds, snapshot.AsOf) {
			matched = append(matched, rec)
		}
	}

	stats := Aggregate(len(snapshot.Records), len(matched), e.rounding)
	return buildReport(p.Name, thresholds, snapshot, matched, stats)
}
