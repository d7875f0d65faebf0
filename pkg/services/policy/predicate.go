package policy

import (
	"strings"
	"time"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// Predicate evaluation is a total function: a leaf that encounters a
// missing field, a type-mismatched value, or an unresolvable operand
// evaluates to false, never errors. Structural problems (unknown
// operator, wrong arity, undeclared parameter) are rejected when the
// policy is registered, so none of them can surface here.

func evalPredicate(p domain.Predicate, rec domain.Record, th Thresholds, asOf time.Time) bool {
	switch {
	case len(p.All) > 0:
		for _, child := range p.All {
			if !evalPredicate(child, rec, th, asOf) {
				return false
			}
		}
		return true

	case len(p.Any) > 0:
		for _, child := range p.Any {
			if evalPredicate(child, rec, th, asOf) {
				return true
			}
		}
		return false

	case p.Not != nil:
		return !evalPredicate(*p.Not, rec, th, asOf)

	case p.Exists != nil:
		// Vacuously false on an empty or absent list.
		elems, _ := getList(rec, p.Exists.Field)
		for _, elem := range elems {
			if child, ok := asRecord(elem); ok && evalPredicate(p.Exists.Where, child, th, asOf) {
				return true
			}
		}
		return false

	case p.ForAll != nil:
		// Vacuously true on an empty or absent list.
		elems, _ := getList(rec, p.ForAll.Field)
		for _, elem := range elems {
			child, ok := asRecord(elem)
			if !ok || !evalPredicate(p.ForAll.Where, child, th, asOf) {
				return false
			}
		}
		return true

	default:
		if exists, ok := anyElementLeaf(p); ok {
			return evalPredicate(exists, rec, th, asOf)
		}
		return evalLeaf(p, rec, th, asOf)
	}
}

// anyElementLeaf rewrites a leaf whose path uses the any-element form,
// e.g. "InstanceHealth[].State", into the equivalent EXISTS quantifier
// over the list prefix. Repeated forms desugar one level per pass.
func anyElementLeaf(p domain.Predicate) (domain.Predicate, bool) {
	i := strings.Index(p.Field, "[].")
	if i < 0 {
		return domain.Predicate{}, false
	}
	inner := p
	inner.Field = p.Field[i+len("[]."):]
	return domain.Predicate{Exists: &domain.Quantifier{
		Field: p.Field[:i],
		Where: inner,
	}}, true
}

func asRecord(v any) (domain.Record, bool) {
	switch m := v.(type) {
	case domain.Record:
		return m, true
	case map[string]any:
		return domain.Record(m), true
	default:
		return nil, false
	}
}

func evalLeaf(p domain.Predicate, rec domain.Record, th Thresholds, asOf time.Time) bool {
	switch p.Op {
	case domain.OpEmptyString:
		s, ok := getString(rec, p.Field)
		return ok && s == ""

	case domain.OpEq, domain.OpNeq:
		equal, ok := leafEquals(p, rec, th)
		if !ok {
			return false
		}
		if p.Op == domain.OpNeq {
			return !equal
		}
		return equal

	case domain.OpLt, domain.OpLte, domain.OpGt, domain.OpGte:
		operand, ok := numberOperand(p, th)
		if !ok {
			return false
		}
		n, ok := getNumber(rec, p.Field)
		if !ok {
			return false
		}
		switch p.Op {
		case domain.OpLt:
			return n < operand
		case domain.OpLte:
			return n <= operand
		case domain.OpGt:
			return n > operand
		default:
			return n >= operand
		}

	case domain.OpInSet:
		members, ok := p.Value.([]any)
		if !ok {
			return false
		}
		if s, ok := getString(rec, p.Field); ok {
			for _, m := range members {
				if ms, ok := m.(string); ok && ms == s {
					return true
				}
			}
			return false
		}
		if n, ok := getNumber(rec, p.Field); ok {
			for _, m := range members {
				if mn, ok := asNumber(m); ok && mn == n {
					return true
				}
			}
		}
		return false

	case domain.OpBefore, domain.OpAfter:
		boundary, ok := timeBoundary(p, th, asOf)
		if !ok {
			return false
		}
		t, ok := getTime(rec, p.Field)
		if !ok {
			return false
		}
		// Comparison over the canonical epoch-nanosecond form.
		if p.Op == domain.OpBefore {
			return t.UnixNano() < boundary.UnixNano()
		}
		return t.UnixNano() > boundary.UnixNano()

	default:
		return false
	}
}

// leafEquals compares a field against the leaf operand, dispatching on
// the operand's type. The second return reports whether the field was
// present with a comparable type; an absent field makes both EQ and
// NEQ leaves false.
func leafEquals(p domain.Predicate, rec domain.Record, th Thresholds) (equal, ok bool) {
	if p.Param != "" {
		threshold, exists := th[p.Param]
		if !exists {
			return false, false
		}
		if threshold.Type == domain.ParamTimestamp {
			t, present := getTime(rec, p.Field)
			return present && t.Equal(threshold.Time), present
		}
		n, present := getNumber(rec, p.Field)
		return present && n == threshold.Number, present
	}

	switch want := p.Value.(type) {
	case string:
		s, present := getString(rec, p.Field)
		return present && s == want, present
	case bool:
		b, present := getBool(rec, p.Field)
		return present && b == want, present
	case time.Time:
		t, present := getTime(rec, p.Field)
		return present && t.Equal(want), present
	default:
		want64, isNum := asNumber(p.Value)
		if !isNum {
			return false, false
		}
		n, present := getNumber(rec, p.Field)
		return present && n == want64, present
	}
}

func numberOperand(p domain.Predicate, th Thresholds) (float64, bool) {
	if p.Param != "" {
		threshold, ok := th[p.Param]
		if !ok || threshold.Type == domain.ParamTimestamp {
			return 0, false
		}
		return threshold.Number, true
	}
	return asNumber(p.Value)
}

// timeBoundary resolves the point in time a BEFORE/AFTER leaf compares
// against. Duration-typed thresholds are anchored at the snapshot's
// as-of time, not the wall clock, so repeated evaluation of the same
// snapshot yields the same report.
func timeBoundary(p domain.Predicate, th Thresholds, asOf time.Time) (time.Time, bool) {
	if p.Param != "" {
		threshold, ok := th[p.Param]
		if !ok {
			return time.Time{}, false
		}
		switch threshold.Type {
		case domain.ParamTimestamp:
			return threshold.Time, true
		case domain.ParamDuration:
			return asOf.Add(-threshold.Duration()), true
		default:
			return time.Time{}, false
		}
	}
	return asTime(p.Value)
}
