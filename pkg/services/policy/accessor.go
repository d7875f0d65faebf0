package policy

import (
	"strconv"
	"strings"
	"time"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// Field access over a Record is total: every getter returns the zero
// value and false when a path segment is missing, an index is out of
// range, or the terminal value has the wrong runtime type. Numeric
// coercion from numeric-looking strings is deliberately not performed;
// a provider that emits "5" instead of 5 produced a different value.

// lookupPath resolves a dotted path against a record. A segment may
// carry a single numeric index, e.g. "volumes[0].size". The any-element
// form "InstanceHealth[].State" is a predicate-level construct; a
// single-value lookup of such a path reports absent.
func lookupPath(rec domain.Record, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var current any = map[string]any(rec)
	for _, segment := range strings.Split(path, ".") {
		name, index, indexed, ok := splitSegment(segment)
		if !ok {
			return nil, false
		}
		current, ok = fieldOf(current, name)
		if !ok {
			return nil, false
		}
		if indexed {
			list, ok := listOf(current)
			if !ok || index < 0 || index >= len(list) {
				return nil, false
			}
			current = list[index]
		}
	}
	return current, true
}

// anyElement marks an empty-bracket segment, "InstanceHealth[]". It is
// never a valid list position, so plain lookups treat it as absent.
const anyElement = -1

func splitSegment(segment string) (name string, index int, indexed bool, ok bool) {
	open := strings.IndexByte(segment, '[')
	if open < 0 {
		return segment, 0, false, segment != ""
	}
	if !strings.HasSuffix(segment, "]") || open == 0 {
		return "", 0, false, false
	}
	inner := segment[open+1 : len(segment)-1]
	if inner == "" {
		return segment[:open], anyElement, true, true
	}
	idx, err := strconv.Atoi(inner)
	if err != nil {
		return "", 0, false, false
	}
	return segment[:open], idx, true, true
}

func fieldOf(value any, name string) (any, bool) {
	switch m := value.(type) {
	case domain.Record:
		v, ok := m[name]
		return v, ok
	case map[string]any:
		v, ok := m[name]
		return v, ok
	default:
		return nil, false
	}
}

func listOf(value any) ([]any, bool) {
	switch l := value.(type) {
	case []any:
		return l, true
	case []domain.Record:
		out := make([]any, len(l))
		for i, r := range l {
			out[i] = r
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, r := range l {
			out[i] = r
		}
		return out, true
	default:
		return nil, false
	}
}

func getString(rec domain.Record, path string) (string, bool) {
	v, ok := lookupPath(rec, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getBool(rec domain.Record, path string) (bool, bool) {
	v, ok := lookupPath(rec, path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func getNumber(rec domain.Record, path string) (float64, bool) {
	v, ok := lookupPath(rec, path)
	if !ok {
		return 0, false
	}
	return asNumber(v)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// getTime accepts time.Time values directly and parses RFC3339 strings,
// the representation JSON-shaped providers emit. Predicates only ever
// see the parsed form.
func getTime(rec domain.Record, path string) (time.Time, bool) {
	v, ok := lookupPath(rec, path)
	if !ok {
		return time.Time{}, false
	}
	return asTime(v)
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

func getList(rec domain.Record, path string) ([]any, bool) {
	v, ok := lookupPath(rec, path)
	if !ok {
		return nil, false
	}
	return listOf(v)
}
