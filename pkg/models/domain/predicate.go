package domain

// Op identifies a leaf comparison operator.
type Op string

const (
	OpEq          Op = "eq"
	OpNeq         Op = "neq"
	OpLt          Op = "lt"
	OpLte         Op = "lte"
	OpGt          Op = "gt"
	OpGte         Op = "gte"
	OpInSet       Op = "in"
	OpEmptyString Op = "empty"
	OpBefore      Op = "before"
	OpAfter       Op = "after"
)

// Predicate is a boolean expression tree evaluated per Record. Exactly
// one of the branch groups may be set: All (AND), Any (OR), Not,
// Exists, ForAll, or a leaf comparison (Field + Op). A leaf compares
// the field against either a literal Value or a named threshold Param,
// never both.
type Predicate struct {
	All    []Predicate
	Any    []Predicate
	Not    *Predicate
	Exists *Quantifier
	ForAll *Quantifier

	Field string
	Op    Op
	Value any
	Param string
}

// Quantifier applies Where to every element of the named nested list
// field. Exists matches when at least one element satisfies Where;
// ForAll matches when every element does, vacuously on an empty or
// absent list.
type Quantifier struct {
	Field string
	Where Predicate
}

func And(preds ...Predicate) Predicate { return Predicate{All: preds} }

func Or(preds ...Predicate) Predicate { return Predicate{Any: preds} }

func Not(pred Predicate) Predicate { return Predicate{Not: &pred} }

// Leaf builds a comparison of a record field against a literal value.
func Leaf(field string, op Op, value any) Predicate {
	return Predicate{Field: field, Op: op, Value: value}
}

// LeafParam builds a comparison of a record field against a named
// threshold parameter, resolved per evaluation.
func LeafParam(field string, op Op, param string) Predicate {
	return Predicate{Field: field, Op: op, Param: param}
}

func Exists(field string, where Predicate) Predicate {
	return Predicate{Exists: &Quantifier{Field: field, Where: where}}
}

func ForAll(field string, where Predicate) Predicate {
	return Predicate{ForAll: &Quantifier{Field: field, Where: where}}
}
