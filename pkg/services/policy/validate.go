package policy

import (
	"strings"
	"time"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// validatePolicy rejects malformed definitions at registration time so
// that evaluation itself can never fail structurally.
func validatePolicy(p domain.Policy) error {
	if p.Name == "" {
		return configErrorf("policy name must not be empty")
	}
	if p.Resource == "" {
		return configErrorf("policy %q: resource kind must not be empty", p.Name)
	}

	params := make(map[string]domain.ParamType, len(p.Params))
	for _, param := range p.Params {
		if param.Name == "" {
			return configErrorf("policy %q: threshold parameter name must not be empty", p.Name)
		}
		if _, dup := params[param.Name]; dup {
			return configErrorf("policy %q: duplicate threshold parameter %q", p.Name, param.Name)
		}
		switch param.Type {
		case domain.ParamPercent, domain.ParamDuration, domain.ParamCount, domain.ParamTimestamp:
		default:
			return configErrorf("policy %q: parameter %q has unknown type %q", p.Name, param.Name, param.Type)
		}
		if _, err := coerceThreshold(p.Name, param, param.Default); err != nil {
			return err
		}
		params[param.Name] = param.Type
	}

	return validatePredicate(p.Name, p.Predicate, params)
}

func validatePredicate(policyName string, p domain.Predicate, params map[string]domain.ParamType) error {
	branches := 0
	if len(p.All) > 0 {
		branches++
	}
	if len(p.Any) > 0 {
		branches++
	}
	if p.Not != nil {
		branches++
	}
	if p.Exists != nil {
		branches++
	}
	if p.ForAll != nil {
		branches++
	}
	if p.Field != "" || p.Op != "" {
		branches++
	}
	if branches != 1 {
		return configErrorf("policy %q: predicate node must be exactly one of AND/OR/NOT/EXISTS/FOR_ALL/leaf", policyName)
	}

	switch {
	case len(p.All) > 0:
		for _, child := range p.All {
			if err := validatePredicate(policyName, child, params); err != nil {
				return err
			}
		}
		return nil
	case len(p.Any) > 0:
		for _, child := range p.Any {
			if err := validatePredicate(policyName, child, params); err != nil {
				return err
			}
		}
		return nil
	case p.Not != nil:
		return validatePredicate(policyName, *p.Not, params)
	case p.Exists != nil:
		return validateQuantifier(policyName, *p.Exists, params)
	case p.ForAll != nil:
		return validateQuantifier(policyName, *p.ForAll, params)
	default:
		return validateLeaf(policyName, p, params)
	}
}

func validateQuantifier(policyName string, q domain.Quantifier, params map[string]domain.ParamType) error {
	if err := validateFieldPath(policyName, q.Field); err != nil {
		return err
	}
	return validatePredicate(policyName, q.Where, params)
}

func validateLeaf(policyName string, p domain.Predicate, params map[string]domain.ParamType) error {
	if err := validateFieldPath(policyName, p.Field); err != nil {
		return err
	}

	hasValue := p.Value != nil
	hasParam := p.Param != ""
	if hasParam {
		if hasValue {
			return configErrorf("policy %q: leaf on %q sets both a literal and parameter %q", policyName, p.Field, p.Param)
		}
		paramType, declared := params[p.Param]
		if !declared {
			return configErrorf("policy %q: leaf on %q references undeclared parameter %q", policyName, p.Field, p.Param)
		}
		return validateOpOperand(policyName, p, paramType)
	}

	switch p.Op {
	case domain.OpEmptyString:
		if hasValue {
			return configErrorf("policy %q: IS_EMPTY_STRING on %q takes no operand", policyName, p.Field)
		}
		return nil
	case domain.OpEq, domain.OpNeq:
		if !hasValue {
			return configErrorf("policy %q: %s on %q requires an operand", policyName, p.Op, p.Field)
		}
		switch p.Value.(type) {
		case string, bool, time.Time:
			return nil
		default:
			if _, ok := asNumber(p.Value); !ok {
				return configErrorf("policy %q: %s on %q has non-comparable operand %T", policyName, p.Op, p.Field, p.Value)
			}
			return nil
		}
	case domain.OpLt, domain.OpLte, domain.OpGt, domain.OpGte:
		if _, ok := asNumber(p.Value); !ok {
			return configErrorf("policy %q: %s on %q requires a numeric operand", policyName, p.Op, p.Field)
		}
		return nil
	case domain.OpInSet:
		members, ok := p.Value.([]any)
		if !ok || len(members) == 0 {
			return configErrorf("policy %q: IN_SET on %q requires a non-empty list operand", policyName, p.Field)
		}
		return nil
	case domain.OpBefore, domain.OpAfter:
		if _, ok := asTime(p.Value); !ok {
			return configErrorf("policy %q: %s on %q requires a timestamp operand", policyName, p.Op, p.Field)
		}
		return nil
	case "":
		return configErrorf("policy %q: leaf on %q is missing an operator", policyName, p.Field)
	default:
		return configErrorf("policy %q: unknown operator %q on %q", policyName, p.Op, p.Field)
	}
}

func validateOpOperand(policyName string, p domain.Predicate, paramType domain.ParamType) error {
	switch p.Op {
	case domain.OpEq, domain.OpNeq:
		return nil
	case domain.OpLt, domain.OpLte, domain.OpGt, domain.OpGte:
		if paramType == domain.ParamTimestamp {
			return configErrorf(
				"policy %q: %s on %q cannot use timestamp parameter %q; use TIMESTAMP_BEFORE/AFTER",
				policyName, p.Op, p.Field, p.Param)
		}
		return nil
	case domain.OpBefore, domain.OpAfter:
		if paramType != domain.ParamTimestamp && paramType != domain.ParamDuration {
			return configErrorf(
				"policy %q: %s on %q requires a timestamp or duration parameter, %q is %s",
				policyName, p.Op, p.Field, p.Param, paramType)
		}
		return nil
	case domain.OpInSet, domain.OpEmptyString:
		return configErrorf("policy %q: %s on %q cannot use a threshold parameter", policyName, p.Op, p.Field)
	case "":
		return configErrorf("policy %q: leaf on %q is missing an operator", policyName, p.Field)
	default:
		return configErrorf("policy %q: unknown operator %q on %q", policyName, p.Op, p.Field)
	}
}

func validateFieldPath(policyName, path string) error {
	if path == "" {
		return configErrorf("policy %q: field path must not be empty", policyName)
	}
	for _, segment := range strings.Split(path, ".") {
		if _, _, _, ok := splitSegment(segment); !ok {
			return configErrorf("policy %q: malformed field path %q", policyName, path)
		}
	}
	return nil
}
