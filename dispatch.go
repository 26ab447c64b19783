package calcrules

import "fmt"

type ruleFunc func(expr any, varName string) (RuleResult, error)

var ruleOrder = []struct {
	name string
	fn   ruleFunc
}{
	{RulePower, PowerRule},
	{RuleConstantMultiple, ConstantMultipleRule},
	{RuleProduct, ProductRule},
	{RuleChain, ChainRule},
	{RuleExponential, ExponentialRule},
}

// AllowedRules lists the rule names ApplyRule accepts, auto first.
func AllowedRules() []string {
	names := []string{RuleAuto}
	for _, r := range ruleOrder {
		names = append(names, r.name)
	}
	return names
}

// ApplyRule applies one named derivative rule, or with RuleAuto (or
// an empty rule) tries each rule in a fixed order and returns the
// first applied result. When no rule applies in auto mode, the last
// rule's not-applicable result comes back; auto never falls back to
// generic differentiation.
func ApplyRule(expr any, varName, rule string) (RuleResult, error) {
	if rule == "" {
		rule = RuleAuto
	}
	if rule == RuleAuto {
		var last RuleResult
		for _, r := range ruleOrder {
			res, err := r.fn(expr, varName)
			if err != nil {
				return RuleResult{}, err
			}
			if res.Applied {
				return res, nil
			}
			last = res
		}
		return last, nil
	}
	for _, r := range ruleOrder {
		if r.name == rule {
			return r.fn(expr, varName)
		}
	}
	return RuleResult{}, &UnknownRuleError{Name: rule}
}

// DifferentiateWithRules tries the rule handlers in order and falls
// back to the generic symbolic derivative when none applies. The
// result is always Applied.
func DifferentiateWithRules(expr any, varName string) (RuleResult, error) {
	if varName == "" {
		varName = DefaultVar
	}
	res, err := ApplyRule(expr, varName, RuleAuto)
	if err != nil {
		return RuleResult{}, err
	}
	if res.Applied {
		return res, nil
	}

	f, err := Normalize(expr, varName)
	if err != nil {
		return RuleResult{}, err
	}
	out := Simplify(Diff(f.Simplify(), varName))
	return RuleResult{
		Input:    f,
		Output:   out,
		Applied:  true,
		RuleName: RuleSymbolicFallback,
		Message:  "No simple rule matched; used symbolic differentiation fallback.",
		Steps: []string{
			fmt.Sprintf("Apply generic symbolic derivative d/d%s.", varName),
		},
	}, nil
}

// EvaluateFunction substitutes value for varName and simplifies.
// value may be an Expr, a string, or a Go number.
func EvaluateFunction(expr any, value any, varName string) (Expr, error) {
	if varName == "" {
		varName = DefaultVar
	}
	f, err := Normalize(expr, varName)
	if err != nil {
		return nil, err
	}
	v, err := normalizeValue(value, varName)
	if err != nil {
		return nil, err
	}
	return Simplify(Sub(f, varName, v)), nil
}

// EvaluateDerivativeAt differentiates with DifferentiateWithRules and
// evaluates the derivative at value.
func EvaluateDerivativeAt(expr any, value any, varName string) (Expr, error) {
	if varName == "" {
		varName = DefaultVar
	}
	deriv, err := DifferentiateWithRules(expr, varName)
	if err != nil {
		return nil, err
	}
	return EvaluateFunction(deriv.Output, value, varName)
}

func normalizeValue(value any, varName string) (Expr, error) {
	switch v := value.(type) {
	case Expr:
		return v, nil
	case string:
		return Parse(v, varName)
	case int:
		return N(int64(v)), nil
	case int64:
		return N(v), nil
	case float64:
		return NFloat(v), nil
	default:
		return nil, &InvalidExpressionError{Text: fmt.Sprintf("%T", value), Var: varName}
	}
}
