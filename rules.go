package calcrules

import "fmt"

// Rule names accepted by ApplyRule.
const (
	RuleAuto             = "auto"
	RulePower            = "power_rule"
	RuleConstantMultiple = "constant_multiple_rule"
	RuleProduct          = "product_rule"
	RuleChain            = "chain_rule"
	RuleExponential      = "exponential_rule"
	RuleSymbolicFallback = "symbolic_fallback"
)

// DefaultVar is the differentiation variable used when none is given.
const DefaultVar = "x"

// RuleResult reports one rule application attempt. When Applied is
// false, Output equals Input and Steps is empty; the Message says why
// the rule did not fire. A not-applicable result is a normal answer,
// not an error.
type RuleResult struct {
	Input    Expr
	Output   Expr
	Applied  bool
	RuleName string
	Message  string
	Steps    []string
}

func notApplicable(input Expr, ruleName, message string) RuleResult {
	return RuleResult{
		Input:    input,
		Output:   input,
		Applied:  false,
		RuleName: ruleName,
		Message:  message,
	}
}

// Normalize turns rule-layer input into an expression: strings are
// parsed, expressions pass through unchanged. An empty varName means
// DefaultVar.
func Normalize(expr any, varName string) (Expr, error) {
	switch v := expr.(type) {
	case nil:
		if varName == "" {
			varName = DefaultVar
		}
		return nil, &InvalidExpressionError{Text: "<nil>", Var: varName}
	case Expr:
		return v, nil
	case string:
		return Parse(v, varName)
	default:
		if varName == "" {
			varName = DefaultVar
		}
		return nil, &InvalidExpressionError{Text: fmt.Sprintf("%T", expr), Var: varName}
	}
}

// PowerRule differentiates polynomials term by term. It applies only
// when the expanded expression is a polynomial in varName.
func PowerRule(expr any, varName string) (RuleResult, error) {
	if varName == "" {
		varName = DefaultVar
	}
	f, err := Normalize(expr, varName)
	if err != nil {
		return RuleResult{}, err
	}
	f = Expand(f)

	if !IsPolynomial(f, varName) {
		return notApplicable(f, RulePower,
			fmt.Sprintf("Not applicable: expression is not a polynomial in %s (power-rule mode).", varName)), nil
	}

	out := Collect(Diff(f, varName), varName)
	return RuleResult{
		Input:    f,
		Output:   out,
		Applied:  true,
		RuleName: RulePower,
		Message:  "Applied power rule term-by-term (polynomial).",
		Steps: []string{
			fmt.Sprintf("Recognize polynomial in %s.", varName),
			"Differentiate each term.",
		},
	}, nil
}

// ConstantMultipleRule pulls a constant factor out of the derivative:
// d/dx[c*f(x)] = c*f'(x). It applies only when a constant factor other
// than 1 sits outside all dependence on varName.
func ConstantMultipleRule(expr any, varName string) (RuleResult, error) {
	if varName == "" {
		varName = DefaultVar
	}
	f, err := Normalize(expr, varName)
	if err != nil {
		return RuleResult{}, err
	}
	// Factoring keeps 5*(x^2 + 1) detectable instead of expanding it away.
	fs := FactorTerms(f.Simplify())
	c, rest := AsIndependent(fs, varName)
	if cn, ok := c.(*Num); ok && cn.IsOne() {
		return notApplicable(fs, RuleConstantMultiple,
			"Not applicable: no constant multiple factor found."), nil
	}

	out := Simplify(MulOf(c, Diff(rest, varName)))
	return RuleResult{
		Input:    fs,
		Output:   out,
		Applied:  true,
		RuleName: RuleConstantMultiple,
		Message:  "Applied constant multiple rule for derivatives.",
		Steps: []string{
			fmt.Sprintf("Factor out constant c = %s.", c.String()),
			"Differentiate the remaining part.",
		},
	}, nil
}

// ProductRule applies d/dx[f(x)g(x)] = f g' + f' g. It applies only
// when the simplified expression is a product with exactly two
// varName-dependent factors.
func ProductRule(expr any, varName string) (RuleResult, error) {
	if varName == "" {
		varName = DefaultVar
	}
	e, err := Normalize(expr, varName)
	if err != nil {
		return RuleResult{}, err
	}
	e = e.Simplify()

	m, ok := e.(*Mul)
	if !ok {
		return notApplicable(e, RuleProduct,
			"Not applicable: expression is not a product."), nil
	}

	c, rest := AsIndependent(m, varName)
	var factors []Expr
	if rm, ok := rest.(*Mul); ok {
		factors = rm.Factors()
	} else {
		factors = []Expr{rest}
	}
	var nonconst []Expr
	for _, f := range factors {
		if DependsOn(f, varName) {
			nonconst = append(nonconst, f)
		}
	}
	if len(nonconst) != 2 {
		return notApplicable(e, RuleProduct,
			fmt.Sprintf("Not applicable: product rule requires exactly two %s-dependent factors (simple mode).", varName)), nil
	}

	f1, f2 := nonconst[0], nonconst[1]
	out := Simplify(MulOf(c, AddOf(
		MulOf(f1, Diff(f2, varName)),
		MulOf(Diff(f1, varName), f2),
	)))
	return RuleResult{
		Input:    e,
		Output:   out,
		Applied:  true,
		RuleName: RuleProduct,
		Message:  "Applied product rule.",
		Steps: []string{
			fmt.Sprintf("Identify f(%s) and g(%s).", varName, varName),
			"Compute f g' + f' g.",
		},
	}, nil
}

// ChainRule handles a few common outer forms: (g(x))^n with constant
// n != 1, exp(g(x)), ln(g(x)), sin(g(x)), and cos(g(x)). Anything else
// is not applicable.
func ChainRule(expr any, varName string) (RuleResult, error) {
	if varName == "" {
		varName = DefaultVar
	}
	e, err := Normalize(expr, varName)
	if err != nil {
		return RuleResult{}, err
	}
	e = e.Simplify()

	if p, ok := e.(*Pow); ok {
		g := p.Base()
		n := p.ExpExpr()
		nIsOne := false
		if nn, ok := n.(*Num); ok && nn.IsOne() {
			nIsOne = true
		}
		if DependsOn(g, varName) && !DependsOn(n, varName) && !nIsOne {
			out := Simplify(MulOf(n, PowOf(g, AddOf(n, N(-1))), Diff(g, varName)))
			return RuleResult{
				Input:    e,
				Output:   out,
				Applied:  true,
				RuleName: RuleChain,
				Message:  "Applied chain rule for power of inner function.",
				Steps: []string{
					fmt.Sprintf("Match pattern (g(%s))^n.", varName),
					fmt.Sprintf("Derivative: n*(g(%s))^(n-1)*g'(%s).", varName, varName),
				},
			}, nil
		}
	}

	if f, ok := e.(*Func); ok && DependsOn(f.Arg(), varName) {
		g := f.Arg()
		switch f.FuncName() {
		case "exp":
			out := Simplify(MulOf(ExpOf(g), Diff(g, varName)))
			return RuleResult{
				Input:    e,
				Output:   out,
				Applied:  true,
				RuleName: RuleChain,
				Message:  "Applied chain rule for exponential.",
				Steps: []string{
					fmt.Sprintf("Match pattern exp(g(%s)).", varName),
					fmt.Sprintf("Derivative: exp(g(%s))*g'(%s).", varName, varName),
				},
			}, nil
		case "ln":
			out := Simplify(MulOf(Diff(g, varName), PowOf(g, N(-1))))
			return RuleResult{
				Input:    e,
				Output:   out,
				Applied:  true,
				RuleName: RuleChain,
				Message:  "Applied chain rule for natural log.",
				Steps: []string{
					fmt.Sprintf("Match pattern ln(g(%s)).", varName),
					fmt.Sprintf("Derivative: g'(%s)/g(%s).", varName, varName),
				},
			}, nil
		case "sin":
			out := Simplify(MulOf(CosOf(g), Diff(g, varName)))
			return RuleResult{
				Input:    e,
				Output:   out,
				Applied:  true,
				RuleName: RuleChain,
				Message:  "Applied chain rule for sine.",
				Steps: []string{
					fmt.Sprintf("Match pattern sin(g(%s)).", varName),
					fmt.Sprintf("Derivative: cos(g(%s))*g'(%s).", varName, varName),
				},
			}, nil
		case "cos":
			out := Simplify(MulOf(N(-1), SinOf(g), Diff(g, varName)))
			return RuleResult{
				Input:    e,
				Output:   out,
				Applied:  true,
				RuleName: RuleChain,
				Message:  "Applied chain rule for cosine.",
				Steps: []string{
					fmt.Sprintf("Match pattern cos(g(%s)).", varName),
					fmt.Sprintf("Derivative: -sin(g(%s))*g'(%s).", varName, varName),
				},
			}, nil
		}
	}

	return notApplicable(e, RuleChain,
		"Not applicable: expression does not match supported chain-rule patterns (simple mode)."), nil
}

// ExponentialRule applies d/dx(a^x) = a^x*ln(a) for a constant base a.
// String input is matched against the unsimplified parse: simplifying
// first would rewrite 2^(3*x) into 8^x and let the rule fire on an
// expression whose exponent is not the bare variable.
func ExponentialRule(expr any, varName string) (RuleResult, error) {
	if varName == "" {
		varName = DefaultVar
	}
	e, err := Normalize(expr, varName)
	if err != nil {
		return RuleResult{}, err
	}

	p, ok := e.(*Pow)
	if !ok {
		return notApplicable(e, RuleExponential,
			fmt.Sprintf("Not applicable: expression is not a^%s.", varName)), nil
	}

	a := p.Base()
	expo := p.ExpExpr()
	if s, ok := expo.(*Sym); !ok || s.Name() != varName {
		return notApplicable(e, RuleExponential,
			fmt.Sprintf("Not applicable: exponent is not %s.", varName)), nil
	}
	if DependsOn(a, varName) {
		return notApplicable(e, RuleExponential,
			"Not applicable: base a is not constant."), nil
	}

	out := Simplify(MulOf(e.Simplify(), LnOf(a)))
	return RuleResult{
		Input:    e,
		Output:   out,
		Applied:  true,
		RuleName: RuleExponential,
		Message:  "Applied exponential derivative rule.",
		Steps: []string{
			fmt.Sprintf("Match pattern a^%s with constant a.", varName),
			fmt.Sprintf("Derivative: a^%s ln(a).", varName),
		},
	}, nil
}
