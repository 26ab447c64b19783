package calcrules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/calcrules"
)

func TestApplyRule_Specific(t *testing.T) {
	res, err := calcrules.ApplyRule("(x+1)*(x+2)", "x", "product_rule")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, calcrules.RuleProduct, res.RuleName)
}

func TestApplyRule_Auto_PicksFirstApplicable(t *testing.T) {
	// (3*x + 1)^5 expands to a polynomial, so the power rule wins even
	// though the chain rule would also match.
	res, err := calcrules.ApplyRule("(3*x + 1)^5", "x", "auto")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, calcrules.RulePower, res.RuleName)
}

func TestApplyRule_Auto_FallsThroughToChain(t *testing.T) {
	res, err := calcrules.ApplyRule("cos(x^3)", "x", "auto")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, calcrules.RuleChain, res.RuleName)
}

func TestApplyRule_Auto_SymbolicConstantFactor(t *testing.T) {
	// y*sin(x) + y is not a polynomial in x, but factoring out y makes
	// the constant multiple rule apply.
	res, err := calcrules.ApplyRule("y*sin(x) + y", "x", "auto")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, calcrules.RuleConstantMultiple, res.RuleName)
	assert.Equal(t, "cos(x)*y", res.Output.String())
}

func TestApplyRule_EmptyRuleMeansAuto(t *testing.T) {
	res, err := calcrules.ApplyRule("x^2", "x", "")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, calcrules.RulePower, res.RuleName)
}

func TestApplyRule_Auto_NothingMatches(t *testing.T) {
	// No rule handles x^x; auto reports the last rule's verdict and
	// never falls back to the generic derivative.
	res, err := calcrules.ApplyRule("x^x", "x", "auto")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, calcrules.RuleExponential, res.RuleName)
	assert.True(t, res.Output.Equal(res.Input))
}

func TestApplyRule_RepeatedCallsAgree(t *testing.T) {
	first, err := calcrules.ApplyRule("cos(x^3)", "x", "auto")
	require.NoError(t, err)
	second, err := calcrules.ApplyRule("cos(x^3)", "x", "auto")
	require.NoError(t, err)
	assert.Equal(t, first.Applied, second.Applied)
	assert.Equal(t, first.RuleName, second.RuleName)
	assert.Equal(t, first.Message, second.Message)
	assert.Equal(t, first.Steps, second.Steps)
	assert.True(t, second.Output.Equal(first.Output))
}

func TestApplyRule_UnknownRule(t *testing.T) {
	_, err := calcrules.ApplyRule("x^2", "x", "bad_rule")
	require.Error(t, err)
	var unknown *calcrules.UnknownRuleError
	assert.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), "Unknown rule")
	assert.Contains(t, err.Error(), "auto")
}

func TestAllowedRules(t *testing.T) {
	rules := calcrules.AllowedRules()
	assert.Equal(t, []string{
		"auto", "power_rule", "constant_multiple_rule",
		"product_rule", "chain_rule", "exponential_rule",
	}, rules)
}

func TestDifferentiateWithRules_UsesRule(t *testing.T) {
	res, err := calcrules.DifferentiateWithRules("x^3 + x^2 + 8", "x")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, calcrules.RulePower, res.RuleName)
	assert.Equal(t, "3*x^2 + 2*x", res.Output.String())
}

func TestDifferentiateWithRules_Fallback(t *testing.T) {
	res, err := calcrules.DifferentiateWithRules("x^x", "x")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, calcrules.RuleSymbolicFallback, res.RuleName)
	assert.Equal(t, "(ln(x) + 1)*x^x", res.Output.String())
	assert.Contains(t, res.Message, "fallback")
}

func TestEvaluateFunction(t *testing.T) {
	out, err := calcrules.EvaluateFunction("x^2 + 1", 3, "x")
	require.NoError(t, err)
	assert.Equal(t, "10", out.String())
}

func TestEvaluateFunction_StringValue(t *testing.T) {
	out, err := calcrules.EvaluateFunction("x^2", "y", "x")
	require.NoError(t, err)
	assert.Equal(t, "y^2", out.String())
}

func TestEvaluateDerivativeAt(t *testing.T) {
	out, err := calcrules.EvaluateDerivativeAt("x^3 + x^2 + 8", 2, "x")
	require.NoError(t, err)
	assert.Equal(t, "16", out.String())
}

func TestEvaluateDerivativeAt_Fallback(t *testing.T) {
	// d/dx(2^x) = 2^x*ln(2); at x=0 that is ln(2), kept exact.
	out, err := calcrules.EvaluateDerivativeAt("2^x", 0, "x")
	require.NoError(t, err)
	assert.Equal(t, "ln(2)", out.String())
}

func TestDispatch_InvalidExpression(t *testing.T) {
	_, err := calcrules.DifferentiateWithRules("x +* 2", "x")
	require.Error(t, err)
	var invalid *calcrules.InvalidExpressionError
	assert.ErrorAs(t, err, &invalid)
}
