package calcrules_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/njchilds90/calcrules"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := calcrules.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := calcrules.F(1, 3)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_Diff_IsZero(t *testing.T) {
	result := calcrules.N(5).Diff("x")
	if calcrules.String(result) != "0" {
		t.Errorf("d/dx(5) should be 0, got %s", calcrules.String(result))
	}
}

// ============================================================
// Sym tests
// ============================================================

func TestSym_Sub_Match(t *testing.T) {
	x := calcrules.S("x")
	result := x.Sub("x", calcrules.N(3))
	if calcrules.String(result) != "3" {
		t.Errorf("want 3, got %s", calcrules.String(result))
	}
}

func TestSym_Diff_Self(t *testing.T) {
	result := calcrules.S("x").Diff("x")
	if calcrules.String(result) != "1" {
		t.Errorf("d/dx(x) should be 1, got %s", calcrules.String(result))
	}
}

// ============================================================
// Add tests
// ============================================================

func TestAdd_CombinesBareSymbols(t *testing.T) {
	x := calcrules.S("x")
	e := calcrules.AddOf(x, x, x, calcrules.N(2))
	if calcrules.String(e) != "3*x + 2" {
		t.Errorf("want 3*x + 2, got %s", calcrules.String(e))
	}
}

func TestAdd_CombinesLikeTerms(t *testing.T) {
	x := calcrules.S("x")
	x2 := calcrules.PowOf(x, calcrules.N(2))
	e := calcrules.AddOf(calcrules.MulOf(calcrules.N(3), x2), x2)
	if calcrules.String(e) != "4*x^2" {
		t.Errorf("3*x^2 + x^2 should combine to 4*x^2, got %s", calcrules.String(e))
	}
}

func TestAdd_CancellationToZero(t *testing.T) {
	x := calcrules.S("x")
	e := calcrules.AddOf(x, calcrules.MulOf(calcrules.N(-1), x))
	if calcrules.String(e) != "0" {
		t.Errorf("x - x should be 0, got %s", calcrules.String(e))
	}
}

// ============================================================
// Pow tests
// ============================================================

func TestPow_FoldsScaledExponent(t *testing.T) {
	// 2^(3*x) simplifies to 8^x.
	e := calcrules.PowOf(calcrules.N(2), calcrules.MulOf(calcrules.N(3), calcrules.S("x")))
	if calcrules.String(e) != "8^x" {
		t.Errorf("2^(3*x) should simplify to 8^x, got %s", calcrules.String(e))
	}
}

func TestPow_String_ParenthesizesCompoundExponent(t *testing.T) {
	e := calcrules.MustParse("2^(3*x)", "x")
	if e.String() != "2^(3*x)" {
		t.Errorf("want 2^(3*x), got %s", e.String())
	}
}

func TestPow_Diff_PowerRule(t *testing.T) {
	e := calcrules.PowOf(calcrules.S("x"), calcrules.N(3))
	d := calcrules.Diff(e, "x")
	if calcrules.String(d) != "3*x^2" {
		t.Errorf("d/dx(x^3) should be 3*x^2, got %s", calcrules.String(d))
	}
}

func TestPow_Diff_ConstantBase(t *testing.T) {
	e := calcrules.PowOf(calcrules.N(2), calcrules.S("x"))
	d := calcrules.Diff(e, "x")
	if calcrules.String(d) != "2^x*ln(2)" {
		t.Errorf("d/dx(2^x) should be 2^x*ln(2), got %s", calcrules.String(d))
	}
}

// ============================================================
// Func tests
// ============================================================

func TestFunc_LnStaysExact(t *testing.T) {
	e := calcrules.LnOf(calcrules.N(2))
	if calcrules.String(e) != "ln(2)" {
		t.Errorf("ln(2) should stay symbolic, got %s", calcrules.String(e))
	}
}

func TestFunc_LnOfOneIsZero(t *testing.T) {
	e := calcrules.LnOf(calcrules.N(1))
	if calcrules.String(e) != "0" {
		t.Errorf("ln(1) should simplify to 0, got %s", calcrules.String(e))
	}
}

func TestFunc_SinDiff(t *testing.T) {
	d := calcrules.Diff(calcrules.SinOf(calcrules.S("x")), "x")
	if calcrules.String(d) != "cos(x)" {
		t.Errorf("d/dx(sin(x)) should be cos(x), got %s", calcrules.String(d))
	}
}

// ============================================================
// Expand / Collect tests
// ============================================================

func TestExpand_SquareOfBinomial(t *testing.T) {
	e := calcrules.MustParse("(3*x + 1)^2", "x")
	out := calcrules.Expand(e)
	if calcrules.String(out) != "9*x^2 + 6*x + 1" {
		t.Errorf("want 9*x^2 + 6*x + 1, got %s", calcrules.String(out))
	}
}

func TestCollect_DescendingDegree(t *testing.T) {
	e := calcrules.MustParse("x + x^3 + 2*x^2", "x")
	out := calcrules.Collect(e, "x")
	if calcrules.String(out) != "x^3 + 2*x^2 + x" {
		t.Errorf("want x^3 + 2*x^2 + x, got %s", calcrules.String(out))
	}
}

func TestCollect_KeepsIndependentFunctionCoefficient(t *testing.T) {
	e := calcrules.MulOf(calcrules.SinOf(calcrules.S("y")), calcrules.S("x"))
	out := calcrules.Collect(e, "x")
	if !strings.Contains(calcrules.String(out), "sin(y)") {
		t.Errorf("collect should keep sin(y) coefficient, got %s", calcrules.String(out))
	}
}

// ============================================================
// Predicate tests
// ============================================================

func TestIsPolynomial(t *testing.T) {
	if !calcrules.IsPolynomial(calcrules.MustParse("x^3 + x^2 + 8", "x").Simplify(), "x") {
		t.Error("x^3 + x^2 + 8 should be a polynomial in x")
	}
	if calcrules.IsPolynomial(calcrules.MustParse("sin(x) + x^2", "x").Simplify(), "x") {
		t.Error("sin(x) + x^2 should not be a polynomial in x")
	}
	if !calcrules.IsPolynomial(calcrules.SinOf(calcrules.S("y")), "x") {
		t.Error("sin(y) should count as constant in x")
	}
}

func TestAsIndependent_SplitsConstantFactor(t *testing.T) {
	e := calcrules.MustParse("5*(x^2 + 1)", "x").Simplify()
	c, rest := calcrules.AsIndependent(e, "x")
	if calcrules.String(c) != "5" {
		t.Errorf("want constant 5, got %s", calcrules.String(c))
	}
	if !calcrules.DependsOn(rest, "x") {
		t.Errorf("dependent part should contain x, got %s", calcrules.String(rest))
	}
}

func TestFactorTerms_PullsCommonInteger(t *testing.T) {
	e := calcrules.MustParse("5*x^2 + 5", "x")
	out := calcrules.FactorTerms(e)
	if calcrules.String(out) != "5*(x^2 + 1)" {
		t.Errorf("want 5*(x^2 + 1), got %s", calcrules.String(out))
	}
}

func TestFactorTerms_PullsRationalCoefficient(t *testing.T) {
	e := calcrules.MustParse("x/2 + 1/2", "x")
	out := calcrules.FactorTerms(e)
	if calcrules.String(out) != "1/2*(x + 1)" {
		t.Errorf("want 1/2*(x + 1), got %s", calcrules.String(out))
	}
}

func TestFactorTerms_PullsSharedSymbol(t *testing.T) {
	e := calcrules.MustParse("y*x + y", "x")
	out := calcrules.FactorTerms(e)
	if calcrules.String(out) != "(x + 1)*y" {
		t.Errorf("want (x + 1)*y, got %s", calcrules.String(out))
	}
}

func TestDegree(t *testing.T) {
	e := calcrules.MustParse("x^3 + x^2 + 8", "x").Simplify()
	if d := calcrules.Degree(e, "x"); d != 3 {
		t.Errorf("want degree 3, got %d", d)
	}
}

// ============================================================
// Eval / Sub tests
// ============================================================

func TestSub_EvaluatesPolynomial(t *testing.T) {
	e := calcrules.MustParse("x^2 + 1", "x")
	out := calcrules.Simplify(calcrules.Sub(e.Simplify(), "x", calcrules.N(3)))
	if calcrules.String(out) != "10" {
		t.Errorf("x^2+1 at x=3 should be 10, got %s", calcrules.String(out))
	}
}

func TestEval_Sin(t *testing.T) {
	n, ok := calcrules.SinOf(calcrules.N(0)).Eval()
	if !ok || n.Float64() != 0 {
		t.Errorf("sin(0) should evaluate to 0")
	}
}

// ============================================================
// JSON round trip
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	original := calcrules.MustParse("3*x^2 + sin(x)", "x").Simplify()
	j, err := calcrules.ToJSON(original)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(j), &m); err != nil {
		t.Fatal(err)
	}
	rebuilt, err := calcrules.FromJSON(m)
	if err != nil {
		t.Fatal(err)
	}
	if calcrules.String(rebuilt) != calcrules.String(original) {
		t.Errorf("round-trip mismatch: %s != %s", calcrules.String(rebuilt), calcrules.String(original))
	}
}
