package calcrules

import (
	"fmt"
	"strings"
)

// InvalidExpressionError reports input that could not be parsed or
// normalized into an expression in the given variable.
type InvalidExpressionError struct {
	Text string
	Var  string
	Err  error
}

func (e *InvalidExpressionError) Error() string {
	return fmt.Sprintf("Invalid expression: %q; please provide a valid math expression in %s", e.Text, e.Var)
}

func (e *InvalidExpressionError) Unwrap() error { return e.Err }

// UnknownRuleError reports a rule name outside the allowed set.
type UnknownRuleError struct {
	Name string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("Unknown rule %q. Allowed values: %s.", e.Name, strings.Join(AllowedRules(), ", "))
}
