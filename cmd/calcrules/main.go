// cmd/calcrules/main.go — Command-line front end for the derivative
// rule engine.
//
// Usage:
//   calcrules rule "3x^2+1" --rule power_rule
//   calcrules diff "x^2*sin(x)"
//   calcrules eval "x^3+x^2+8" --at 2
//   calcrules eval-derivative "x^3+x^2+8" --at 2 --var x
package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/njchilds90/calcrules"
)

var (
	styleRule    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	styleOutput  = lipgloss.NewStyle().Bold(true)
	styleMessage = lipgloss.NewStyle().Foreground(lipgloss.Color("#20B9B4"))
	styleStep    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
	styleNA      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
)

var (
	varName  string
	ruleName string
	atValue  string

	rootCmd = &cobra.Command{
		Use:   "calcrules",
		Short: "Rule-based symbolic differentiation",
		Long: `calcrules differentiates expressions the way a calculus course does:
by recognizing and applying named rules (power, constant multiple,
product, chain, exponential), with a generic symbolic fallback.`,
	}

	ruleCmd = &cobra.Command{
		Use:   "rule [expression]",
		Short: "Apply one derivative rule (or auto-select the first applicable)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := calcrules.ApplyRule(args[0], varName, ruleName)
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}

	diffCmd = &cobra.Command{
		Use:   "diff [expression]",
		Short: "Differentiate with rule recognition, falling back to the symbolic derivative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := calcrules.DifferentiateWithRules(args[0], varName)
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}

	evalCmd = &cobra.Command{
		Use:   "eval [expression]",
		Short: "Evaluate an expression at a point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := calcrules.EvaluateFunction(args[0], atValue, varName)
			if err != nil {
				return err
			}
			fmt.Println(styleOutput.Render(out.String()))
			return nil
		},
	}

	evalDerivCmd = &cobra.Command{
		Use:   "eval-derivative [expression]",
		Short: "Differentiate, then evaluate the derivative at a point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := calcrules.EvaluateDerivativeAt(args[0], atValue, varName)
			if err != nil {
				return err
			}
			fmt.Println(styleOutput.Render(out.String()))
			return nil
		},
	}
)

func printResult(res calcrules.RuleResult) {
	if !res.Applied {
		fmt.Printf("%s %s\n", styleRule.Render(res.RuleName+":"), styleNA.Render("not applicable"))
		fmt.Println(styleMessage.Render(res.Message))
		return
	}
	fmt.Printf("%s d/d%s[%s] = %s\n",
		styleRule.Render(res.RuleName+":"), varName, res.Input.String(),
		styleOutput.Render(res.Output.String()))
	fmt.Println(styleMessage.Render(res.Message))
	for i, step := range res.Steps {
		fmt.Println(styleStep.Render(fmt.Sprintf("  %d. %s", i+1, step)))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&varName, "var", calcrules.DefaultVar, "differentiation variable")
	ruleCmd.Flags().StringVar(&ruleName, "rule", calcrules.RuleAuto,
		fmt.Sprintf("rule to apply (%s)", strings.Join(calcrules.AllowedRules(), ", ")))
	evalCmd.Flags().StringVar(&atValue, "at", "", "value to substitute for the variable")
	evalDerivCmd.Flags().StringVar(&atValue, "at", "", "value to substitute for the variable")
	_ = evalCmd.MarkFlagRequired("at")
	_ = evalDerivCmd.MarkFlagRequired("at")

	rootCmd.AddCommand(ruleCmd, diffCmd, evalCmd, evalDerivCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
