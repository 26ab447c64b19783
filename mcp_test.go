package calcrules_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/njchilds90/calcrules"
)

func TestHandleToolCall_ApplyRule(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "apply_rule",
		Params: map[string]interface{}{"expr": "x^3 + x^2 + 8", "rule": "power_rule"},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "3*x^2 + 2*x" {
		t.Errorf("want 3*x^2 + 2*x, got %s", resp.String)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", resp.Result)
	}
	if result["applied"] != true {
		t.Error("expected applied=true")
	}
	if result["rule_name"] != "power_rule" {
		t.Errorf("want power_rule, got %v", result["rule_name"])
	}
}

func TestHandleToolCall_ApplyRule_DefaultsToAuto(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "apply_rule",
		Params: map[string]interface{}{"expr": "sin(2*x)"},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	if result["rule_name"] != "chain_rule" {
		t.Errorf("auto should pick chain_rule for sin(2*x), got %v", result["rule_name"])
	}
}

func TestHandleToolCall_ApplyRule_UnknownRule(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "apply_rule",
		Params: map[string]interface{}{"expr": "x^2", "rule": "bad_rule"},
	})
	if !strings.Contains(resp.Error, "Unknown rule") {
		t.Errorf("expected unknown-rule error, got %q", resp.Error)
	}
}

func TestHandleToolCall_Differentiate_Fallback(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "differentiate",
		Params: map[string]interface{}{"expr": "x^x"},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	if result["rule_name"] != "symbolic_fallback" {
		t.Errorf("want symbolic_fallback, got %v", result["rule_name"])
	}
}

func TestHandleToolCall_Evaluate(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "evaluate",
		Params: map[string]interface{}{"expr": "x^2 + 1", "value": float64(3)},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "10" {
		t.Errorf("want 10, got %s", resp.String)
	}
}

func TestHandleToolCall_EvaluateDerivativeAt(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "evaluate_derivative_at",
		Params: map[string]interface{}{"expr": "x^3 + x^2 + 8", "value": float64(2)},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "16" {
		t.Errorf("want 16, got %s", resp.String)
	}
}

func TestHandleToolCall_Parse(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "parse",
		Params: map[string]interface{}{"expr": "2^(3*x)"},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "2^(3*x)" {
		t.Errorf("parse should keep the raw tree, got %s", resp.String)
	}
}

func TestHandleToolCall_SimplifyAcceptsSerializedTree(t *testing.T) {
	expr := calcrules.AddOf(calcrules.S("x"), calcrules.S("x"))
	j, _ := calcrules.ToJSON(expr)
	var m map[string]interface{}
	json.Unmarshal([]byte(j), &m)

	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "simplify",
		Params: map[string]interface{}{"expr": m},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "2*x" {
		t.Errorf("want 2*x, got %s", resp.String)
	}
}

func TestHandleToolCall_Diff(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "diff",
		Params: map[string]interface{}{"expr": "sin(x)", "var": "x"},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "cos(x)" {
		t.Errorf("want cos(x), got %s", resp.String)
	}
}

func TestHandleToolCall_InvalidExpression(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "apply_rule",
		Params: map[string]interface{}{"expr": "x**"},
	})
	if !strings.Contains(resp.Error, "Invalid expression") {
		t.Errorf("expected invalid-expression error, got %q", resp.Error)
	}
}

func TestHandleToolCall_MissingParam(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{
		Tool:   "apply_rule",
		Params: map[string]interface{}{},
	})
	if !strings.Contains(resp.Error, "missing param") {
		t.Errorf("expected missing-param error, got %q", resp.Error)
	}
}

func TestHandleToolCall_UnknownTool(t *testing.T) {
	resp := calcrules.HandleToolCall(calcrules.ToolRequest{Tool: "nonexistent", Params: map[string]interface{}{}})
	if resp.Error == "" {
		t.Error("expected error for unknown tool")
	}
}

func TestMCPToolSpec(t *testing.T) {
	spec := calcrules.MCPToolSpec()
	if !strings.Contains(spec, "apply_rule") {
		t.Error("MCP spec should contain 'apply_rule'")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(spec), &m); err != nil {
		t.Errorf("MCP spec should be valid JSON: %v", err)
	}
}
