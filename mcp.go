package calcrules

import (
	"encoding/json"
	"fmt"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func HandleToolCall(req ToolRequest) ToolResponse {
	// expr params take either an expression string or a serialized tree.
	getExprAny := func(key string) (any, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case string:
			return val, nil
		case map[string]interface{}:
			e, err := FromJSON(val)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", key, err)
			}
			return e, nil
		default:
			return nil, fmt.Errorf("invalid type for param %s", key)
		}
	}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getVar := func() (string, error) {
		v, ok := req.Params["var"]
		if !ok {
			return DefaultVar, nil
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param var must be a string")
		}
		return s, nil
	}
	getValue := func() (any, error) {
		v, ok := req.Params["value"]
		if !ok {
			return nil, fmt.Errorf("missing param: value")
		}
		switch val := v.(type) {
		case float64, string:
			return val, nil
		case map[string]interface{}:
			e, err := FromJSON(val)
			if err != nil {
				return nil, fmt.Errorf("param value: %w", err)
			}
			return e, nil
		default:
			return nil, fmt.Errorf("invalid type for param value")
		}
	}
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: e.toJSON(), LaTeX: e.LaTeX(), String: e.String()}
	}
	respondRule := func(res RuleResult) ToolResponse {
		steps := res.Steps
		if steps == nil {
			steps = []string{}
		}
		return ToolResponse{
			Result: map[string]interface{}{
				"input":     res.Input.String(),
				"output":    res.Output.toJSON(),
				"applied":   res.Applied,
				"rule_name": res.RuleName,
				"message":   res.Message,
				"steps":     steps,
			},
			LaTeX:  res.Output.LaTeX(),
			String: res.Output.String(),
		}
	}

	switch req.Tool {
	case "apply_rule":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		rule := RuleAuto
		if _, ok := req.Params["rule"]; ok {
			rule, err = getString("rule")
			if err != nil {
				return ToolResponse{Error: err.Error()}
			}
		}
		res, err := ApplyRule(e, v, rule)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respondRule(res)

	case "differentiate":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		res, err := DifferentiateWithRules(e, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respondRule(res)

	case "evaluate":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		val, err := getValue()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		out, err := EvaluateFunction(e, val, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(out)

	case "evaluate_derivative_at":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		val, err := getValue()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		out, err := EvaluateDerivativeAt(e, val, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(out)

	case "parse":
		s, err := getString("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		e, err := Parse(s, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(e)

	case "simplify":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		ex, err := Normalize(e, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(Simplify(ex))

	case "expand":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		ex, err := Normalize(e, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(Expand(ex))

	case "diff":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		ex, err := Normalize(e, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(Diff(ex.Simplify(), v))

	case "diffn":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		nAny, ok := req.Params["n"]
		if !ok {
			return ToolResponse{Error: "missing param: n"}
		}
		nF, ok := nAny.(float64)
		if !ok {
			return ToolResponse{Error: "param n must be a number"}
		}
		n := int(nF)
		if n < 0 {
			return ToolResponse{Error: "param n must be >= 0"}
		}
		ex, err := Normalize(e, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(DiffN(ex.Simplify(), v, n))

	case "to_latex":
		e, err := getExprAny("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := getVar()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		ex, err := Normalize(e, v)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{LaTeX: ex.LaTeX(), String: ex.String()}

	case "mcp_spec":
		return ToolResponse{String: MCPToolSpec()}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

func MCPToolSpec() string {
	tools := []map[string]interface{}{
		ts("apply_rule", "Apply a derivative rule (auto, power_rule, constant_multiple_rule, product_rule, chain_rule, exponential_rule)", []string{"expr"}, map[string]string{"expr": "string", "var": "string", "rule": "string"}),
		ts("differentiate", "Differentiate with rule recognition, falling back to the generic symbolic derivative", []string{"expr"}, map[string]string{"expr": "string", "var": "string"}),
		ts("evaluate", "Substitute value for var and simplify", []string{"expr", "value"}, map[string]string{"expr": "string", "var": "string", "value": "number"}),
		ts("evaluate_derivative_at", "Differentiate, then evaluate the derivative at value", []string{"expr", "value"}, map[string]string{"expr": "string", "var": "string", "value": "number"}),
		ts("parse", "Parse an expression string into a serialized tree", []string{"expr"}, map[string]string{"expr": "string", "var": "string"}),
		ts("simplify", "Simplify an expression", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("expand", "Algebraically expand expression", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("diff", "First derivative d/dx", []string{"expr"}, map[string]string{"expr": "string", "var": "string"}),
		ts("diffn", "nth derivative. Requires n (int)", []string{"expr", "n"}, map[string]string{"expr": "string", "var": "string", "n": "integer"}),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
