// Package builtin provides four ready-to-register example tools:
// arithmetic, static data fetch, list aggregation, and chart series
// shaping. They exist to exercise the engine end-to-end and are not part
// of the core contract.
package builtin

import (
	"context"
	"fmt"
	"sort"

	"github.com/devlaiger/taskflow/tool"
)

// ArithmeticTool implements a four-function calculator over "value" (or
// "a"/"b") and "const" parameters.
type ArithmeticTool struct{}

// NewArithmeticTool constructs the arithmetic tool.
func NewArithmeticTool() *ArithmeticTool { return &ArithmeticTool{} }

func (t *ArithmeticTool) Name() string { return "arithmetic" }

func (t *ArithmeticTool) Description() string {
	return "Performs add/subtract/multiply/divide over numeric inputs."
}

func (t *ArithmeticTool) Execute(ctx context.Context, params tool.Params) (tool.Result, error) {
	op, _ := params["op"].(string)
	if op == "" {
		op = "add"
	}

	a, err := numericParam(params, "a", "value")
	if err != nil {
		return nil, err
	}
	// b/const is never resolved via the upstream fallback scan: that scan
	// would otherwise find the very same upstream value already claimed by
	// a/value above and use it twice.
	b, hasB := numericNamedOnly(params, "b", "const")
	if !hasB {
		b = 0
	}

	var out float64
	switch op {
	case "add":
		out = a + b
	case "subtract":
		out = a - b
	case "multiply":
		out = a * b
	case "divide":
		if b == 0 {
			return nil, fmt.Errorf("arithmetic: division by zero")
		}
		out = a / b
	default:
		return nil, fmt.Errorf("arithmetic: unsupported op %q", op)
	}

	return tool.Result{"result": out}, nil
}

// numericParam looks up the first present key among names and coerces it
// to float64, merging upstream output maps (whole-mapping, keyed by
// producer id) the same way ToolBackedAgent assembles its invocation map.
func numericParam(params tool.Params, names ...string) (float64, error) {
	v, ok := numericParamOptional(params, names...)
	if !ok {
		return 0, fmt.Errorf("arithmetic: missing numeric parameter among %v", names)
	}
	return v, nil
}

func numericParamOptional(params tool.Params, names ...string) (float64, bool) {
	for _, name := range names {
		raw, ok := params[name]
		if !ok {
			continue
		}
		if f, ok := resolveNumeric(raw); ok {
			return f, true
		}
	}
	// No parameter named "a"/"value" etc. was found directly: a
	// single-predecessor agent's upstream output is instead keyed by the
	// producer's agent_id, so scan whatever else is present for a
	// result-bearing mapping. Keys are sorted first so the choice is
	// stable across runs rather than following Go's randomized map
	// iteration order; with more than one unnamed upstream producer this
	// tool only ever consumes one of them; name operands explicitly
	// ("a"/"b") to combine two upstream values.
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == "op" || key == "b" || key == "const" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if f, ok := resolveNumeric(params[key]); ok {
			return f, true
		}
	}
	return 0, false
}

// numericNamedOnly resolves a parameter strictly from one of names,
// without falling back to scanning the rest of params for an upstream
// value. Used for operands (like b/const) that must default to 0 rather
// than silently reusing whatever upstream value another operand already
// claimed.
func numericNamedOnly(params tool.Params, names ...string) (float64, bool) {
	for _, name := range names {
		raw, ok := params[name]
		if !ok {
			continue
		}
		if f, ok := resolveNumeric(raw); ok {
			return f, true
		}
	}
	return 0, false
}

// nestedNumericKeys are the fields an upstream tool's output is checked
// for when an agent's own invocation parameters don't carry a plain
// numeric value directly.
var nestedNumericKeys = []string{"result", "data", "value"}

func resolveNumeric(raw any) (float64, bool) {
	if f, ok := toFloat(raw); ok {
		return f, true
	}
	nested, ok := raw.(map[string]any)
	if !ok {
		if r, ok := raw.(tool.Result); ok {
			nested = map[string]any(r)
		} else {
			return 0, false
		}
	}
	for _, key := range nestedNumericKeys {
		if f, ok := toFloat(nested[key]); ok {
			return f, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
