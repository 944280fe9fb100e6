package builtin

import (
	"context"
	"fmt"

	"github.com/devlaiger/taskflow/tool"
)

// ListAggregateTool computes sum/avg/min/max/count over a numeric list. The
// list is taken from an explicit "values" config parameter if present,
// otherwise it is collected from every upstream output mapping merged into
// this invocation (each keyed by producer agent id).
type ListAggregateTool struct{}

// NewListAggregateTool constructs the list aggregation tool.
func NewListAggregateTool() *ListAggregateTool { return &ListAggregateTool{} }

func (t *ListAggregateTool) Name() string { return "list_aggregate" }

func (t *ListAggregateTool) Description() string {
	return "Aggregates (sum, avg, min, max, count) a numeric list from config or upstream outputs."
}

func (t *ListAggregateTool) Execute(ctx context.Context, params tool.Params) (tool.Result, error) {
	op, _ := params["op"].(string)
	if op == "" {
		op = "sum"
	}

	values := collectValues(params)
	if len(values) == 0 {
		return nil, fmt.Errorf("list_aggregate: no numeric values found in inputs")
	}

	var out float64
	switch op {
	case "sum":
		for _, v := range values {
			out += v
		}
	case "avg":
		var sum float64
		for _, v := range values {
			sum += v
		}
		out = sum / float64(len(values))
	case "min":
		out = values[0]
		for _, v := range values[1:] {
			if v < out {
				out = v
			}
		}
	case "max":
		out = values[0]
		for _, v := range values[1:] {
			if v > out {
				out = v
			}
		}
	case "count":
		out = float64(len(values))
	default:
		return nil, fmt.Errorf("list_aggregate: unsupported op %q", op)
	}

	return tool.Result{"result": out, "count": len(values)}, nil
}

// collectValues flattens every numeric leaf reachable from params: direct
// "values" lists, bare numbers, and "result"/"data" fields of nested
// upstream-output mappings.
func collectValues(params tool.Params) []float64 {
	if raw, ok := params["values"]; ok {
		if list, ok := toFloatSlice(raw); ok {
			return list
		}
	}

	var values []float64
	for key, raw := range params {
		if key == "op" {
			continue
		}
		values = append(values, extractNumbers(raw)...)
	}
	return values
}

func extractNumbers(raw any) []float64 {
	if f, ok := toFloat(raw); ok {
		return []float64{f}
	}
	if list, ok := toFloatSlice(raw); ok {
		return list
	}
	switch nested := raw.(type) {
	case map[string]any:
		return numbersFromMap(nested)
	case tool.Result:
		return numbersFromMap(nested)
	}
	return nil
}

func numbersFromMap(m map[string]any) []float64 {
	var out []float64
	if v, ok := m["result"]; ok {
		out = append(out, extractNumbers(v)...)
	}
	if v, ok := m["data"]; ok {
		out = append(out, extractNumbers(v)...)
	}
	if v, ok := m["values"]; ok {
		out = append(out, extractNumbers(v)...)
	}
	return out
}

func toFloatSlice(raw any) ([]float64, bool) {
	switch list := raw.(type) {
	case []float64:
		return list, true
	case []any:
		out := make([]float64, 0, len(list))
		for _, item := range list {
			f, ok := toFloat(item)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	case []int:
		out := make([]float64, 0, len(list))
		for _, item := range list {
			out = append(out, float64(item))
		}
		return out, true
	}
	return nil, false
}
