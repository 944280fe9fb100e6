package builtin

import (
	"context"
	"fmt"
	"sort"

	"github.com/devlaiger/taskflow/tool"
)

// ChartSeriesTool reshapes a label->value mapping (an explicit "series"
// config parameter, or any upstream output exposing one) into the
// parallel-array point series chart libraries typically expect:
// {labels: [...], values: [...]}.
type ChartSeriesTool struct{}

// NewChartSeriesTool constructs the chart series shaping tool.
func NewChartSeriesTool() *ChartSeriesTool { return &ChartSeriesTool{} }

func (t *ChartSeriesTool) Name() string { return "chart_series" }

func (t *ChartSeriesTool) Description() string {
	return "Reshapes a label->value mapping into {labels, values} parallel arrays, sorted by label."
}

func (t *ChartSeriesTool) Execute(ctx context.Context, params tool.Params) (tool.Result, error) {
	series := findSeries(params)
	if series == nil {
		return nil, fmt.Errorf("chart_series: no \"series\" mapping found in inputs")
	}

	labels := make([]string, 0, len(series))
	for label := range series {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	values := make([]float64, 0, len(labels))
	for _, label := range labels {
		values = append(values, series[label])
	}

	return tool.Result{"labels": labels, "values": values}, nil
}

func findSeries(params tool.Params) map[string]float64 {
	if raw, ok := params["series"]; ok {
		if m, ok := toSeriesMap(raw); ok {
			return m
		}
	}
	for key, raw := range params {
		if key == "series" {
			continue
		}
		if nested, ok := raw.(map[string]any); ok {
			if s, ok := nested["series"]; ok {
				if m, ok := toSeriesMap(s); ok {
					return m
				}
			}
		}
	}
	return nil
}

func toSeriesMap(raw any) (map[string]float64, bool) {
	switch m := raw.(type) {
	case map[string]float64:
		return m, true
	case map[string]any:
		out := make(map[string]float64, len(m))
		for k, v := range m {
			f, ok := toFloat(v)
			if !ok {
				return nil, false
			}
			out[k] = f
		}
		return out, true
	}
	return nil, false
}
