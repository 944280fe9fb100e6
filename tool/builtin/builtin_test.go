package builtin

import (
	"context"
	"testing"

	"github.com/devlaiger/taskflow/tool"
)

func TestArithmeticTool(t *testing.T) {
	tests := []struct {
		name    string
		params  tool.Params
		want    float64
		wantErr bool
	}{
		{name: "add with value+const", params: tool.Params{"op": "add", "value": 10.0, "const": 5.0}, want: 15},
		{name: "default op is add", params: tool.Params{"value": 10.0, "const": 5.0}, want: 15},
		{name: "divide by zero", params: tool.Params{"op": "divide", "value": 1.0, "const": 0.0}, wantErr: true},
		{name: "missing operand", params: tool.Params{"op": "add"}, wantErr: true},
		{name: "operand from upstream output keyed by producer id", params: tool.Params{"op": "add", "upstream-agent": map[string]any{"result": 10.0}, "const": 5.0}, want: 15},
	}

	at := NewArithmeticTool()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := at.Execute(context.Background(), tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := res["result"].(float64); got != tt.want {
				t.Fatalf("result = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaticFetchTool(t *testing.T) {
	sf := NewStaticFetchTool()
	res, err := sf.Execute(context.Background(), tool.Params{"data": map[string]any{"x": 1}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	data := res["data"].(map[string]any)
	if data["x"] != 1 {
		t.Fatalf("data = %+v", data)
	}
}

func TestListAggregateTool(t *testing.T) {
	la := NewListAggregateTool()

	res, err := la.Execute(context.Background(), tool.Params{"op": "sum", "values": []any{1.0, 2.0, 3.0}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res["result"].(float64) != 6 {
		t.Fatalf("sum = %v", res["result"])
	}

	res, err = la.Execute(context.Background(), tool.Params{
		"op": "avg",
		"A":  map[string]any{"result": 10.0},
		"B":  map[string]any{"result": 20.0},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res["result"].(float64) != 15 {
		t.Fatalf("avg from upstream outputs = %v", res["result"])
	}

	if _, err := la.Execute(context.Background(), tool.Params{}); err == nil {
		t.Fatal("expected error with no values")
	}
}

func TestChartSeriesTool(t *testing.T) {
	cs := NewChartSeriesTool()
	res, err := cs.Execute(context.Background(), tool.Params{
		"series": map[string]any{"b": 2.0, "a": 1.0},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	labels := res["labels"].([]string)
	values := res["values"].([]float64)
	if len(labels) != 2 || labels[0] != "a" || labels[1] != "b" {
		t.Fatalf("labels = %v", labels)
	}
	if values[0] != 1 || values[1] != 2 {
		t.Fatalf("values = %v", values)
	}

	if _, err := cs.Execute(context.Background(), tool.Params{}); err == nil {
		t.Fatal("expected error with no series")
	}
}
