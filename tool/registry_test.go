package tool

import (
	"context"
	"testing"
)

type stubTool struct {
	name string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub tool " + s.name }
func (s *stubTool) Execute(ctx context.Context, params Params) (Result, error) {
	return Result{"echo": params}, nil
}

func TestRegistry_RegisterGetList(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&stubTool{name: "alpha"}, false); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := r.Register(&stubTool{name: "alpha"}, false); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}

	if err := r.Register(&stubTool{name: "alpha"}, true); err != nil {
		t.Fatalf("Register(overwrite) error = %v", err)
	}

	got, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("Get(alpha) error = %v", err)
	}
	if got.Name() != "alpha" {
		t.Fatalf("Get(alpha).Name() = %q", got.Name())
	}

	if _, err := r.Get("missing"); err == nil {
		t.Fatal("expected Get(missing) to fail")
	}

	_ = r.Register(&stubTool{name: "beta"}, false)
	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("List() len = %d, want 2", len(infos))
	}

	if err := r.Unregister("alpha"); err != nil {
		t.Fatalf("Unregister(alpha) error = %v", err)
	}
	if _, err := r.Get("alpha"); err == nil {
		t.Fatal("expected Get(alpha) to fail after Unregister")
	}
}

func TestRegistry_RegisterNilOrEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil, false); err == nil {
		t.Fatal("expected Register(nil) to fail")
	}
	if err := r.Register(&stubTool{name: ""}, false); err == nil {
		t.Fatal("expected Register(empty name) to fail")
	}
}
