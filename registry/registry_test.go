package registry

import "testing"

type testItem struct {
	ID   string
	Name string
}

func TestBaseRegistry_Register(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "register valid item", id: "item-1", wantErr: false},
		{name: "register item with empty name", id: "", wantErr: true},
	}

	r := NewBaseRegistry[testItem]()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.id, testItem{ID: tt.id, Name: tt.name})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := r.Register("item-1", testItem{ID: "item-1"}); err == nil {
		t.Fatal("expected error registering duplicate name")
	}
}

func TestBaseRegistry_GetListRemoveCount(t *testing.T) {
	r := NewBaseRegistry[testItem]()
	_ = r.Register("a", testItem{ID: "a", Name: "Alpha"})
	_ = r.Register("b", testItem{ID: "b", Name: "Beta"})

	if got, ok := r.Get("a"); !ok || got.Name != "Alpha" {
		t.Fatalf("Get(a) = %+v, %v", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get(missing) should not be found")
	}

	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
	if got := r.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Names() = %v, want [a b]", got)
	}
	if got := r.List(); len(got) != 2 {
		t.Fatalf("List() len = %d, want 2", len(got))
	}

	if err := r.Remove("a"); err != nil {
		t.Fatalf("Remove(a) error = %v", err)
	}
	if err := r.Remove("a"); err == nil {
		t.Fatal("Remove(a) twice should error")
	}

	r.Clear()
	if r.Count() != 0 {
		t.Fatalf("Clear() left Count() = %d", r.Count())
	}
}

func TestBaseRegistry_RegisterOverwrite(t *testing.T) {
	r := NewBaseRegistry[testItem]()
	_ = r.Register("a", testItem{ID: "a", Name: "first"})
	if err := r.RegisterOverwrite("a", testItem{ID: "a", Name: "second"}); err != nil {
		t.Fatalf("RegisterOverwrite error = %v", err)
	}
	got, _ := r.Get("a")
	if got.Name != "second" {
		t.Fatalf("Get(a).Name = %q, want second", got.Name)
	}
}
