package device

import (
	"errors"
	"testing"
)

func TestManager_RegisterAndGet(t *testing.T) {
	m := NewManager()

	pv := NewSimDevice("pv1", TypeDRER, 2.5)
	if err := m.Register(pv); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := m.Get("pv1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID() != "pv1" || got.Type() != TypeDRER {
		t.Errorf("Get() = %s/%s, want pv1/drer", got.ID(), got.Type())
	}

	if !m.Exists("pv1") {
		t.Error("Exists(pv1) = false")
	}
	if m.Exists("pv2") {
		t.Error("Exists(pv2) = true for unregistered device")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestManager_RegisterDuplicate(t *testing.T) {
	m := NewManager()

	if err := m.Register(NewSimDevice("pv1", TypeDRER, 1)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	err := m.Register(NewSimDevice("pv1", TypeLoad, 2))
	if !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Register() error = %v, want ErrExists", err)
	}
}

func TestManager_GetMissing(t *testing.T) {
	m := NewManager()
	_, err := m.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestManager_IterateStableOrder(t *testing.T) {
	m := NewManager()
	for _, id := range []string{"c", "a", "b"} {
		if err := m.Register(NewSimDevice(id, TypeLoad, 0)); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}

	var got []string
	for _, d := range m.Iterate() {
		got = append(got, d.ID())
	}

	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Iterate() order = %v, want %v", got, want)
		}
	}
}

func TestParseType(t *testing.T) {
	for _, valid := range []string{"drer", "DESD", "Load", "dg", "GRID"} {
		if _, err := ParseType(valid); err != nil {
			t.Errorf("ParseType(%q) error = %v", valid, err)
		}
	}

	if _, err := ParseType("toaster"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("ParseType(toaster) error = %v, want ErrInvalidType", err)
	}
}
