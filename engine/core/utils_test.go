package core

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 1, 10); got != 5 {
		t.Errorf("in-range value changed: %d", got)
	}
	if got := Clamp(-3, 1, 10); got != 1 {
		t.Errorf("expected low bound, got %d", got)
	}
	if got := Clamp(42, 1, 10); got != 10 {
		t.Errorf("expected high bound, got %d", got)
	}
	if got := Clamp(uint32(4000), uint32(64), uint32(1024)); got != 1024 {
		t.Errorf("expected 1024, got %d", got)
	}
}

func TestNewResourceIDCarriesKind(t *testing.T) {
	a := NewResourceID("renderer")
	b := NewResourceID("renderer")
	if a == b {
		t.Error("identifiers should be unique")
	}
	if len(a) <= len("renderer") {
		t.Errorf("identifier %q missing suffix", a)
	}
}
