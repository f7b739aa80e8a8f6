package generation

import (
	"strings"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))
	a, b := NewID(now), NewID(now)
	if !strings.HasPrefix(a, "20260304T040607Z-") {
		t.Errorf("id %q does not start with the UTC timestamp", a)
	}
	if len(a) != len("20260304T040607Z-")+8 {
		t.Errorf("id %q has unexpected length", a)
	}
	if a == b {
		t.Error("ids for the same instant must differ")
	}
	if later := NewID(now.Add(time.Second)); later <= a[:16] {
		t.Errorf("%q should sort after %q", later, a)
	}
}
