package synckit

import "testing"

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version != Version {
		t.Errorf("Info.Version = %q, want %q", info.Version, Version)
	}
	want := map[string]bool{"epoch": true, "spinlock": true, "locks": true}
	if len(info.Primitives) != len(want) {
		t.Fatalf("Primitives = %v", info.Primitives)
	}
	for _, p := range info.Primitives {
		if !want[p] {
			t.Errorf("unexpected primitive %q", p)
		}
	}
}
