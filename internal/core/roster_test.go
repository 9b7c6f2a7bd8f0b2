package core

import (
	"reflect"
	"testing"
)

func TestRosterSetRemoveSnapshot(t *testing.T) {
	r := NewRoster()

	if got := r.Snapshot(); len(got) != 0 || got == nil {
		t.Fatalf("empty roster snapshot = %#v, want empty non-nil slice", got)
	}

	if !r.Set("a", "alice") || !r.Set("b", "bob") || !r.Set("c", "carol") {
		t.Fatalf("expected new insertions")
	}
	if r.Set("a", "alicia") {
		t.Fatalf("rename reported as insertion")
	}
	if got, want := r.Snapshot(), []string{"alicia", "bob", "carol"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}

	name, ok := r.Remove("b")
	if !ok || name != "bob" {
		t.Fatalf("remove b = %q, %v", name, ok)
	}
	if _, ok := r.Remove("b"); ok {
		t.Fatalf("second remove should report missing")
	}

	// Indexes after the removed slot stay valid.
	if name, ok := r.Name("c"); !ok || name != "carol" {
		t.Fatalf("name(c) = %q, %v", name, ok)
	}
	r.Set("c", "caroline")
	if got, want := r.Snapshot(), []string{"alicia", "caroline"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestRosterSnapshotIsCopy(t *testing.T) {
	r := NewRoster()
	r.Set("a", "alice")

	snap := r.Snapshot()
	snap[0] = "mallory"

	if name, _ := r.Name("a"); name != "alice" {
		t.Fatalf("snapshot mutation leaked into roster: %q", name)
	}
}
