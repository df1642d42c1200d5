package chat

import (
	"fmt"
	"reflect"
	"testing"
)

func TestRecentRingSnapshotOrder(t *testing.T) {
	ring := NewRecentRing(3)

	ring.Append("a")
	ring.Append("b")

	got := ring.Snapshot()
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

func TestRecentRingEvictsOldest(t *testing.T) {
	ring := NewRecentRing(3)

	for _, line := range []string{"a", "b", "c", "d"} {
		ring.Append(line)
	}

	got := ring.Snapshot()
	want := []string{"b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

func TestRecentRingLastRAppendsSurvive(t *testing.T) {
	const capacity = 5
	const total = 17 // R + k, k = 12

	ring := NewRecentRing(capacity)
	for i := 0; i < total; i++ {
		ring.Append(fmt.Sprintf("line-%d", i))
	}

	got := ring.Snapshot()
	want := make([]string, capacity)
	for i := 0; i < capacity; i++ {
		want[i] = fmt.Sprintf("line-%d", total-capacity+i)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

func TestRecentRingEmpty(t *testing.T) {
	ring := NewRecentRing(4)
	got := ring.Snapshot()
	if len(got) != 0 {
		t.Errorf("Snapshot() on empty ring = %v, want empty", got)
	}
}
