package chat

import (
	"fmt"
	"testing"
)

func TestRecentRing_Append(t *testing.T) {
	t.Run("holds fewer than capacity in order", func(t *testing.T) {
		ring := NewRecentRing(5)
		ring.Append("one")
		ring.Append("two")
		ring.Append("three")

		got := ring.Snapshot()
		want := []string{"one", "two", "three"}
		if len(got) != len(want) {
			t.Fatalf("snapshot length = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("snapshot[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("evicts oldest at capacity", func(t *testing.T) {
		ring := NewRecentRing(3)
		for _, s := range []string{"a", "b", "c", "d"} {
			ring.Append(s)
		}

		got := ring.Snapshot()
		want := []string{"b", "c", "d"}
		if len(got) != len(want) {
			t.Fatalf("snapshot length = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("snapshot[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})
}

// After R+k appends the snapshot must equal the last R appends in order.
func TestRecentRing_SnapshotProperty(t *testing.T) {
	const capacity = 20
	for _, extra := range []int{0, 1, 7, 20, 53} {
		t.Run(fmt.Sprintf("extra=%d", extra), func(t *testing.T) {
			ring := NewRecentRing(capacity)
			total := capacity + extra
			for i := 0; i < total; i++ {
				ring.Append(fmt.Sprintf("msg-%d", i))
			}

			got := ring.Snapshot()
			if len(got) != capacity {
				t.Fatalf("snapshot length = %d, want %d", len(got), capacity)
			}
			for i := 0; i < capacity; i++ {
				want := fmt.Sprintf("msg-%d", total-capacity+i)
				if got[i] != want {
					t.Errorf("snapshot[%d] = %q, want %q", i, got[i], want)
				}
			}
		})
	}
}

func TestRecentRing_Len(t *testing.T) {
	ring := NewRecentRing(2)

	if ring.Len() != 0 {
		t.Errorf("initial Len() = %d, want 0", ring.Len())
	}

	ring.Append("a")
	if ring.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ring.Len())
	}

	ring.Append("b")
	ring.Append("c")
	if ring.Len() != 2 {
		t.Errorf("Len() saturated = %d, want 2", ring.Len())
	}
}
