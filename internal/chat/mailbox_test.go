package chat

import (
	"errors"
	"fmt"
	"testing"
)

func TestMailbox_Enqueue(t *testing.T) {
	t.Run("accepts up to capacity", func(t *testing.T) {
		mb := NewMailbox(3)
		for i := 0; i < 3; i++ {
			if err := mb.Enqueue("dave", fmt.Sprintf("m%d", i), 0); err != nil {
				t.Fatalf("Enqueue %d: %v", i, err)
			}
		}
		if mb.Len() != 3 {
			t.Errorf("Len() = %d, want 3", mb.Len())
		}
	})

	t.Run("fails when full", func(t *testing.T) {
		mb := NewMailbox(1)
		if err := mb.Enqueue("dave", "first", 0); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}

		err := mb.Enqueue("dave", "second", PriorityUrgent)
		if !errors.Is(err, ErrMailboxFull) {
			t.Errorf("err = %v, want ErrMailboxFull", err)
		}
		if mb.Len() != 1 {
			t.Errorf("Len() = %d, want 1", mb.Len())
		}
	})
}

func TestMailbox_DrainFor(t *testing.T) {
	t.Run("higher priority first", func(t *testing.T) {
		mb := NewMailbox(10)
		_ = mb.Enqueue("dave", "normal", 0)
		_ = mb.Enqueue("dave", "urgent", PriorityUrgent)

		entries := mb.DrainFor("dave")
		if len(entries) != 2 {
			t.Fatalf("drained %d entries, want 2", len(entries))
		}
		if entries[0].Body != "urgent" || entries[1].Body != "normal" {
			t.Errorf("order = [%q, %q], want [urgent, normal]", entries[0].Body, entries[1].Body)
		}
	})

	t.Run("FIFO within a priority", func(t *testing.T) {
		mb := NewMailbox(10)
		for i := 0; i < 4; i++ {
			_ = mb.Enqueue("dave", fmt.Sprintf("m%d", i), PriorityUrgent)
		}

		entries := mb.DrainFor("dave")
		if len(entries) != 4 {
			t.Fatalf("drained %d entries, want 4", len(entries))
		}
		for i, e := range entries {
			want := fmt.Sprintf("m%d", i)
			if e.Body != want {
				t.Errorf("entries[%d].Body = %q, want %q", i, e.Body, want)
			}
		}
	})

	t.Run("preserves other recipients", func(t *testing.T) {
		mb := NewMailbox(10)
		_ = mb.Enqueue("dave", "for dave", 0)
		_ = mb.Enqueue("erin", "for erin", 0)
		_ = mb.Enqueue("dave", "also dave", PriorityUrgent)

		entries := mb.DrainFor("dave")
		if len(entries) != 2 {
			t.Fatalf("drained %d entries, want 2", len(entries))
		}
		if mb.Len() != 1 {
			t.Errorf("Len() after drain = %d, want 1", mb.Len())
		}

		rest := mb.DrainFor("erin")
		if len(rest) != 1 || rest[0].Body != "for erin" {
			t.Errorf("erin's entries = %v, want one 'for erin'", rest)
		}
	})

	t.Run("second drain is empty", func(t *testing.T) {
		mb := NewMailbox(10)
		_ = mb.Enqueue("dave", "once", 0)

		if got := mb.DrainFor("dave"); len(got) != 1 {
			t.Fatalf("first drain = %d entries, want 1", len(got))
		}
		if got := mb.DrainFor("dave"); len(got) != 0 {
			t.Errorf("second drain = %d entries, want 0", len(got))
		}
	})
}
