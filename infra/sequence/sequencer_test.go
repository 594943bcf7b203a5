package sequence

import "testing"

func TestNextStartsAtOne(t *testing.T) {
	s := New(0)
	if got := s.Next(); got != 1 {
		t.Fatalf("first id = %d, want 1", got)
	}
	if got := s.Next(); got != 2 {
		t.Fatalf("second id = %d, want 2", got)
	}
	if got := s.Last(); got != 2 {
		t.Fatalf("last = %d, want 2", got)
	}
}

func TestRestoreNeverMovesBackwards(t *testing.T) {
	s := New(0)
	s.Restore(10)
	s.Restore(4)
	if got := s.Next(); got != 11 {
		t.Fatalf("next after restore = %d, want 11", got)
	}
}
