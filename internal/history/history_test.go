package history

import (
	"fmt"
	"testing"
)

func TestFor_PrependsSystemTurn(t *testing.T) {
	s := New(10)
	s.AppendUser("+14155551234", "hello")

	turns := s.For("+14155551234")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleSystem {
		t.Errorf("expected first turn to be system, got %q", turns[0].Role)
	}
	if turns[1].Role != RoleUser || turns[1].Content != "hello" {
		t.Errorf("unexpected user turn: %+v", turns[1])
	}
}

func TestFor_EmptyConversation(t *testing.T) {
	s := New(10)

	turns := s.For("nobody@icloud.com")
	if len(turns) != 1 || turns[0].Role != RoleSystem {
		t.Errorf("expected only the system turn, got %+v", turns)
	}
}

func TestAppend_EvictsOldestBeyondCap(t *testing.T) {
	s := New(3) // cap = 6 stored turns

	for i := 0; i < 10; i++ {
		s.AppendUser("a", fmt.Sprintf("q%d", i))
		s.AppendAssistant("a", fmt.Sprintf("a%d", i))
	}

	turns := s.For("a")
	stored := turns[1:] // drop system prefix
	if len(stored) != 6 {
		t.Fatalf("expected 6 stored turns, got %d", len(stored))
	}
	// Oldest-first eviction: the retained suffix is the last three exchanges.
	if stored[0].Content != "q7" {
		t.Errorf("expected oldest retained turn q7, got %q", stored[0].Content)
	}
	if stored[5].Content != "a9" {
		t.Errorf("expected newest retained turn a9, got %q", stored[5].Content)
	}
	// Strict chronological order of the suffix.
	want := []string{"q7", "a7", "q8", "a8", "q9", "a9"}
	for i, w := range want {
		if stored[i].Content != w {
			t.Errorf("turn %d: expected %q, got %q", i, w, stored[i].Content)
		}
	}
}

func TestClear_ResetsSingleCorrespondent(t *testing.T) {
	s := New(10)
	s.AppendUser("a", "hi")
	s.AppendUser("b", "yo")

	s.Clear("a")

	if got := len(s.For("a")); got != 1 {
		t.Errorf("expected cleared history for a, got %d turns", got)
	}
	if got := len(s.For("b")); got != 2 {
		t.Errorf("expected b untouched, got %d turns", got)
	}
	if s.Active() != 1 {
		t.Errorf("expected 1 active conversation, got %d", s.Active())
	}
}

func TestFor_ReturnsCopy(t *testing.T) {
	s := New(10)
	s.AppendUser("a", "hi")

	turns := s.For("a")
	turns[1].Content = "mutated"

	if got := s.For("a")[1].Content; got != "hi" {
		t.Errorf("mutating the returned slice leaked into the store: %q", got)
	}
}

func TestConversationsAreIsolated(t *testing.T) {
	s := New(10)
	s.AppendUser("+14155551234", "from phone")
	s.AppendUser("friend@icloud.com", "from email")

	phone := s.For("+14155551234")
	if len(phone) != 2 || phone[1].Content != "from phone" {
		t.Errorf("phone history polluted: %+v", phone)
	}
}
