package history

import (
	"testing"

	"github.com/strollcast/strollcast/internal/models"
)

func ep(id string) models.Episode {
	return models.Episode{ID: id}
}

func TestStack_RecordAndGoBack(t *testing.T) {
	s := New()

	if s.CanGoBack() {
		t.Error("Empty stack must not allow going back")
	}
	if _, ok := s.Current(); ok {
		t.Error("Empty stack has no current entry")
	}

	s.Record(ep("a"), 10)
	if s.CanGoBack() {
		t.Error("Single entry must not allow going back")
	}

	s.Record(ep("b"), 20)
	if !s.CanGoBack() {
		t.Fatal("Expected to be able to go back")
	}

	entry, ok := s.GoBack()
	if !ok {
		t.Fatal("GoBack failed")
	}
	if entry.Episode.ID != "a" || entry.Position != 10 {
		t.Errorf("Expected entry a@10, got %s@%v", entry.Episode.ID, entry.Position)
	}

	// Going back does not remove entries
	if s.Len() != 2 {
		t.Errorf("Expected 2 entries after GoBack, got %d", s.Len())
	}

	// At the front, no further back
	if _, ok := s.GoBack(); ok {
		t.Error("Expected GoBack to fail at the front")
	}
}

func TestStack_BranchTruncation(t *testing.T) {
	s := New()
	s.Record(ep("a"), 0)
	s.Record(ep("b"), 0)

	if _, ok := s.GoBack(); !ok {
		t.Fatal("GoBack failed")
	}

	// Recording while not at the tail prunes the forward branch
	s.Record(ep("c"), 0)

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries [a c], got %d", len(entries))
	}
	if entries[0].Episode.ID != "a" || entries[1].Episode.ID != "c" {
		t.Errorf("Expected [a c], got [%s %s]", entries[0].Episode.ID, entries[1].Episode.ID)
	}

	current, _ := s.Current()
	if current.Episode.ID != "c" {
		t.Errorf("Expected cursor at c, got %s", current.Episode.ID)
	}
}

func TestStack_CapDropsOldest(t *testing.T) {
	s := New()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		s.Record(ep(id), 0)
	}

	if s.Len() != MaxEntries {
		t.Fatalf("Expected %d entries, got %d", MaxEntries, s.Len())
	}

	entries := s.Entries()
	if entries[0].Episode.ID != "b" {
		t.Errorf("Expected oldest entry 'b' after cap, got '%s'", entries[0].Episode.ID)
	}
	if entries[len(entries)-1].Episode.ID != "e" {
		t.Errorf("Expected newest entry 'e', got '%s'", entries[len(entries)-1].Episode.ID)
	}

	// Cursor still points at the tail
	current, _ := s.Current()
	if current.Episode.ID != "e" {
		t.Errorf("Expected cursor at e, got %s", current.Episode.ID)
	}
}

func TestStack_UpdatePosition(t *testing.T) {
	s := New()
	s.UpdatePosition(99) // no-op on an empty stack

	s.Record(ep("a"), 0)
	s.Record(ep("b"), 0)
	s.UpdatePosition(42)

	entries := s.Entries()
	if entries[0].Position != 0 {
		t.Errorf("Expected a's position untouched, got %v", entries[0].Position)
	}
	if entries[1].Position != 42 {
		t.Errorf("Expected cursor entry position 42, got %v", entries[1].Position)
	}
}

func TestStack_RepeatedGoBackRetraces(t *testing.T) {
	s := New()
	s.Record(ep("a"), 1)
	s.Record(ep("b"), 2)
	s.Record(ep("c"), 3)

	first, _ := s.GoBack()
	if first.Episode.ID != "b" {
		t.Errorf("Expected b, got %s", first.Episode.ID)
	}
	second, _ := s.GoBack()
	if second.Episode.ID != "a" {
		t.Errorf("Expected a, got %s", second.Episode.ID)
	}
	if s.Len() != 3 {
		t.Errorf("Retracing must not destroy entries, got %d", s.Len())
	}
}
