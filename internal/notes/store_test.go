package notes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/strollcast/strollcast/internal/models"
)

func testEpisode() models.Episode {
	return models.Episode{
		ID:        "pathways-2022",
		Title:     "Pathways: Asynchronous Distributed Dataflow for ML",
		Authors:   "Barham et al.",
		Year:      2022,
		Duration:  "29 min",
		AudioPath: "/barham-2022-pathways/barham-2022-pathways.m4a",
	}
}

func TestStore_ReadMissingDocument(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if got := store.Read(testEpisode()); got != "" {
		t.Errorf("Expected empty string for missing document, got %q", got)
	}
}

func TestStore_EnsureIsIdempotent(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	episode := testEpisode()

	if err := store.Ensure(episode); err != nil {
		t.Fatalf("Failed to ensure document: %v", err)
	}

	doc := store.Read(episode)
	if !strings.Contains(doc, "id: pathways-2022") {
		t.Errorf("Expected identity metadata in header, got:\n%s", doc)
	}
	if !strings.Contains(doc, "## Notes") {
		t.Errorf("Expected notes heading, got:\n%s", doc)
	}

	// Mutate the document, then re-ensure: it must not be recreated
	edited := doc + "my own notes\n"
	if err := store.Write(episode, edited); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}
	if err := store.Ensure(episode); err != nil {
		t.Fatalf("Failed to re-ensure document: %v", err)
	}
	if got := store.Read(episode); got != edited {
		t.Error("Ensure overwrote an existing document")
	}
}

func TestStore_WriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	episode := testEpisode()

	if err := store.Write(episode, "content"); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	// No temp file left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("Expected no temp file after write, found %s", entry.Name())
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "pathways-2022.md")); err != nil {
		t.Errorf("Expected document file to exist: %v", err)
	}
}

func TestStore_AddTimestampedComment(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	episode := testEpisode()

	if err := store.AddTimestampedComment(episode, 61, "first thought"); err != nil {
		t.Fatalf("Failed to add comment: %v", err)
	}

	comments := store.Comments(episode)
	if len(comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(comments))
	}
	if comments[0].Time != 61 {
		t.Errorf("Expected comment at 61s, got %v", comments[0].Time)
	}
	if comments[0].Text != "first thought" {
		t.Errorf("Expected 'first thought', got '%s'", comments[0].Text)
	}

	// The tagged line sits in the notes section, after the heading
	doc := store.Read(episode)
	headingIdx := strings.Index(doc, "## Notes")
	commentIdx := strings.Index(doc, "[1:01] first thought")
	if headingIdx < 0 || commentIdx < 0 || commentIdx < headingIdx {
		t.Errorf("Expected comment after notes heading, got:\n%s", doc)
	}
}

func TestStore_ToleranceWindowReplaces(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	episode := testEpisode()

	if err := store.AddTimestampedComment(episode, 61, "original"); err != nil {
		t.Fatalf("Failed to add first comment: %v", err)
	}
	if err := store.AddTimestampedComment(episode, 62, "replacement"); err != nil {
		t.Fatalf("Failed to add second comment: %v", err)
	}

	comments := store.Comments(episode)
	if len(comments) != 1 {
		t.Fatalf("Expected exactly 1 comment after tolerance replace, got %d", len(comments))
	}
	if comments[0].Text != "replacement" {
		t.Errorf("Expected the second write to win, got '%s'", comments[0].Text)
	}
	if comments[0].Time != 62 {
		t.Errorf("Expected timestamp 62, got %v", comments[0].Time)
	}
}

func TestStore_CommentsOutsideToleranceCoexist(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	episode := testEpisode()

	store.AddTimestampedComment(episode, 61, "one")
	store.AddTimestampedComment(episode, 70, "two")

	comments := store.Comments(episode)
	if len(comments) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(comments))
	}
}

func TestStore_CommentPreservesFreeformNotes(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	episode := testEpisode()

	if err := store.Ensure(episode); err != nil {
		t.Fatalf("Failed to ensure: %v", err)
	}
	doc := store.Read(episode)
	doc += "a freeform note the user typed\n"
	if err := store.Write(episode, doc); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	if err := store.AddTimestampedComment(episode, 30, "tagged"); err != nil {
		t.Fatalf("Failed to add comment: %v", err)
	}

	got := store.Read(episode)
	if !strings.Contains(got, "a freeform note the user typed") {
		t.Errorf("Freeform note lost:\n%s", got)
	}
	if !strings.Contains(got, "[0:30] tagged") {
		t.Errorf("Tagged comment missing:\n%s", got)
	}
}
