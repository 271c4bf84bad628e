package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/strollcast/strollcast/internal/models"
)

const serviceVTT = `WEBVTT

00:00:00.000 --> 00:00:05.000
hello from the server
`

func TestService_FetchesAndCaches(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(serviceVTT))
	}))
	defer server.Close()

	dir := t.TempDir()
	svc := NewService(dir, nil)
	episode := models.Episode{ID: "pathways-2022", TranscriptURL: server.URL}

	cues := svc.Load(context.Background(), episode)
	if len(cues) != 1 {
		t.Fatalf("Expected 1 cue, got %d", len(cues))
	}
	if cues[0].Text != "hello from the server" {
		t.Errorf("Unexpected cue text: '%s'", cues[0].Text)
	}

	// Fetched document persisted locally
	if _, err := os.Stat(filepath.Join(dir, "pathways-2022.vtt")); err != nil {
		t.Errorf("Expected transcript to be cached on disk: %v", err)
	}

	// Second load hits the memory cache, not the network
	svc.Load(context.Background(), episode)
	if requests != 1 {
		t.Errorf("Expected 1 request, got %d", requests)
	}
}

func TestService_LocalFilePreferred(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "zero-2020.vtt"), []byte(serviceVTT), 0o644); err != nil {
		t.Fatalf("Failed to seed local transcript: %v", err)
	}

	svc := NewService(dir, nil)
	// No transcript URL: only the local file can serve this
	cues := svc.Load(context.Background(), models.Episode{ID: "zero-2020"})
	if len(cues) != 1 {
		t.Fatalf("Expected 1 cue from local file, got %d", len(cues))
	}
}

func TestService_CorruptLocalCopyRefetched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(serviceVTT))
	}))
	defer server.Close()

	dir := t.TempDir()
	local := filepath.Join(dir, "fsdp-2023.vtt")
	// Local copy exists but parses to zero cues
	if err := os.WriteFile(local, []byte("not a transcript at all"), 0o644); err != nil {
		t.Fatalf("Failed to seed corrupt transcript: %v", err)
	}

	svc := NewService(dir, nil)
	cues := svc.Load(context.Background(), models.Episode{ID: "fsdp-2023", TranscriptURL: server.URL})
	if len(cues) != 1 {
		t.Fatalf("Expected refetched transcript with 1 cue, got %d", len(cues))
	}

	// The fresh copy replaced the corrupt one
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("Expected refreshed local copy: %v", err)
	}
	if string(data) != serviceVTT {
		t.Error("Expected local copy to contain the refetched document")
	}
}

func TestService_DegradesToNoTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewService(t.TempDir(), nil)

	// Non-200 response
	cues := svc.Load(context.Background(), models.Episode{ID: "a", TranscriptURL: server.URL})
	if cues != nil {
		t.Errorf("Expected nil cues for 404, got %v", cues)
	}

	// No transcript URL at all
	cues = svc.Load(context.Background(), models.Episode{ID: "b"})
	if cues != nil {
		t.Errorf("Expected nil cues for missing URL, got %v", cues)
	}
}
