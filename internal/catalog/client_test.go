package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const episodesJSON = `{
  "version": 3,
  "episodes": [
    {
      "id": "pathways-2022",
      "title": "Pathways: Asynchronous Distributed Dataflow for ML",
      "authors": "Barham et al.",
      "year": 2022,
      "duration": "29 min",
      "audioPath": "/barham-2022-pathways/barham-2022-pathways.m4a"
    },
    {
      "id": "zero-2020",
      "title": "ZeRO: Memory Optimizations Toward Training Trillion Parameter Models",
      "authors": "Rajbhandari et al.",
      "year": 2020,
      "duration": "17 min",
      "audioPath": "/rajbhandari-2020-zero/rajbhandari-2020-zero.m4a"
    }
  ]
}`

func TestClient_Episodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/episodes" {
			t.Errorf("Expected path /episodes, got %s", r.URL.Path)
		}
		w.Write([]byte(episodesJSON))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	episodes, err := client.Episodes(context.Background())
	if err != nil {
		t.Fatalf("Failed to fetch episodes: %v", err)
	}

	if len(episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(episodes))
	}
	if episodes[0].ID != "pathways-2022" {
		t.Errorf("Expected first episode 'pathways-2022', got '%s'", episodes[0].ID)
	}
	if episodes[0].Year != 2022 {
		t.Errorf("Expected year 2022, got %d", episodes[0].Year)
	}
	if client.Version() != 3 {
		t.Errorf("Expected version 3, got %d", client.Version())
	}

	// Lookup against the fetched list
	episode, err := client.Lookup("zero-2020")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if episode.Authors != "Rajbhandari et al." {
		t.Errorf("Unexpected authors: %s", episode.Authors)
	}

	if _, err := client.Lookup("nope"); !errors.Is(err, ErrUnknownEpisode) {
		t.Errorf("Expected ErrUnknownEpisode, got %v", err)
	}
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Episodes(context.Background()); err == nil {
		t.Error("Expected error for 500 response")
	}
}

func TestClient_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Episodes(context.Background()); err == nil {
		t.Error("Expected error for undecodable body")
	}
}
