package main

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Title", "Year"},
		[][]string{
			{"pathways-2022", "Pathways: Asynchronous Distributed Dataflow for ML", "2022"},
			{"zero-2020"}, // short row pads with empty cells
		},
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	)

	for _, want := range []string{"ID", "Title", "Year", "pathways-2022", "zero-2020"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<nil>") {
		t.Errorf("Short rows must render as empty cells:\n%s", out)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if out := renderTable(nil, nil, nil); out != "" {
		t.Errorf("Expected empty output for no headers, got %q", out)
	}
}
