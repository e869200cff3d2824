package models

import (
	"slices"
	"testing"
)

func TestTranscript_AppendDropsBlank(t *testing.T) {
	var tr Transcript
	tr.Append("We start with a load balancer.")
	if tr.Append("   ") {
		t.Error("expected blank segment to be rejected")
	}
	tr.Append("")
	tr.Append("Then a cache.")

	if tr.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d", tr.Len())
	}
	if tr.Text() != "We start with a load balancer. Then a cache." {
		t.Errorf("unexpected text: %q", tr.Text())
	}
}

func TestTranscript_SegmentsIsACopy(t *testing.T) {
	var tr Transcript
	tr.Append("first")

	segs := tr.Segments()
	segs[0] = "changed"

	if !slices.Equal(tr.Segments(), []string{"first"}) {
		t.Errorf("expected transcript to be unchanged, got %v", tr.Segments())
	}
}
