package catalog

import (
	"path/filepath"
	"testing"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), DefaultDBFile))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRecordAndList(t *testing.T) {
	c := openTestClient(t)

	id, err := c.Record(Run{
		Track:      "song.wav",
		ModelType:  "passthrough",
		Backend:    "native",
		SampleRate: 44100,
		Stems:      "vocals,drums",
		DurationMs: 180000,
		ElapsedMs:  4200,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == "" {
		t.Fatal("Record must generate an ID")
	}

	runs, err := c.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != id || got.Track != "song.wav" || got.Stems != "vocals,drums" {
		t.Fatalf("stored run does not match: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not populated")
	}
}

func TestRecordKeepsExplicitID(t *testing.T) {
	c := openTestClient(t)
	id, err := c.Record(Run{ID: "fixed-id", Track: "a.wav"})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id != "fixed-id" {
		t.Fatalf("Record replaced the caller's ID with %q", id)
	}
}

func TestByTrack(t *testing.T) {
	c := openTestClient(t)
	for _, track := range []string{"a.wav", "b.wav", "a.wav"} {
		if _, err := c.Record(Run{Track: track, ModelType: "passthrough"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	runs, err := c.ByTrack("a.wav")
	if err != nil {
		t.Fatalf("ByTrack failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs for a.wav, want 2", len(runs))
	}
	for _, r := range runs {
		if r.Track != "a.wav" {
			t.Fatalf("ByTrack returned run for %q", r.Track)
		}
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil client: %v", err)
	}
	if _, err := c.Record(Run{}); err == nil {
		t.Error("Record on nil client must error")
	}
	if _, err := c.List(); err == nil {
		t.Error("List on nil client must error")
	}
}
