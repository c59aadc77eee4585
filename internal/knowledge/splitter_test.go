package knowledge

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pepper-tutor/go-brain/internal/config"
)

func TestNewSplitter_RejectsBadPolicy(t *testing.T) {
	cases := []struct {
		name    string
		window  int
		overlap int
	}{
		{"zero window", 0, 0},
		{"negative window", -10, 0},
		{"overlap equals window", 100, 100},
		{"overlap exceeds window", 100, 150},
		{"negative overlap", 100, -1},
	}
	for _, tc := range cases {
		_, err := NewSplitter(config.IndexConfig{WindowSize: tc.window, WindowOverlap: tc.overlap})
		if err == nil {
			t.Errorf("%s: expected configuration error", tc.name)
		}
	}
}

func TestSplitter_NoWindowExceedsSize(t *testing.T) {
	s, err := NewSplitter(config.IndexConfig{WindowSize: 50, WindowOverlap: 10})
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("breakfast food riddle hint solution ", 40)
	passages := s.Split(text, "puzzles.pdf")

	if len(passages) == 0 {
		t.Fatal("expected passages from non-empty text")
	}
	for _, p := range passages {
		if len(p.Text) > 50 {
			t.Errorf("passage %d has %d chars, window is 50", p.Ordinal, len(p.Text))
		}
	}
}

func TestSplitter_OrdinalsAreSequential(t *testing.T) {
	s, _ := NewSplitter(config.IndexConfig{WindowSize: 30, WindowOverlap: 5})
	passages := s.Split(strings.Repeat("word ", 60), "doc")

	for i, p := range passages {
		if p.Ordinal != i {
			t.Errorf("passage %d has ordinal %d", i, p.Ordinal)
		}
	}
}

func TestSplitter_OverlapKeepsBoundaryFactRetrievable(t *testing.T) {
	// A fact placed near a window boundary must land whole in some window.
	s, _ := NewSplitter(config.IndexConfig{WindowSize: 40, WindowOverlap: 20})
	text := strings.Repeat("x ", 15) + "pancakes are a breakfast food " + strings.Repeat("y ", 15)

	passages := s.Split(text, "doc")

	found := false
	for _, p := range passages {
		if strings.Contains(p.Text, "breakfast food") {
			found = true
		}
	}
	if !found {
		t.Error("fact straddling a boundary is not retrievable from any window")
	}
}

func TestSplitter_SpacelessTextCutsAtRuneBoundaries(t *testing.T) {
	// CJK prose carries no spaces; windows must still land on rune
	// boundaries so no passage holds invalid UTF-8.
	s, _ := NewSplitter(config.IndexConfig{WindowSize: 20, WindowOverlap: 5})
	text := strings.Repeat("朝ごはんの謎解きヒント", 12)

	passages := s.Split(text, "doc")

	if len(passages) == 0 {
		t.Fatal("expected passages from non-empty text")
	}
	for _, p := range passages {
		if !utf8.ValidString(p.Text) {
			t.Errorf("passage %d is not valid UTF-8: %q", p.Ordinal, p.Text)
		}
		if len(p.Text) > 20 {
			t.Errorf("passage %d has %d bytes, window is 20", p.Ordinal, len(p.Text))
		}
	}
}

func TestSplitter_EmptyText(t *testing.T) {
	s, _ := NewSplitter(config.IndexConfig{WindowSize: 100, WindowOverlap: 10})
	if got := s.Split("   \n\t ", "doc"); got != nil {
		t.Errorf("expected nil for blank text, got %d passages", len(got))
	}
}

func TestSplitter_ShortTextSinglePassage(t *testing.T) {
	s, _ := NewSplitter(config.IndexConfig{WindowSize: 1000, WindowOverlap: 200})
	passages := s.Split("It's a breakfast food.", "puzzles.pdf")

	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
	if passages[0].Text != "It's a breakfast food." {
		t.Errorf("unexpected passage text %q", passages[0].Text)
	}
	if passages[0].ID == "" {
		t.Error("passage id must be set")
	}
}
