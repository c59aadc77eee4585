package knowledge

// #region imports
import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pepper-tutor/go-brain/internal/config"
)

// #endregion

// #region splitter

// Splitter cuts document text into bounded windows with overlap, so a fact
// straddling a window boundary stays retrievable from at least one window.
type Splitter struct {
	window  int
	overlap int
}

// NewSplitter validates the windowing policy. Window must be positive and
// overlap strictly smaller than the window.
func NewSplitter(cfg config.IndexConfig) (*Splitter, error) {
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("splitter: window_size must be positive, got %d", cfg.WindowSize)
	}
	if cfg.WindowOverlap < 0 || cfg.WindowOverlap >= cfg.WindowSize {
		return nil, fmt.Errorf("splitter: window_overlap %d must be in [0, %d)", cfg.WindowOverlap, cfg.WindowSize)
	}
	return &Splitter{window: cfg.WindowSize, overlap: cfg.WindowOverlap}, nil
}

// #endregion

// #region split

// Split produces unembedded passages from the document text. Windows break
// at word boundaries where possible and never exceed the configured size.
func (s *Splitter) Split(text, source string) []Passage {
	content := strings.TrimSpace(text)
	if content == "" {
		return nil
	}

	var passages []Passage
	start := 0
	ordinal := 0

	for start < len(content) {
		end := start + s.window
		if end > len(content) {
			end = len(content)
		}

		// Prefer a word boundary so no window cuts a word in half. Spaceless
		// text (CJK, long tokens) falls back to the nearest rune boundary so
		// no window cuts a rune in half.
		if end < len(content) {
			if lastSpace := strings.LastIndex(content[start:end], " "); lastSpace > 0 {
				end = start + lastSpace
			} else {
				end = runeFloor(content, start, end)
			}
		}

		window := strings.TrimSpace(content[start:end])
		if window != "" {
			passages = append(passages, Passage{
				Ordinal: ordinal,
				ID:      passageID(source, window),
				Text:    window,
				Source:  fmt.Sprintf("%s:%d-%d", source, start, end),
			})
			ordinal++
		}

		if end == len(content) {
			break
		}
		next := runeFloor(content, start, end-s.overlap)
		if next <= start {
			_, size := utf8.DecodeRuneInString(content[start:])
			next = start + size
		}
		start = next
	}

	return passages
}

// runeFloor backs pos off to the nearest rune start at or before it, never
// crossing start. If that lands on start, the window advances by one whole
// rune instead so progress is always made.
func runeFloor(content string, start, pos int) int {
	for pos > start && !utf8.RuneStart(content[pos]) {
		pos--
	}
	if pos == start {
		_, size := utf8.DecodeRuneInString(content[start:])
		return start + size
	}
	return pos
}

// passageID derives a stable content-hash id for a window.
func passageID(source, text string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + text))
	return hex.EncodeToString(sum[:8])
}

// #endregion
