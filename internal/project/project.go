// Package project defines the chunking workspace model shared by the store,
// the persistence layer, and the remote wire format.
package project

import (
	"crypto/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// SentinelTitle is the default title of a freshly created project. Auto-rename
// only fires while the title still equals this sentinel.
const SentinelTitle = "Untitled Project"

// Split length bounds. Out-of-range values are clamped, never rejected.
const (
	MinSplitLength = 10
	MaxSplitLength = 50000
)

// Auto-rename derivation limits.
const (
	titleMaxChars = 25
	titleMaxWords = 5
	titleMinText  = 5
)

// Settings holds the per-project chunking parameters. Settings are copied by
// value when a project is created or loaded, never aliased.
type Settings struct {
	SplitLength int    `json:"split_length"`
	Prefix      string `json:"prefix"`
	Suffix      string `json:"suffix"`
}

// DefaultSettings returns the settings used when no prior project exists.
func DefaultSettings() Settings {
	return Settings{SplitLength: 2000}
}

// Project is one chunking workspace: source text, settings, and display title,
// addressable by a stable id.
type Project struct {
	// ID is a ULID assigned at creation. Immutable, never reused, and the
	// join key between local and remote copies. Compared only for equality.
	ID string `json:"id"`

	// Title defaults to SentinelTitle and is mutable.
	Title string `json:"title"`

	// Timestamp is the last-modified instant in Unix milliseconds,
	// non-decreasing per project and bumped on every mutation.
	Timestamp int64 `json:"timestamp"`

	// Text is the full source text being chunked. May be empty.
	Text string `json:"text"`

	Settings Settings `json:"settings"`
}

// New builds a fresh project with empty text, the sentinel title, and a copy
// of the given settings.
func New(settings Settings) Project {
	return Project{
		ID:        NewID(),
		Title:     SentinelTitle,
		Timestamp: time.Now().UnixMilli(),
		Settings:  settings,
	}
}

// NewID generates a ULID project id.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}

// IsBlank reports whether the project is still an untouched clean slate:
// no text and the sentinel title.
func (p Project) IsBlank() bool {
	return p.Text == "" && p.Title == SentinelTitle
}

// ClampSplitLength forces n into [MinSplitLength, MaxSplitLength].
func ClampSplitLength(n int) int {
	if n < MinSplitLength {
		return MinSplitLength
	}
	if n > MaxSplitLength {
		return MaxSplitLength
	}
	return n
}

// DeriveTitle derives a display title from the leading words of text, or ""
// if the trimmed text is too short to name a project yet. The title is the
// first five whitespace-delimited words capped at 25 runes, with "..."
// appended when anything was cut off.
func DeriveTitle(text string) string {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < titleMinText {
		return ""
	}

	words := strings.Join(firstN(strings.Fields(trimmed), titleMaxWords), " ")
	title := truncateRunes(words, titleMaxChars)
	if utf8.RuneCountInString(words) > titleMaxChars || utf8.RuneCountInString(trimmed) > titleMaxChars {
		title += "..."
	}
	return title
}

// CountWords returns the whitespace-delimited word count of text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountChars returns the rune count of text.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
