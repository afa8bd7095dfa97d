package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/shard/internal/chunk"
)

func samplePieces() []chunk.Piece {
	return chunk.Render("# Heading\n\nSome *emphasis* here.", 100, "", "")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"txt", FormatText, false},
		{"TEXT", FormatText, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{" html ", FormatHTML, false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDocument_Text(t *testing.T) {
	pieces := chunk.Render("aaaa bbb\nccc ddd eee", 10, "", "")
	out, err := Document("ignored", pieces, FormatText)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	want := "aaaa bbb\n\n\nccc ddd \n\neee\n"
	if string(out) != want {
		t.Errorf("text document = %q, want %q", out, want)
	}
}

func TestDocument_Markdown(t *testing.T) {
	pieces := chunk.Render("aaaa bbb\nccc ddd eee", 10, "", "")
	out, err := Document("My Notes", pieces, FormatMarkdown)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "# My Notes\n") {
		t.Errorf("missing title heading: %q", s)
	}
	if !strings.Contains(s, "## Chunk 2 of 3\n") {
		t.Errorf("missing chunk heading: %q", s)
	}
}

func TestDocument_HTML(t *testing.T) {
	out, err := Document("A <b>Title</b>", samplePieces(), FormatHTML)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "<title>A &lt;b&gt;Title&lt;/b&gt;</title>") {
		t.Errorf("title not escaped: %q", s)
	}
	if !strings.Contains(s, "<h1 id=") && !strings.Contains(s, "<h1>Heading</h1>") {
		t.Errorf("markdown heading not rendered: %q", s)
	}
	if !strings.Contains(s, "<em>emphasis</em>") {
		t.Errorf("markdown emphasis not rendered: %q", s)
	}
	if !strings.Contains(s, "Chunk 1 of 1") {
		t.Errorf("chunk meta missing: %q", s)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	if err := WriteFile(path, []byte("hello")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q", got)
	}

	// Overwrite is atomic and leaves no temp files behind.
	if err := WriteFile(path, []byte("replaced")); err != nil {
		t.Fatalf("WriteFile overwrite failed: %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "replaced" {
		t.Errorf("content after overwrite = %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files in export dir: %v", entries)
	}
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	got := DefaultPath("/base", "My Notes: Draft #2", FormatMarkdown, now)
	want := filepath.Join("/base", "exports", "my-notes-draft-2-2026-03-14T092653.md")
	if got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}

	got = DefaultPath("/base", "///", FormatText, now)
	if !strings.Contains(got, "untitled-") {
		t.Errorf("empty title fallback = %q", got)
	}
}
