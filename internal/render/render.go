// Package render turns a chunk sequence into exportable documents.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/shard/internal/chunk"
	"github.com/hpungsan/shard/internal/errors"
)

// Format selects an export encoding.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text", "plain":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("unknown export format %q (expected txt, md, or html)", s))
	}
}

// Ext returns the filename extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Document renders the chunk sequence as a single exportable document.
func Document(title string, pieces []chunk.Piece, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return textDocument(pieces), nil
	case FormatMarkdown:
		return markdownDocument(title, pieces), nil
	case FormatHTML:
		return htmlDocument(title, pieces)
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown export format %q", string(f)))
	}
}

func textDocument(pieces []chunk.Piece) []byte {
	var b strings.Builder
	for i, p := range pieces {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func markdownDocument(title string, pieces []chunk.Piece) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	for _, p := range pieces {
		fmt.Fprintf(&b, "\n## Chunk %d of %d\n\n", p.Index, p.Total)
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

type htmlChunkData struct {
	Index int
	Total int
	Chars int
	Body  template.HTML
}

type htmlDocData struct {
	Title  string
	Chunks []htmlChunkData
}

var htmlTmpl = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.chunk { border: 1px solid #ccc; border-radius: 6px; padding: 0.5rem 1rem; margin: 1rem 0; }
.chunk-meta { color: #666; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Chunks}}<section class="chunk">
<div class="chunk-meta">Chunk {{.Index}} of {{.Total}} &middot; {{.Chars}} chars</div>
{{.Body}}
</section>
{{end}}</body>
</html>
`))

func htmlDocument(title string, pieces []chunk.Piece) ([]byte, error) {
	data := htmlDocData{Title: title, Chunks: make([]htmlChunkData, 0, len(pieces))}
	for _, p := range pieces {
		data.Chunks = append(data.Chunks, htmlChunkData{
			Index: p.Index,
			Total: p.Total,
			Chars: p.Chars,
			Body:  renderMarkdown(p.Text),
		})
	}

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, data); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}

// renderMarkdown converts a chunk body to HTML using goldmark, falling back to
// escaped plain text when conversion fails.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
