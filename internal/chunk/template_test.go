package chunk

import "testing"

func TestApplyTemplate(t *testing.T) {
	tests := []struct {
		name           string
		chunk          string
		index, total   int
		prefix, suffix string
		want           string
	}{
		{
			name:  "no tokens returns chunk unchanged",
			chunk: "hello", index: 1, total: 1,
			want: "hello",
		},
		{
			name:  "index and total in prefix",
			chunk: "hello", index: 2, total: 5,
			prefix: "[{i}/{n}] ",
			want:   "[2/5] hello",
		},
		{
			name:  "tokens in suffix",
			chunk: "body", index: 3, total: 7,
			suffix: "\n-- part {i} of {n}",
			want:   "body\n-- part 3 of 7",
		},
		{
			name:  "repeated tokens all expand",
			chunk: "x", index: 1, total: 2,
			prefix: "{i}{i}", suffix: "{n}{n}",
			want: "11x22",
		},
		{
			name:  "plain prefix and suffix",
			chunk: "mid", index: 1, total: 1,
			prefix: ">> ", suffix: " <<",
			want: ">> mid <<",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyTemplate(tt.chunk, tt.index, tt.total, tt.prefix, tt.suffix)
			if got != tt.want {
				t.Errorf("ApplyTemplate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyTemplate_NoRescan(t *testing.T) {
	// A replacement value that happens to look like a token must not be
	// expanded again. Index 1 with the literal "{n}" in the chunk stays put.
	got := ApplyTemplate("{n}", 1, 9, "{i}", "")
	if got != "1{n}" {
		t.Errorf("ApplyTemplate = %q, want %q", got, "1{n}")
	}
}

func TestRender(t *testing.T) {
	pieces := Render("The quick brown fox jumps", 10, "[{i}/{n}] ", "")
	if len(pieces) != 3 {
		t.Fatalf("len(pieces) = %d, want 3", len(pieces))
	}

	wantTexts := []string{"[1/3] The quick ", "[2/3] brown fox ", "[3/3] jumps"}
	for i, p := range pieces {
		if p.Text != wantTexts[i] {
			t.Errorf("pieces[%d].Text = %q, want %q", i, p.Text, wantTexts[i])
		}
		if p.Index != i+1 || p.Total != 3 {
			t.Errorf("pieces[%d] index/total = %d/%d, want %d/3", i, p.Index, p.Total, i+1)
		}
		if p.Chars != len([]rune(p.Text)) {
			t.Errorf("pieces[%d].Chars = %d, want %d", i, p.Chars, len([]rune(p.Text)))
		}
	}
}

func TestRender_EmptyText(t *testing.T) {
	if pieces := Render("", 2000, "p", "s"); pieces != nil {
		t.Errorf("Render on empty text = %v, want nil", pieces)
	}
}
