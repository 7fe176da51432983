package chart_test

import (
	"bytes"
	"strings"
	"testing"

	"ojitype/internal/chart"
	"ojitype/internal/table"
	"ojitype/internal/tabletest"
)

func TestRender(t *testing.T) {
	b, err := tabletest.Build()
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, b); err != nil {
		t.Fatalf("render chart: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"Syllabics Chart",
		"W-dot right, long",
		"(vowel)",
		"period",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("chart missing %q", want)
		}
	}

	// Every defined syllable glyph appears.
	cp, ok := b.Syllable(table.Combination{Consonant: "p", Vowel: table.VowelA})
	if !ok {
		t.Fatal("fixture missing pa")
	}
	if !strings.Contains(html, string(cp)) {
		t.Errorf("chart missing glyph %U", cp)
	}

	// The curated gaps render as empty cells, not glyphs.
	if !strings.Contains(html, `class="missing"`) {
		t.Error("chart has no missing cells, want the curated gaps marked")
	}
}
