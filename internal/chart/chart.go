// Package chart renders a compiled definition set as an HTML reference
// chart: the full syllable matrix, the final rows, and punctuation,
// with Unicode character names as hover titles.
package chart

import (
	"fmt"
	"html/template"
	"io"

	"golang.org/x/text/unicode/runenames"

	"ojitype/internal/table"
)

// Cell is one syllable-matrix cell.
type Cell struct {
	Glyph   string
	Title   string
	Missing bool
}

// Row is one matrix row: an initial consonant (or none) across every
// legal vowel column.
type Row struct {
	Label string
	Cells []Cell
}

// Section groups matrix rows under a dot/length heading.
type Section struct {
	Heading string
	Columns []string
	Rows    []Row
}

// FinalRow is one named standalone symbol.
type FinalRow struct {
	Label string
	Glyph string
	Title string
}

// Page is the full template input.
type Page struct {
	Sections    []Section
	Eastern     []FinalRow
	Western     []FinalRow
	Common      []FinalRow
	Alternate   []FinalRow
	Punctuation []FinalRow
}

var sections = []struct {
	heading string
	side    table.WDotSide
	length  table.VowelLength
}{
	{"Plain", table.WDotNone, table.LengthNone},
	{"Long", table.WDotNone, table.LengthLong},
	{"W-dot left", table.WDotLeft, table.LengthNone},
	{"W-dot left, long", table.WDotLeft, table.LengthLong},
	{"W-dot right", table.WDotRight, table.LengthNone},
	{"W-dot right, long", table.WDotRight, table.LengthLong},
}

// Render writes the chart for a built definition set.
func Render(w io.Writer, b *table.Builder) error {
	page := buildPage(b)
	if err := chartTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func buildPage(b *table.Builder) Page {
	page := Page{}

	initials := make([]table.Consonant, 0, len(table.EasternConsonants)+1)
	initials = append(initials, "")
	initials = append(initials, table.EasternConsonants...)

	for _, s := range sections {
		section := Section{Heading: s.heading}
		for _, v := range table.Vowels {
			if v == table.VowelE && s.length == table.LengthLong {
				continue
			}
			section.Columns = append(section.Columns, string(v))
		}

		for _, initial := range initials {
			label := string(initial)
			if label == "" {
				label = "(vowel)"
			}
			row := Row{Label: label}
			for _, v := range table.Vowels {
				if v == table.VowelE && s.length == table.LengthLong {
					continue
				}
				combo := table.Combination{
					Consonant: initial,
					WDot:      s.side,
					Length:    s.length,
					Vowel:     v,
				}
				cp, ok := b.Syllable(combo)
				if !ok {
					row.Cells = append(row.Cells, Cell{Missing: true})
					continue
				}
				row.Cells = append(row.Cells, Cell{
					Glyph: string(cp),
					Title: charTitle(cp),
				})
			}
			section.Rows = append(section.Rows, row)
		}
		page.Sections = append(page.Sections, section)
	}

	for _, def := range b.Definitions() {
		row := FinalRow{
			Glyph: string(def.Codepoint),
			Title: charTitle(def.Codepoint),
		}
		switch def.Kind {
		case table.KindEasternFinal:
			row.Label = string(def.Consonant)
			page.Eastern = append(page.Eastern, row)
		case table.KindWesternFinal:
			row.Label = string(def.Consonant)
			page.Western = append(page.Western, row)
		case table.KindCommonFinal:
			row.Label = string(def.Consonant)
			page.Common = append(page.Common, row)
		case table.KindAlternateFinal:
			row.Label = string(def.Consonant)
			page.Alternate = append(page.Alternate, row)
		case table.KindPunctuation:
			row.Label = def.Name
			page.Punctuation = append(page.Punctuation, row)
		}
	}

	return page
}

// charTitle builds the hover title: the official Unicode name plus the
// codepoint, e.g. "CANADIAN SYLLABICS PI (U+1447)".
func charTitle(cp rune) string {
	name := runenames.Name(cp)
	return fmt.Sprintf("%s (U+%04X)", name, cp)
}

var chartTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Syllabics Chart</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #999; padding: 0.4em 0.8em; text-align: center; }
th { background: #eee; }
td.glyph { font-size: 1.6em; }
td.missing { background: #f6f6f6; color: #bbb; }
caption { font-weight: bold; padding: 0.5em; text-align: left; }
</style>
</head>
<body>
<h1>Syllabics Chart</h1>
{{range .Sections}}
<table>
<caption>{{.Heading}}</caption>
<tr><th></th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}
<tr><th>{{.Label}}</th>{{range .Cells}}{{if .Missing}}<td class="missing">&mdash;</td>{{else}}<td class="glyph" title="{{.Title}}">{{.Glyph}}</td>{{end}}{{end}}</tr>
{{end}}
</table>
{{end}}
<h2>Finals</h2>
<table>
<caption>Eastern</caption>
{{range .Eastern}}<tr><th>{{.Label}}</th><td class="glyph" title="{{.Title}}">{{.Glyph}}</td></tr>
{{end}}
</table>
<table>
<caption>Western</caption>
{{range .Western}}<tr><th>{{.Label}}</th><td class="glyph" title="{{.Title}}">{{.Glyph}}</td></tr>
{{end}}
</table>
<table>
<caption>Common</caption>
{{range .Common}}<tr><th>{{.Label}}</th><td class="glyph" title="{{.Title}}">{{.Glyph}}</td></tr>
{{end}}
</table>
<table>
<caption>Alternate</caption>
{{range .Alternate}}<tr><th>{{.Label}}</th><td class="glyph" title="{{.Title}}">{{.Glyph}}</td></tr>
{{end}}
</table>
<h2>Punctuation</h2>
<table>
{{range .Punctuation}}<tr><th>{{.Label}}</th><td class="glyph" title="{{.Title}}">{{.Glyph}}</td></tr>
{{end}}
</table>
</body>
</html>
`))
