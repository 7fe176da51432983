// Package tabletest generates a complete synthetic definition table for
// tests and development fixtures. Codepoints are assigned sequentially
// from U+1400 in matrix enumeration order, so the text is deterministic
// and passes completeness validation while staying independent of any
// particular font's real assignments.
package tabletest

import (
	"fmt"
	"strings"

	"ojitype/internal/table"
)

// PunctuationNames are the punctuation entries the synthetic table
// defines, in definition order.
var PunctuationNames = []string{"period", "comma", "question", "hyphen"}

// DefinitionText returns the full synthetic definition table: every
// non-excepted syllable-matrix cell, all finals of every alphabet, the
// punctuation set, and one ghost entry.
func DefinitionText() string {
	var sb strings.Builder
	cp := rune(0x1400)
	next := func() rune {
		v := cp
		cp++
		return v
	}

	for _, combo := range table.AllCombinations() {
		if table.KnownMissing(combo) {
			continue
		}
		var def strings.Builder
		def.WriteString(string(combo.Consonant))
		switch combo.WDot {
		case table.WDotLeft:
			def.WriteString("w")
		case table.WDotRight:
			def.WriteString("u")
		}
		if combo.Length == table.LengthLong {
			def.WriteString("+")
		}
		def.WriteString(string(combo.Vowel))
		fmt.Fprintf(&sb, "%04x %s\n", next(), def.String())
	}

	for _, c := range table.EasternConsonants {
		fmt.Fprintf(&sb, "%04x %s\n", next(), c)
	}
	for _, c := range table.EasternConsonants {
		fmt.Fprintf(&sb, "%04x '%s\n", next(), c)
	}
	for _, c := range table.CommonFinalConsonants {
		fmt.Fprintf(&sb, "%04x %s\n", next(), c)
	}
	for _, c := range table.AlternateFinalConsonants {
		fmt.Fprintf(&sb, "%04x \"%s\n", next(), c)
	}
	for _, name := range PunctuationNames {
		fmt.Fprintf(&sb, "%04x * %s\n", next(), name)
	}
	fmt.Fprintf(&sb, "%04x ~ joiner\n", next())

	return sb.String()
}

// Compile compiles the synthetic table.
func Compile() (*table.Table, error) {
	return table.Compile(strings.NewReader(DefinitionText()))
}

// Build parses and validates the synthetic table without deriving the
// canonical sequence map.
func Build() (*table.Builder, error) {
	return table.Build(strings.NewReader(DefinitionText()))
}
