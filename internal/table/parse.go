package table

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The seven recognized line shapes, tried in declaration order; the
// first match wins. Each line starts with a 4-hex-digit codepoint.
var (
	punctuationRe = regexp.MustCompile(`^([0-9a-fA-F]{4}) \* (\S+)$`)
	ghostRe       = regexp.MustCompile(`^([0-9a-fA-F]{4}) ~ (\S+)$`)
	easternRe     = regexp.MustCompile(`^([0-9a-fA-F]{4}) (sh|[ptckmnsylr])$`)
	westernRe     = regexp.MustCompile(`^([0-9a-fA-F]{4}) '(sh|[ptckmnsylr])$`)
	commonRe      = regexp.MustCompile(`^([0-9a-fA-F]{4}) ([wh])$`)
	alternateRe   = regexp.MustCompile(`^([0-9a-fA-F]{4}) "([ylr])$`)
	syllableRe    = regexp.MustCompile(`^([0-9a-fA-F]{4}) (sh|[ptckmnsylr])?([wu])?(\+)?([aeio])$`)
)

// ParseLine classifies one raw definition line. It returns ok=false for
// blank lines, which are skipped without error. Any non-blank line that
// matches none of the recognized shapes, or that describes the illegal
// e+long vowel combination, is a parse error quoting the line.
func ParseLine(line string) (CharacterDefinition, bool, error) {
	trimmed := strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(trimmed) == "" {
		return CharacterDefinition{}, false, nil
	}

	if m := punctuationRe.FindStringSubmatch(trimmed); m != nil {
		return CharacterDefinition{
			Codepoint: parseCodepoint(m[1]),
			Kind:      KindPunctuation,
			Name:      m[2],
		}, true, nil
	}
	if m := ghostRe.FindStringSubmatch(trimmed); m != nil {
		return CharacterDefinition{
			Codepoint: parseCodepoint(m[1]),
			Kind:      KindGhost,
			Name:      m[2],
		}, true, nil
	}
	if m := easternRe.FindStringSubmatch(trimmed); m != nil {
		return CharacterDefinition{
			Codepoint: parseCodepoint(m[1]),
			Kind:      KindEasternFinal,
			Consonant: Consonant(m[2]),
		}, true, nil
	}
	if m := westernRe.FindStringSubmatch(trimmed); m != nil {
		return CharacterDefinition{
			Codepoint: parseCodepoint(m[1]),
			Kind:      KindWesternFinal,
			Consonant: Consonant(m[2]),
		}, true, nil
	}
	if m := commonRe.FindStringSubmatch(trimmed); m != nil {
		return CharacterDefinition{
			Codepoint: parseCodepoint(m[1]),
			Kind:      KindCommonFinal,
			Consonant: Consonant(m[2]),
		}, true, nil
	}
	if m := alternateRe.FindStringSubmatch(trimmed); m != nil {
		return CharacterDefinition{
			Codepoint: parseCodepoint(m[1]),
			Kind:      KindAlternateFinal,
			Consonant: Consonant(m[2]),
		}, true, nil
	}
	if m := syllableRe.FindStringSubmatch(trimmed); m != nil {
		def := CharacterDefinition{
			Codepoint: parseCodepoint(m[1]),
			Kind:      KindSyllable,
			Consonant: Consonant(m[2]),
			Vowel:     Vowel(m[5]),
		}
		switch m[3] {
		case "w":
			def.WDot = WDotLeft
		case "u":
			def.WDot = WDotRight
		}
		if m[4] == "+" {
			def.Length = LengthLong
		}
		if def.Vowel == VowelE && def.Length == LengthLong {
			return CharacterDefinition{}, false,
				fmt.Errorf("illegal long e syllable: %q", trimmed)
		}
		return def, true, nil
	}

	return CharacterDefinition{}, false, fmt.Errorf("unrecognized definition: %q", trimmed)
}

// parseCodepoint converts a 4-hex-digit field already vetted by a shape
// regexp.
func parseCodepoint(s string) rune {
	v, _ := strconv.ParseUint(s, 16, 32)
	return rune(v)
}
