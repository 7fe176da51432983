// Package table compiles an authored syllabics character-definition file
// into an immutable composition table.
//
// The compiler is a single-pass batch transform: parse every line into a
// typed CharacterDefinition, accumulate the definitions into a Builder,
// validate completeness, and derive the canonical key-sequence table the
// runtime composes against. A run either produces a fully valid Table or
// fails with an error naming the offending line, codepoint, or
// combination; no partial table is ever produced.
package table

import "fmt"

// Kind classifies a character definition.
type Kind int

const (
	KindPunctuation Kind = iota
	KindGhost
	KindEasternFinal
	KindWesternFinal
	KindCommonFinal
	KindAlternateFinal
	KindSyllable
)

// String returns the definition-key prefix for the kind.
func (k Kind) String() string {
	switch k {
	case KindPunctuation:
		return "punct"
	case KindGhost:
		return "ghost"
	case KindEasternFinal:
		return "efinal"
	case KindWesternFinal:
		return "wfinal"
	case KindCommonFinal:
		return "cfinal"
	case KindAlternateFinal:
		return "afinal"
	case KindSyllable:
		return "syll"
	default:
		return "unknown"
	}
}

// Consonant is a consonant tag from one of the fixed alphabets.
// The empty consonant marks a syllable with no initial.
type Consonant string

// WDotSide is the placement of the w-dot diacritic on a syllable.
type WDotSide int

const (
	WDotNone WDotSide = iota
	WDotLeft
	WDotRight
)

func (s WDotSide) String() string {
	switch s {
	case WDotLeft:
		return "left"
	case WDotRight:
		return "right"
	default:
		return "none"
	}
}

// VowelLength distinguishes long vowels from plain ones.
type VowelLength int

const (
	LengthNone VowelLength = iota
	LengthLong
)

func (l VowelLength) String() string {
	if l == LengthLong {
		return "long"
	}
	return "none"
}

// Vowel is one of the four syllabics vowels.
type Vowel string

const (
	VowelA Vowel = "a"
	VowelE Vowel = "e"
	VowelI Vowel = "i"
	VowelO Vowel = "o"
)

// CharacterDefinition is one authored record of the definition file.
// Codepoint is unique across the whole table; the remaining fields are
// kind-specific attributes.
type CharacterDefinition struct {
	Codepoint rune
	Kind      Kind

	// Name is set for punctuation and ghost entries.
	Name string

	// Consonant is set for finals, and optionally for syllables.
	Consonant Consonant

	// WDot, Length and Vowel describe a syllable. Vowel is required
	// for syllables; a syllable with Vowel e never carries LengthLong.
	WDot   WDotSide
	Length VowelLength
	Vowel  Vowel
}

// DefinitionKey is the (kind, attribute-tuple) identity of the
// definition. Two definitions with the same key describe the same
// character and are rejected as duplicates by the Builder.
func (d CharacterDefinition) DefinitionKey() string {
	switch d.Kind {
	case KindPunctuation, KindGhost:
		return d.Kind.String() + ":" + d.Name
	case KindEasternFinal, KindWesternFinal, KindCommonFinal, KindAlternateFinal:
		return d.Kind.String() + ":" + string(d.Consonant)
	case KindSyllable:
		return syllableKey(Combination{
			Consonant: d.Consonant,
			WDot:      d.WDot,
			Length:    d.Length,
			Vowel:     d.Vowel,
		})
	default:
		return fmt.Sprintf("unknown:%04X", d.Codepoint)
	}
}

// Combination identifies one cell of the syllable matrix.
type Combination struct {
	Consonant Consonant
	WDot      WDotSide
	Length    VowelLength
	Vowel     Vowel
}

func (c Combination) String() string {
	initial := string(c.Consonant)
	if initial == "" {
		initial = "-"
	}
	return fmt.Sprintf("%s/%s/%s/%s", initial, c.WDot, c.Length, c.Vowel)
}

func syllableKey(c Combination) string {
	return fmt.Sprintf("syll:%s:%s:%s:%s", c.Consonant, c.WDot, c.Length, c.Vowel)
}

func easternFinalKey(c Consonant) string   { return "efinal:" + string(c) }
func westernFinalKey(c Consonant) string   { return "wfinal:" + string(c) }
func commonFinalKey(c Consonant) string    { return "cfinal:" + string(c) }
func alternateFinalKey(c Consonant) string { return "afinal:" + string(c) }
