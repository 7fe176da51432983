package table

import (
	"fmt"
	"sort"
)

// Table is the compiled composition table. It is built exactly once per
// compile and never mutated afterwards, so a single Table may be shared
// read-only by any number of concurrent composers.
type Table struct {
	sequences       map[string]rune
	bareVowels      map[Vowel]rune
	baseSyllables   map[Consonant]rune
	easternFinals   map[Consonant]rune
	westernFinals   map[Consonant]rune
	commonFinals    map[Consonant]rune
	alternateFinals map[Consonant]rune
	punctuation     map[string]rune
	wFinal          rune
}

// Parts is the exportable content of a Table. All maps are copies; a
// Parts value can be serialized and later rebuilt into an equivalent
// Table with FromParts.
type Parts struct {
	Sequences       map[string]rune
	BareVowels      map[Vowel]rune
	BaseSyllables   map[Consonant]rune
	EasternFinals   map[Consonant]rune
	WesternFinals   map[Consonant]rune
	CommonFinals    map[Consonant]rune
	AlternateFinals map[Consonant]rune
	Punctuation     map[string]rune
}

// SequenceKey builds the canonical key for a constituent set: the
// constituents sorted ascending by codepoint value, independent of
// typing order.
func SequenceKey(constituents []rune) string {
	sorted := make([]rune, len(constituents))
	copy(sorted, constituents)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return string(sorted)
}

// LookupSequence resolves a constituent set to its output codepoint.
// Constituents may arrive in any order.
func (t *Table) LookupSequence(constituents []rune) (rune, bool) {
	cp, ok := t.sequences[SequenceKey(constituents)]
	return cp, ok
}

// BareVowel returns the codepoint of the plain, undotted, short form of
// a vowel. Completeness validation guarantees all four exist.
func (t *Table) BareVowel(v Vowel) rune {
	return t.bareVowels[v]
}

// BaseSyllable returns the bare-a syllable codepoint for a consonant.
func (t *Table) BaseSyllable(c Consonant) (rune, bool) {
	cp, ok := t.baseSyllables[c]
	return cp, ok
}

// WFinal is the single standalone symbol both w-dot keys flush to.
func (t *Table) WFinal() rune {
	return t.wFinal
}

// EasternFinal returns the eastern final codepoint for a consonant.
func (t *Table) EasternFinal(c Consonant) (rune, bool) {
	cp, ok := t.easternFinals[c]
	return cp, ok
}

// WesternFinal returns the western final codepoint for a consonant.
func (t *Table) WesternFinal(c Consonant) (rune, bool) {
	cp, ok := t.westernFinals[c]
	return cp, ok
}

// CommonFinal returns the common final codepoint for a consonant.
func (t *Table) CommonFinal(c Consonant) (rune, bool) {
	cp, ok := t.commonFinals[c]
	return cp, ok
}

// AlternateFinal returns the alternate (medial) final codepoint.
func (t *Table) AlternateFinal(c Consonant) (rune, bool) {
	cp, ok := t.alternateFinals[c]
	return cp, ok
}

// Punctuation returns the codepoint for a named punctuation entry.
func (t *Table) Punctuation(name string) (rune, bool) {
	cp, ok := t.punctuation[name]
	return cp, ok
}

// SequenceCount reports how many canonical keys the table holds,
// including the four single-entity bare-vowel keys.
func (t *Table) SequenceCount() int {
	return len(t.sequences)
}

// Parts returns a deep copy of the table content for export.
func (t *Table) Parts() Parts {
	return Parts{
		Sequences:       copyMap(t.sequences),
		BareVowels:      copyMap(t.bareVowels),
		BaseSyllables:   copyMap(t.baseSyllables),
		EasternFinals:   copyMap(t.easternFinals),
		WesternFinals:   copyMap(t.westernFinals),
		CommonFinals:    copyMap(t.commonFinals),
		AlternateFinals: copyMap(t.alternateFinals),
		Punctuation:     copyMap(t.punctuation),
	}
}

// FromParts rebuilds a Table from exported parts, e.g. a cached
// artifact. It checks the handful of entries the runtime depends on
// unconditionally.
func FromParts(p Parts) (*Table, error) {
	for _, v := range Vowels {
		if _, ok := p.BareVowels[v]; !ok {
			return nil, fmt.Errorf("table parts missing bare vowel %q", v)
		}
	}
	wFinal, ok := p.CommonFinals["w"]
	if !ok {
		return nil, fmt.Errorf("table parts missing the common final w")
	}
	return &Table{
		sequences:       copyMap(p.Sequences),
		bareVowels:      copyMap(p.BareVowels),
		baseSyllables:   copyMap(p.BaseSyllables),
		easternFinals:   copyMap(p.EasternFinals),
		westernFinals:   copyMap(p.WesternFinals),
		commonFinals:    copyMap(p.CommonFinals),
		alternateFinals: copyMap(p.AlternateFinals),
		punctuation:     copyMap(p.Punctuation),
		wFinal:          wFinal,
	}, nil
}

func copyMap[K comparable](m map[K]rune) map[K]rune {
	out := make(map[K]rune, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
