package table

import (
	"fmt"
	"sort"
)

// Builder accumulates parsed definitions into the two indices the
// validator and the canonical sequence builder consume: codepoint to
// definition and definition key to codepoint. Both reject duplicates;
// an Add either lands in both indices or in neither.
type Builder struct {
	byCodepoint map[rune]CharacterDefinition
	byKey       map[string]rune
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		byCodepoint: make(map[rune]CharacterDefinition),
		byKey:       make(map[string]rune),
	}
}

// Add inserts one definition. It fails on a duplicate codepoint, a
// duplicate definition key, or a codepoint colliding with one of the
// reserved key-entity marks.
func (b *Builder) Add(def CharacterDefinition) error {
	switch def.Codepoint {
	case WDotLeftMark, WDotRightMark, VowelLengthMark:
		return fmt.Errorf("codepoint U+%04X is reserved for a key-entity mark", def.Codepoint)
	}
	if prior, ok := b.byCodepoint[def.Codepoint]; ok {
		return fmt.Errorf("duplicate codepoint U+%04X: %s already defined as %s",
			def.Codepoint, def.DefinitionKey(), prior.DefinitionKey())
	}
	key := def.DefinitionKey()
	if prior, ok := b.byKey[key]; ok {
		return fmt.Errorf("duplicate definition %s: U+%04X already defined at U+%04X",
			key, def.Codepoint, prior)
	}
	b.byCodepoint[def.Codepoint] = def
	b.byKey[key] = def.Codepoint
	return nil
}

// Definition looks up a definition by codepoint.
func (b *Builder) Definition(cp rune) (CharacterDefinition, bool) {
	def, ok := b.byCodepoint[cp]
	return def, ok
}

// Codepoint looks up a codepoint by definition key.
func (b *Builder) Codepoint(key string) (rune, bool) {
	cp, ok := b.byKey[key]
	return cp, ok
}

// Syllable looks up the codepoint for one matrix cell.
func (b *Builder) Syllable(c Combination) (rune, bool) {
	return b.Codepoint(syllableKey(c))
}

// Definitions returns every definition ordered by codepoint.
func (b *Builder) Definitions() []CharacterDefinition {
	defs := make([]CharacterDefinition, 0, len(b.byCodepoint))
	for _, def := range b.byCodepoint {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Codepoint < defs[j].Codepoint })
	return defs
}

// Len reports the number of definitions added so far.
func (b *Builder) Len() int {
	return len(b.byCodepoint)
}
