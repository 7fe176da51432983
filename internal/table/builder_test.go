package table

import (
	"strings"
	"testing"
)

func TestBuilderRejectsDuplicateCodepoint(t *testing.T) {
	b := NewBuilder()
	if err := b.Add(CharacterDefinition{Codepoint: 0x1401, Kind: KindSyllable, Vowel: VowelA}); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	err := b.Add(CharacterDefinition{Codepoint: 0x1401, Kind: KindSyllable, Vowel: VowelE})
	if err == nil || !strings.Contains(err.Error(), "duplicate codepoint") {
		t.Fatalf("Add duplicate codepoint = %v, want duplicate codepoint error", err)
	}
	// The failed insert must not have touched either index.
	if _, ok := b.Codepoint("syll::none:none:e"); ok {
		t.Error("duplicate codepoint leaked into the definition index")
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d after rejected Add, want 1", b.Len())
	}
}

func TestBuilderRejectsDuplicateDefinition(t *testing.T) {
	b := NewBuilder()
	if err := b.Add(CharacterDefinition{Codepoint: 0x1401, Kind: KindSyllable, Vowel: VowelA}); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	err := b.Add(CharacterDefinition{Codepoint: 0x1402, Kind: KindSyllable, Vowel: VowelA})
	if err == nil || !strings.Contains(err.Error(), "duplicate definition") {
		t.Fatalf("Add duplicate definition = %v, want duplicate definition error", err)
	}
	if _, ok := b.Definition(0x1402); ok {
		t.Error("duplicate definition leaked into the codepoint index")
	}
}

func TestBuilderRejectsReservedMarks(t *testing.T) {
	b := NewBuilder()
	for _, cp := range []rune{WDotLeftMark, WDotRightMark, VowelLengthMark} {
		err := b.Add(CharacterDefinition{Codepoint: cp, Kind: KindGhost, Name: "x"})
		if err == nil {
			t.Errorf("Add(U+%04X) succeeded, want reserved-mark rejection", cp)
		}
	}
}
