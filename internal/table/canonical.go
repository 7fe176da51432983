package table

import "fmt"

// buildTable derives the canonical composition table from a validated
// Builder. For every syllable with two or more constituent entities it
// computes the codepoint-sorted key a user's keystrokes resolve to:
// the bare-a base syllable of the initial (if any), the w-dot mark for
// the chosen side (if any), the vowel-length mark (if long), and the
// bare form of the target vowel. Combinations in the curated exception
// set are skipped. The four bare vowels get single-entity keys of their
// own so a vowel on an empty buffer resolves through the same map.
func buildTable(b *Builder) (*Table, error) {
	t := &Table{
		sequences:       make(map[string]rune),
		bareVowels:      make(map[Vowel]rune, len(Vowels)),
		baseSyllables:   make(map[Consonant]rune, len(EasternConsonants)),
		easternFinals:   make(map[Consonant]rune, len(EasternConsonants)),
		westernFinals:   make(map[Consonant]rune, len(EasternConsonants)),
		commonFinals:    make(map[Consonant]rune, len(CommonFinalConsonants)),
		alternateFinals: make(map[Consonant]rune, len(AlternateFinalConsonants)),
		punctuation:     make(map[string]rune),
	}

	for _, def := range b.Definitions() {
		switch def.Kind {
		case KindEasternFinal:
			t.easternFinals[def.Consonant] = def.Codepoint
		case KindWesternFinal:
			t.westernFinals[def.Consonant] = def.Codepoint
		case KindCommonFinal:
			t.commonFinals[def.Consonant] = def.Codepoint
		case KindAlternateFinal:
			t.alternateFinals[def.Consonant] = def.Codepoint
		case KindPunctuation:
			t.punctuation[def.Name] = def.Codepoint
		}
	}
	t.wFinal = t.commonFinals["w"]

	for _, v := range Vowels {
		cp, ok := b.Syllable(Combination{Vowel: v})
		if !ok {
			return nil, fmt.Errorf("missing bare vowel %q", v)
		}
		t.bareVowels[v] = cp
		t.sequences[string(cp)] = cp
	}
	for _, c := range EasternConsonants {
		cp, ok := b.Syllable(Combination{Consonant: c, Vowel: VowelA})
		if !ok {
			return nil, fmt.Errorf("missing bare-a syllable for consonant %q", c)
		}
		t.baseSyllables[c] = cp
	}

	for _, combo := range AllCombinations() {
		if KnownMissing(combo) {
			continue
		}
		out, ok := b.Syllable(combo)
		if !ok {
			return nil, fmt.Errorf("missing syllable for combination %s", combo)
		}

		constituents := make([]rune, 0, 4)
		if combo.Consonant != "" {
			constituents = append(constituents, t.baseSyllables[combo.Consonant])
		}
		if combo.WDot != WDotNone {
			constituents = append(constituents, WDotMark(combo.WDot))
		}
		if combo.Length == LengthLong {
			constituents = append(constituents, VowelLengthMark)
		}
		constituents = append(constituents, t.bareVowels[combo.Vowel])
		if len(constituents) < 2 {
			continue // the bare vowel itself, already keyed above
		}

		key := SequenceKey(constituents)
		if prior, ok := t.sequences[key]; ok && prior != out {
			return nil, fmt.Errorf("composition key collision for %s: U+%04X and U+%04X",
				combo, prior, out)
		}
		t.sequences[key] = out
	}

	return t, nil
}
