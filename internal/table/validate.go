package table

import "fmt"

// Validate confirms that the accumulated definitions form a complete
// table: every consonant of each final alphabet has its final defined,
// and every cell of the syllable matrix exists unless the curated
// exception set declares it unassigned. Validation failures are fatal
// to the compile; each names what is missing.
func (b *Builder) Validate() error {
	for _, c := range EasternConsonants {
		if _, ok := b.byKey[easternFinalKey(c)]; !ok {
			return fmt.Errorf("missing eastern final for consonant %q", c)
		}
		if _, ok := b.byKey[westernFinalKey(c)]; !ok {
			return fmt.Errorf("missing western final for consonant %q", c)
		}
	}
	for _, c := range CommonFinalConsonants {
		if _, ok := b.byKey[commonFinalKey(c)]; !ok {
			return fmt.Errorf("missing common final for consonant %q", c)
		}
	}
	for _, c := range AlternateFinalConsonants {
		if _, ok := b.byKey[alternateFinalKey(c)]; !ok {
			return fmt.Errorf("missing alternate final for consonant %q", c)
		}
	}

	for _, combo := range AllCombinations() {
		if KnownMissing(combo) {
			continue
		}
		if _, ok := b.byKey[syllableKey(combo)]; !ok {
			return fmt.Errorf("missing syllable for combination %s", combo)
		}
	}
	return nil
}
