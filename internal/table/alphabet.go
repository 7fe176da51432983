package table

// EasternConsonants is the fixed consonant alphabet shared by eastern
// and western finals and by syllable initials.
var EasternConsonants = []Consonant{
	"p", "t", "c", "k", "m", "n", "s", "sh", "y", "l", "r",
}

// CommonFinalConsonants are the finals shared by both dialect styles.
var CommonFinalConsonants = []Consonant{"w", "h"}

// AlternateFinalConsonants are the medial (alternate) finals.
var AlternateFinalConsonants = []Consonant{"y", "l", "r"}

// Vowels in matrix enumeration order.
var Vowels = []Vowel{VowelA, VowelE, VowelI, VowelO}

// Key-entity codepoints that never appear as records in the definition
// file. The two w-dot keys and the vowel-length key contribute these
// fixed values to canonical composition keys; they sit past the end of
// the UCAS Extended block so they can never collide with an authored
// codepoint. The Builder enforces the reservation.
const (
	WDotLeftMark    rune = 0x18FD
	WDotRightMark   rune = 0x18FE
	VowelLengthMark rune = 0x18FF
)

// WDotMark returns the key-entity codepoint for a w-dot side.
func WDotMark(s WDotSide) rune {
	if s == WDotRight {
		return WDotRightMark
	}
	return WDotLeftMark
}

// knownMissing is the curated set of syllable-matrix cells that have no
// assigned codepoint. It is authored data maintained alongside the
// definition file, not derivable from the grammar: the script simply
// never acquired characters for these combinations. The validator
// tolerates their absence and the canonical builder skips them.
var knownMissing = map[Combination]struct{}{
	{Consonant: "l", WDot: WDotLeft, Length: LengthLong, Vowel: VowelA}:   {},
	{Consonant: "l", WDot: WDotLeft, Length: LengthLong, Vowel: VowelI}:   {},
	{Consonant: "l", WDot: WDotLeft, Length: LengthLong, Vowel: VowelO}:   {},
	{Consonant: "l", WDot: WDotRight, Length: LengthLong, Vowel: VowelA}:  {},
	{Consonant: "l", WDot: WDotRight, Length: LengthLong, Vowel: VowelI}:  {},
	{Consonant: "l", WDot: WDotRight, Length: LengthLong, Vowel: VowelO}:  {},
	{Consonant: "r", WDot: WDotLeft, Length: LengthLong, Vowel: VowelA}:   {},
	{Consonant: "r", WDot: WDotLeft, Length: LengthLong, Vowel: VowelI}:   {},
	{Consonant: "r", WDot: WDotLeft, Length: LengthLong, Vowel: VowelO}:   {},
	{Consonant: "r", WDot: WDotRight, Length: LengthLong, Vowel: VowelA}:  {},
	{Consonant: "r", WDot: WDotRight, Length: LengthLong, Vowel: VowelI}:  {},
	{Consonant: "r", WDot: WDotRight, Length: LengthLong, Vowel: VowelO}:  {},
	{Consonant: "sh", WDot: WDotRight, Length: LengthLong, Vowel: VowelA}: {},
	{Consonant: "sh", WDot: WDotRight, Length: LengthLong, Vowel: VowelI}: {},
	{Consonant: "sh", WDot: WDotRight, Length: LengthLong, Vowel: VowelO}: {},
}

// KnownMissing reports whether the combination is in the curated
// exception set.
func KnownMissing(c Combination) bool {
	_, ok := knownMissing[c]
	return ok
}

// AllCombinations enumerates the full syllable matrix:
// {no initial + every eastern consonant} x {no dot, left, right} x
// {plain, long} x {a, e, i, o}, excluding the structurally illegal
// e+long cells. The knownMissing set is NOT applied here; callers that
// need it filter with KnownMissing.
func AllCombinations() []Combination {
	initials := make([]Consonant, 0, len(EasternConsonants)+1)
	initials = append(initials, "")
	initials = append(initials, EasternConsonants...)

	var combos []Combination
	for _, initial := range initials {
		for _, side := range []WDotSide{WDotNone, WDotLeft, WDotRight} {
			for _, length := range []VowelLength{LengthNone, LengthLong} {
				for _, vowel := range Vowels {
					if vowel == VowelE && length == LengthLong {
						continue
					}
					combos = append(combos, Combination{
						Consonant: initial,
						WDot:      side,
						Length:    length,
						Vowel:     vowel,
					})
				}
			}
		}
	}
	return combos
}
