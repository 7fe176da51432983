package compose_test

import (
	"testing"

	"ojitype/internal/compose"
	"ojitype/internal/table"
	"ojitype/internal/tabletest"
)

func compiled(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := tabletest.Compile()
	if err != nil {
		t.Fatalf("compile fixture: %v", err)
	}
	return tbl
}

func easternKey(t *testing.T, tbl *table.Table, c table.Consonant) compose.KeyEvent {
	t.Helper()
	cp, ok := tbl.EasternFinal(c)
	if !ok {
		t.Fatalf("no eastern final for %q", c)
	}
	return compose.KeyEvent{Category: compose.CategoryEasternFinal, Codepoint: cp, Consonant: c}
}

func vowelKey(v table.Vowel) compose.KeyEvent {
	return compose.KeyEvent{Category: compose.CategoryVowel, Vowel: v}
}

func wDotKey(side table.WDotSide) compose.KeyEvent {
	return compose.KeyEvent{Category: compose.CategoryWDot, Side: side}
}

var (
	lengthKey = compose.KeyEvent{Category: compose.CategoryVowelLength}
	flushKey  = compose.KeyEvent{Category: compose.CategoryFlush}
	systemKey = compose.KeyEvent{Category: compose.CategorySystem}
)

func TestBareVowelOnEmptyBuffer(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)
	out := c.ProcessKey(vowelKey(table.VowelA))
	want := []rune{tbl.BareVowel(table.VowelA)}
	assertEmit(t, out, want)
	if c.Pending() != 0 {
		t.Errorf("buffer not empty after vowel: %d pending", c.Pending())
	}
}

func TestConsonantVowelComposes(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	if out := c.ProcessKey(easternKey(t, tbl, "p")); len(out) != 0 {
		t.Fatalf("eastern final emitted %U, want nothing", out)
	}
	out := c.ProcessKey(vowelKey(table.VowelA))

	base, _ := tbl.BaseSyllable("p")
	pa, ok := tbl.LookupSequence([]rune{base, tbl.BareVowel(table.VowelA)})
	if !ok {
		t.Fatal("pa not in table")
	}
	assertEmit(t, out, []rune{pa})
	if c.Pending() != 0 {
		t.Errorf("buffer not empty after composition: %d pending", c.Pending())
	}
}

func TestDottedLongVowelComposes(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	c.ProcessKey(wDotKey(table.WDotLeft))
	c.ProcessKey(lengthKey)
	out := c.ProcessKey(vowelKey(table.VowelI))

	want, ok := tbl.LookupSequence([]rune{
		table.WDotLeftMark, table.VowelLengthMark, tbl.BareVowel(table.VowelI),
	})
	if !ok {
		t.Fatal("dotted long i not in table")
	}
	assertEmit(t, out, []rune{want})
	if c.Pending() != 0 {
		t.Errorf("buffer not empty: %d pending", c.Pending())
	}
}

func TestRepeatedLengthKeyInert(t *testing.T) {
	tbl := compiled(t)
	a := compose.New(tbl)
	b := compose.New(tbl)

	a.ProcessKey(lengthKey)
	b.ProcessKey(lengthKey)
	if out := b.ProcessKey(lengthKey); len(out) != 0 {
		t.Fatalf("second length key emitted %U", out)
	}
	if a.Pending() != b.Pending() {
		t.Errorf("buffer state differs: %d vs %d", a.Pending(), b.Pending())
	}

	// Both resolve to the same long vowel.
	outA := a.ProcessKey(vowelKey(table.VowelO))
	outB := b.ProcessKey(vowelKey(table.VowelO))
	assertEmit(t, outB, outA)
}

func TestFlushEmptyBufferIdempotent(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)
	for i := 0; i < 2; i++ {
		if out := c.ProcessKey(flushKey); len(out) != 0 {
			t.Fatalf("flush %d emitted %U on empty buffer", i, out)
		}
		if c.Pending() != 0 {
			t.Fatalf("flush %d left %d pending", i, c.Pending())
		}
	}
}

func TestFlushEmitsStandaloneSymbols(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	pKey := easternKey(t, tbl, "p")
	c.ProcessKey(pKey)
	c.ProcessKey(wDotKey(table.WDotRight))
	c.ProcessKey(lengthKey)
	out := c.ProcessKey(flushKey)

	// p stands alone, the w-dot becomes the shared W final, and the
	// trailing length dot is discarded silently.
	assertEmit(t, out, []rune{pKey.Codepoint, tbl.WFinal()})
	if c.Pending() != 0 {
		t.Errorf("buffer not empty after flush: %d pending", c.Pending())
	}
}

func TestBothWDotsFlushToSameFinal(t *testing.T) {
	tbl := compiled(t)
	for _, side := range []table.WDotSide{table.WDotLeft, table.WDotRight} {
		c := compose.New(tbl)
		c.ProcessKey(wDotKey(side))
		out := c.ProcessKey(flushKey)
		assertEmit(t, out, []rune{tbl.WFinal()})
	}
}

func TestSecondWDotFlushesFirst(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	c.ProcessKey(wDotKey(table.WDotLeft))
	out := c.ProcessKey(wDotKey(table.WDotRight))
	assertEmit(t, out, []rune{tbl.WFinal()})
	if c.Pending() != 1 {
		t.Errorf("buffer holds %d entries, want the new w-dot only", c.Pending())
	}
}

func TestWDotAfterLengthFlushesFirst(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	pKey := easternKey(t, tbl, "t")
	c.ProcessKey(pKey)
	c.ProcessKey(lengthKey)
	out := c.ProcessKey(wDotKey(table.WDotLeft))

	// Implicit flush: t stands alone, trailing length dropped; the
	// w-dot then starts a fresh composition.
	assertEmit(t, out, []rune{pKey.Codepoint})
	if c.Pending() != 1 {
		t.Errorf("buffer holds %d entries, want 1", c.Pending())
	}
}

func TestEasternFinalFlushesPending(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	kKey := easternKey(t, tbl, "k")
	mKey := easternKey(t, tbl, "m")
	c.ProcessKey(kKey)
	out := c.ProcessKey(mKey)
	assertEmit(t, out, []rune{kKey.Codepoint})
	if c.Pending() != 1 {
		t.Errorf("buffer holds %d entries, want the new final only", c.Pending())
	}
}

func TestLongEBehavesAsShortE(t *testing.T) {
	tbl := compiled(t)
	long := compose.New(tbl)
	short := compose.New(tbl)

	pLong := easternKey(t, tbl, "p")
	long.ProcessKey(pLong)
	long.ProcessKey(lengthKey)
	outLong := long.ProcessKey(vowelKey(table.VowelE))

	short.ProcessKey(easternKey(t, tbl, "p"))
	outShort := short.ProcessKey(vowelKey(table.VowelE))

	assertEmit(t, outLong, outShort)
}

func TestSystemKeyDiscardsBuffer(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	c.ProcessKey(easternKey(t, tbl, "s"))
	c.ProcessKey(wDotKey(table.WDotLeft))
	if out := c.ProcessKey(systemKey); len(out) != 0 {
		t.Fatalf("system key emitted %U", out)
	}
	if c.Pending() != 0 {
		t.Errorf("buffer not discarded: %d pending", c.Pending())
	}
}

func TestAtomicKeyFlushesThenEmits(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	period, ok := tbl.Punctuation("period")
	if !ok {
		t.Fatal("fixture has no period")
	}
	nKey := easternKey(t, tbl, "n")
	c.ProcessKey(nKey)
	out := c.ProcessKey(compose.KeyEvent{Category: compose.CategoryAtomic, Codepoint: period})
	assertEmit(t, out, []rune{nKey.Codepoint, period})
	if c.Pending() != 0 {
		t.Errorf("buffer not empty: %d pending", c.Pending())
	}
}

func TestShiftShortcutIsolatesKey(t *testing.T) {
	tbl := compiled(t)

	// Shifted eastern final with a dirty buffer equals flush, key,
	// flush on a parallel composer.
	shifted := compose.New(tbl)
	manual := compose.New(tbl)
	cKey := easternKey(t, tbl, "c")
	yKey := easternKey(t, tbl, "y")

	shifted.ProcessKey(cKey)
	ev := yKey
	ev.Shift = true
	gotShift := shifted.ProcessKey(ev)

	manual.ProcessKey(cKey)
	var want []rune
	want = append(want, manual.ProcessKey(flushKey)...)
	want = append(want, manual.ProcessKey(yKey)...)
	want = append(want, manual.ProcessKey(flushKey)...)

	assertEmit(t, gotShift, want)
	if shifted.Pending() != manual.Pending() {
		t.Errorf("buffer state differs: %d vs %d", shifted.Pending(), manual.Pending())
	}
}

func TestUnassignedCombinationDegrades(t *testing.T) {
	tbl := compiled(t)
	missing := table.Combination{
		Consonant: "l", WDot: table.WDotLeft, Length: table.LengthLong, Vowel: table.VowelA,
	}
	if !table.KnownMissing(missing) {
		t.Skip("exception set no longer lists l/left/long/a")
	}

	c := compose.New(tbl)
	lKey := easternKey(t, tbl, "l")
	c.ProcessKey(lKey)
	c.ProcessKey(wDotKey(table.WDotLeft))
	c.ProcessKey(lengthKey)
	out := c.ProcessKey(vowelKey(table.VowelA))

	// No assigned codepoint: the buffer flushes standalone (trailing
	// length discarded) and the bare vowel follows.
	assertEmit(t, out, []rune{lKey.Codepoint, tbl.WFinal(), tbl.BareVowel(table.VowelA)})
	if c.Pending() != 0 {
		t.Errorf("buffer not empty: %d pending", c.Pending())
	}
}

func TestCompositionCounters(t *testing.T) {
	tbl := compiled(t)
	c := compose.New(tbl)

	c.ProcessKey(easternKey(t, tbl, "p"))
	c.ProcessKey(vowelKey(table.VowelA))
	if c.Composed() != 1 || c.Misses() != 0 {
		t.Fatalf("after composition: composed=%d misses=%d", c.Composed(), c.Misses())
	}

	missing := table.Combination{
		Consonant: "l", WDot: table.WDotLeft, Length: table.LengthLong, Vowel: table.VowelA,
	}
	if !table.KnownMissing(missing) {
		t.Skip("exception set no longer lists l/left/long/a")
	}
	c.ProcessKey(easternKey(t, tbl, "l"))
	c.ProcessKey(wDotKey(table.WDotLeft))
	c.ProcessKey(lengthKey)
	c.ProcessKey(vowelKey(table.VowelA))
	if c.Composed() != 1 || c.Misses() != 1 {
		t.Fatalf("after degraded termination: composed=%d misses=%d", c.Composed(), c.Misses())
	}

	// Bare vowels and flushes never consult the sequence map.
	c.ProcessKey(vowelKey(table.VowelO))
	c.ProcessKey(flushKey)
	if c.Composed() != 1 || c.Misses() != 1 {
		t.Fatalf("after bare vowel and flush: composed=%d misses=%d", c.Composed(), c.Misses())
	}
}

func TestDeterministicReplay(t *testing.T) {
	tbl := compiled(t)
	keys := []compose.KeyEvent{
		easternKey(t, tbl, "p"), vowelKey(table.VowelA),
		wDotKey(table.WDotLeft), lengthKey, vowelKey(table.VowelI),
		easternKey(t, tbl, "k"), flushKey,
		vowelKey(table.VowelO),
	}
	run := func() []rune {
		c := compose.New(tbl)
		var out []rune
		for _, ev := range keys {
			out = append(out, c.ProcessKey(ev)...)
		}
		return out
	}
	assertEmit(t, run(), run())
}

func assertEmit(t *testing.T, got, want []rune) {
	t.Helper()
	if string(got) != string(want) {
		t.Errorf("emitted %U, want %U", got, want)
	}
}
