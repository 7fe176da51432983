// Package compose implements the runtime composition state machine. A
// Composer owns the ordered buffer of pending keystrokes for one input
// context and decides, per classified keystroke, whether to buffer,
// combine, flush, or emit against a shared read-only compiled table.
//
// There is no runtime error path: build-time completeness validation
// guarantees every reachable buffer state either resolves to a symbol
// or flushes to standalone symbols, so every keystroke is absorbed
// deterministically.
package compose

import "ojitype/internal/table"

// Category classifies one incoming keystroke.
type Category int

const (
	// CategorySystem covers keystrokes with a control/alt/meta
	// modifier, keys outside the input surface, and external events
	// defined to behave the same way (focus loss). The buffer is
	// discarded; nothing is emitted.
	CategorySystem Category = iota

	// CategoryAtomic keys always stand alone: punctuation, western
	// finals, the H final, the medial symbols, and whitespace.
	CategoryAtomic

	// CategoryEasternFinal keys open a new composition.
	CategoryEasternFinal

	// CategoryWDot is either w-dot key.
	CategoryWDot

	// CategoryVowelLength is the vowel-length dot key.
	CategoryVowelLength

	// CategoryVowel always terminates a composition.
	CategoryVowel

	// CategoryFlush is the dedicated flush key.
	CategoryFlush
)

func (c Category) String() string {
	switch c {
	case CategorySystem:
		return "system"
	case CategoryAtomic:
		return "atomic"
	case CategoryEasternFinal:
		return "eastern-final"
	case CategoryWDot:
		return "w-dot"
	case CategoryVowelLength:
		return "vowel-length"
	case CategoryVowel:
		return "vowel"
	case CategoryFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// KeyEvent is one classified keystroke.
type KeyEvent struct {
	Category Category

	// Codepoint is the key's own standalone symbol; set for Atomic
	// and EasternFinal keys.
	Codepoint rune

	// Consonant is set for EasternFinal keys and selects the base
	// syllable used in canonical keys.
	Consonant table.Consonant

	// Side is set for WDot keys.
	Side table.WDotSide

	// Vowel is set for Vowel keys.
	Vowel table.Vowel

	// Shift marks a shift-equivalent modifier: the key is isolated as
	// its own composition (flush, key, flush).
	Shift bool
}

type entry struct {
	cat       Category
	cp        rune
	consonant table.Consonant
	side      table.WDotSide
}

// Composer is the per-input-context state machine. It is not safe for
// concurrent use; each context delivers one keystroke at a time.
type Composer struct {
	table *table.Table
	buf   []entry

	composed uint64
	misses   uint64
}

// New returns a Composer with an empty buffer over a compiled table.
func New(t *table.Table) *Composer {
	return &Composer{table: t}
}

// Reset discards the pending buffer without emitting, exactly as a
// System keystroke does.
func (c *Composer) Reset() {
	c.buf = c.buf[:0]
}

// Pending reports the number of buffered keystrokes.
func (c *Composer) Pending() int {
	return len(c.buf)
}

// Composed reports how many vowel terminations resolved to a composed
// symbol over this composer's lifetime.
func (c *Composer) Composed() uint64 {
	return c.composed
}

// Misses reports how many vowel terminations found no assigned
// codepoint and fell back to standalone symbols.
func (c *Composer) Misses() uint64 {
	return c.misses
}

// ProcessKey consumes one classified keystroke and returns the symbols
// to append to the text surface, in order. The returned slice is nil
// when the keystroke only changed buffer state.
func (c *Composer) ProcessKey(ev KeyEvent) []rune {
	if ev.Category == CategorySystem {
		c.Reset()
		return nil
	}

	if ev.Shift && ev.Category != CategoryFlush {
		out := c.flush()
		ev.Shift = false
		out = append(out, c.ProcessKey(ev)...)
		return append(out, c.flush()...)
	}

	switch ev.Category {
	case CategoryFlush:
		return c.flush()

	case CategoryAtomic:
		return append(c.flush(), ev.Codepoint)

	case CategoryEasternFinal:
		out := c.flush()
		c.buf = append(c.buf, entry{cat: CategoryEasternFinal, cp: ev.Codepoint, consonant: ev.Consonant})
		return out

	case CategoryWDot:
		var out []rune
		if n := len(c.buf); n > 0 {
			switch c.buf[n-1].cat {
			case CategoryVowelLength, CategoryWDot:
				out = c.flush()
			}
		}
		c.buf = append(c.buf, entry{cat: CategoryWDot, side: ev.Side})
		return out

	case CategoryVowelLength:
		if n := len(c.buf); n > 0 && c.buf[n-1].cat == CategoryVowelLength {
			return nil // repeated length key is inert
		}
		c.buf = append(c.buf, entry{cat: CategoryVowelLength})
		return nil

	case CategoryVowel:
		return c.terminate(ev.Vowel)
	}

	return nil
}

// terminate resolves the buffer plus the terminating vowel to a single
// composed symbol and clears the buffer.
func (c *Composer) terminate(v table.Vowel) []rune {
	if len(c.buf) == 0 {
		return []rune{c.table.BareVowel(v)}
	}

	constituents := make([]rune, 0, len(c.buf)+1)
	for i, e := range c.buf {
		switch e.cat {
		case CategoryEasternFinal:
			base, ok := c.table.BaseSyllable(e.consonant)
			if !ok {
				// Unknown initial cannot compose; degrade below.
				c.misses++
				return append(c.flush(), c.table.BareVowel(v))
			}
			constituents = append(constituents, base)
		case CategoryWDot:
			constituents = append(constituents, table.WDotMark(e.side))
		case CategoryVowelLength:
			// The length dot has no effect on e; a trailing length
			// entry is treated as absent.
			if v == table.VowelE && i == len(c.buf)-1 {
				continue
			}
			constituents = append(constituents, table.VowelLengthMark)
		}
	}
	constituents = append(constituents, c.table.BareVowel(v))

	if cp, ok := c.table.LookupSequence(constituents); ok {
		c.Reset()
		c.composed++
		return []rune{cp}
	}

	// The combination has no assigned codepoint (exception set). Fall
	// back to flushing the buffered entries standalone, then the bare
	// vowel, so input is never dropped.
	c.misses++
	return append(c.flush(), c.table.BareVowel(v))
}

// flush emits every buffered entry as its own standalone symbol in
// buffer order, discarding a trailing vowel-length entry (it has no
// standalone symbol) and mapping either w-dot key to the shared W
// final. Flushing an empty buffer does nothing.
func (c *Composer) flush() []rune {
	if len(c.buf) == 0 {
		return nil
	}
	entries := c.buf
	if entries[len(entries)-1].cat == CategoryVowelLength {
		entries = entries[:len(entries)-1]
	}
	out := make([]rune, 0, len(entries))
	for _, e := range entries {
		switch e.cat {
		case CategoryEasternFinal:
			out = append(out, e.cp)
		case CategoryWDot:
			out = append(out, c.table.WFinal())
		}
	}
	c.buf = c.buf[:0]
	return out
}
