// Package keymap resolves raw QWERTY keystrokes into classified
// composition key events. The layout is data: a map from key name to an
// entity descriptor, loaded from configuration with a built-in default,
// so a table author can rearrange the board without touching code.
package keymap

import (
	"fmt"
	"strings"
	"unicode"

	"ojitype/internal/compose"
	"ojitype/internal/table"
)

// Modifiers is the modifier state delivered with a keystroke. CapsLock
// is carried for completeness but never influences classification.
type Modifiers struct {
	Shift    bool
	Control  bool
	Alt      bool
	Meta     bool
	CapsLock bool
}

// Keymap maps keysyms to classified key events.
type Keymap struct {
	events map[rune]compose.KeyEvent
}

// DefaultLayout is the stock QWERTY assignment. Lowercase letters carry
// the composable entities, the number row carries the western finals
// (plus v as the dedicated western-M key), and brackets carry the
// medials.
func DefaultLayout() map[string]string {
	return map[string]string{
		"a": "vowel:a", "e": "vowel:e", "i": "vowel:i", "o": "vowel:o",

		"p": "eastern:p", "t": "eastern:t", "c": "eastern:c", "k": "eastern:k",
		"m": "eastern:m", "n": "eastern:n", "s": "eastern:s", "x": "eastern:sh",
		"y": "eastern:y", "l": "eastern:l", "r": "eastern:r",

		"w": "wdot:left", "u": "wdot:right",
		"q": "length",
		";": "flush",
		"h": "common:h",

		"1": "western:p", "2": "western:t", "3": "western:c", "4": "western:k",
		"5": "western:m", "6": "western:n", "7": "western:s", "8": "western:sh",
		"9": "western:y", "0": "western:l", "-": "western:r",
		"v": "western:m",

		"[": "alternate:l", "]": "alternate:r", "'": "alternate:y",

		".": "punct:period", ",": "punct:comma",
		"?": "punct:question", "=": "punct:hyphen",
	}
}

// New builds a keymap over a compiled table. Every descriptor must
// resolve against the table; a layout naming a final or punctuation
// entry the table lacks is a configuration error.
func New(tbl *table.Table, layout map[string]string) (*Keymap, error) {
	events := make(map[rune]compose.KeyEvent, len(layout))
	for key, descriptor := range layout {
		runes := []rune(key)
		if len(runes) != 1 {
			return nil, fmt.Errorf("keymap: key %q must be a single character", key)
		}
		ev, err := parseDescriptor(tbl, descriptor)
		if err != nil {
			return nil, fmt.Errorf("keymap: key %q: %w", key, err)
		}
		events[runes[0]] = ev
	}
	return &Keymap{events: events}, nil
}

// Default builds the stock layout over a compiled table.
func Default(tbl *table.Table) (*Keymap, error) {
	return New(tbl, DefaultLayout())
}

func parseDescriptor(tbl *table.Table, descriptor string) (compose.KeyEvent, error) {
	kind, arg, _ := strings.Cut(descriptor, ":")
	switch kind {
	case "vowel":
		switch v := table.Vowel(arg); v {
		case table.VowelA, table.VowelE, table.VowelI, table.VowelO:
			return compose.KeyEvent{Category: compose.CategoryVowel, Vowel: v}, nil
		}
		return compose.KeyEvent{}, fmt.Errorf("unknown vowel %q", arg)
	case "eastern":
		cp, ok := tbl.EasternFinal(table.Consonant(arg))
		if !ok {
			return compose.KeyEvent{}, fmt.Errorf("no eastern final %q in table", arg)
		}
		return compose.KeyEvent{
			Category:  compose.CategoryEasternFinal,
			Codepoint: cp,
			Consonant: table.Consonant(arg),
		}, nil
	case "western":
		cp, ok := tbl.WesternFinal(table.Consonant(arg))
		if !ok {
			return compose.KeyEvent{}, fmt.Errorf("no western final %q in table", arg)
		}
		return compose.KeyEvent{Category: compose.CategoryAtomic, Codepoint: cp}, nil
	case "common":
		cp, ok := tbl.CommonFinal(table.Consonant(arg))
		if !ok {
			return compose.KeyEvent{}, fmt.Errorf("no common final %q in table", arg)
		}
		return compose.KeyEvent{Category: compose.CategoryAtomic, Codepoint: cp}, nil
	case "alternate":
		cp, ok := tbl.AlternateFinal(table.Consonant(arg))
		if !ok {
			return compose.KeyEvent{}, fmt.Errorf("no alternate final %q in table", arg)
		}
		return compose.KeyEvent{Category: compose.CategoryAtomic, Codepoint: cp}, nil
	case "wdot":
		switch arg {
		case "left":
			return compose.KeyEvent{Category: compose.CategoryWDot, Side: table.WDotLeft}, nil
		case "right":
			return compose.KeyEvent{Category: compose.CategoryWDot, Side: table.WDotRight}, nil
		}
		return compose.KeyEvent{}, fmt.Errorf("unknown w-dot side %q", arg)
	case "length":
		return compose.KeyEvent{Category: compose.CategoryVowelLength}, nil
	case "flush":
		return compose.KeyEvent{Category: compose.CategoryFlush}, nil
	case "punct":
		cp, ok := tbl.Punctuation(arg)
		if !ok {
			return compose.KeyEvent{}, fmt.Errorf("no punctuation %q in table", arg)
		}
		return compose.KeyEvent{Category: compose.CategoryAtomic, Codepoint: cp}, nil
	}
	return compose.KeyEvent{}, fmt.Errorf("unknown entity descriptor %q", descriptor)
}

// Resolve classifies one keystroke. Control, alt, and meta force a
// System event regardless of the key; Caps Lock never does. Whitespace
// is always atomic and emits itself. A shifted keysym with a direct
// mapping is its own key; an unmapped uppercase letter falls back to
// its lowercase entity with the shift-shortcut flag set. Everything
// else is System: outside the input surface.
func (k *Keymap) Resolve(r rune, mods Modifiers) compose.KeyEvent {
	if mods.Control || mods.Alt || mods.Meta {
		return compose.KeyEvent{Category: compose.CategorySystem}
	}

	switch r {
	case ' ', '\t':
		return compose.KeyEvent{Category: compose.CategoryAtomic, Codepoint: r}
	case '\n', '\r':
		return compose.KeyEvent{Category: compose.CategoryAtomic, Codepoint: '\n'}
	}

	if ev, ok := k.events[r]; ok {
		// A shift-equivalent modifier on a key whose keysym was not
		// itself produced by shift isolates the key.
		ev.Shift = mods.Shift && unicode.IsLower(r)
		return ev
	}

	if lower := unicode.ToLower(r); lower != r {
		if ev, ok := k.events[lower]; ok {
			ev.Shift = true
			return ev
		}
	}

	return compose.KeyEvent{Category: compose.CategorySystem}
}
