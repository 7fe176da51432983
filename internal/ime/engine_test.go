package ime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ojitype/internal/keymap"
	"ojitype/internal/metrics"
	"ojitype/internal/table"
	"ojitype/internal/tabletest"
)

func createTestEngine(t *testing.T) (*Engine, *table.Table) {
	t.Helper()
	tbl, err := tabletest.Compile()
	require.NoError(t, err)

	e, err := New(tbl, keymap.DefaultLayout(), nil)
	require.NoError(t, err)
	return e, tbl
}

func typeString(e *Engine, id, keys string) string {
	var out string
	for _, r := range keys {
		text, _ := e.ProcessKey(id, r, keymap.Modifiers{})
		out += text
	}
	return out
}

func TestProcessKeyComposes(t *testing.T) {
	e, tbl := createTestEngine(t)
	require.NoError(t, e.OpenContext("ctx"))

	pa, ok := tbl.BaseSyllable("p")
	require.True(t, ok)

	got := typeString(e, "ctx", "pa")
	assert.Equal(t, string(pa), got)
}

func TestUnmappedKeyPassesThrough(t *testing.T) {
	e, tbl := createTestEngine(t)
	require.NoError(t, e.OpenContext("ctx"))

	_, handled := e.ProcessKey("ctx", 'p', keymap.Modifiers{})
	require.True(t, handled)
	require.Equal(t, 1, e.Pending("ctx"))

	// A letter with no mapping discards the buffer but is not consumed;
	// the application must still receive it.
	out, handled := e.ProcessKey("ctx", 'z', keymap.Modifiers{})
	assert.False(t, handled)
	assert.Empty(t, out)
	assert.Equal(t, 0, e.Pending("ctx"))

	got := typeString(e, "ctx", "a")
	assert.Equal(t, string(tbl.BareVowel(table.VowelA)), got)
}

func TestModifierChordPassesThrough(t *testing.T) {
	e, _ := createTestEngine(t)

	out, handled := e.ProcessKey("ctx", 'p', keymap.Modifiers{Control: true})
	assert.False(t, handled)
	assert.Empty(t, out)
}

func TestLookupCounters(t *testing.T) {
	e, _ := createTestEngine(t)
	m := metrics.GetMetrics()

	composed := m.SyllablesComposed.Value()
	typeString(e, "ctx", "pa")
	assert.Equal(t, composed+1, m.SyllablesComposed.Value())

	missing := table.Combination{
		Consonant: "l", WDot: table.WDotLeft, Length: table.LengthLong, Vowel: table.VowelA,
	}
	if !table.KnownMissing(missing) {
		t.Skip("exception set no longer lists l/left/long/a")
	}
	misses := m.LookupMissesTotal.Value()
	typeString(e, "ctx", "lwqa")
	assert.Equal(t, misses+1, m.LookupMissesTotal.Value())
}

func TestContextsAreIndependent(t *testing.T) {
	e, tbl := createTestEngine(t)
	require.NoError(t, e.OpenContext("a"))
	require.NoError(t, e.OpenContext("b"))

	// Context a buffers a consonant; typing a vowel in context b must
	// not see it.
	assert.Empty(t, typeString(e, "a", "p"))
	assert.Equal(t, 1, e.Pending("a"))

	got := typeString(e, "b", "a")
	assert.Equal(t, string(tbl.BareVowel(table.VowelA)), got)
	assert.Equal(t, 1, e.Pending("a"))
}

func TestImplicitContext(t *testing.T) {
	e, tbl := createTestEngine(t)

	got := typeString(e, "unseen", "ta")
	ta, ok := tbl.BaseSyllable("t")
	require.True(t, ok)
	assert.Equal(t, string(ta), got)
	assert.Equal(t, 1, e.ContextCount())
}

func TestOpenContextTwice(t *testing.T) {
	e, _ := createTestEngine(t)
	require.NoError(t, e.OpenContext("ctx"))
	assert.Error(t, e.OpenContext("ctx"))
}

func TestFocusOutDiscardsPending(t *testing.T) {
	e, tbl := createTestEngine(t)
	require.NoError(t, e.OpenContext("ctx"))

	typeString(e, "ctx", "p")
	e.FocusOut("ctx")
	assert.Equal(t, 0, e.Pending("ctx"))

	// The buffered consonant is gone, so the vowel stands alone.
	got := typeString(e, "ctx", "a")
	assert.Equal(t, string(tbl.BareVowel(table.VowelA)), got)
}

func TestCloseContext(t *testing.T) {
	e, _ := createTestEngine(t)
	require.NoError(t, e.OpenContext("ctx"))
	e.CloseContext("ctx")
	assert.Equal(t, 0, e.ContextCount())

	// Closing twice is a no-op.
	e.CloseContext("ctx")
}

func TestSwapTableResetsContexts(t *testing.T) {
	e, _ := createTestEngine(t)
	require.NoError(t, e.OpenContext("ctx"))

	typeString(e, "ctx", "p")
	require.Equal(t, 1, e.Pending("ctx"))

	fresh, err := tabletest.Compile()
	require.NoError(t, err)
	require.NoError(t, e.SwapTable(fresh))

	assert.Equal(t, 0, e.Pending("ctx"))

	pa, ok := fresh.BaseSyllable("p")
	require.True(t, ok)
	assert.Equal(t, string(pa), typeString(e, "ctx", "pa"))
}
