// Package ime hosts the platform-independent input method engine: a set
// of per-surface composition contexts over one shared compiled table,
// with live table swapping on reload.
package ime

import (
	"fmt"
	"sync"
	"time"

	"ojitype/internal/compose"
	"ojitype/internal/keymap"
	"ojitype/internal/logging"
	"ojitype/internal/metrics"
	"ojitype/internal/table"
)

// Engine routes keystrokes from input contexts through the composition
// state machine and returns the text to commit.
type Engine struct {
	mu       sync.Mutex
	tbl      *table.Table
	km       *keymap.Keymap
	layout   map[string]string
	contexts map[string]*compose.Composer

	log     *logging.Logger
	metrics *metrics.OjitypeMetrics
}

// New creates an engine over a compiled table and key layout.
func New(tbl *table.Table, layout map[string]string, log *logging.Logger) (*Engine, error) {
	km, err := keymap.New(tbl, layout)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Default()
	}

	m := metrics.GetMetrics()
	m.TableSequences.Set(int64(tbl.SequenceCount()))

	return &Engine{
		tbl:      tbl,
		km:       km,
		layout:   layout,
		contexts: make(map[string]*compose.Composer),
		log:      log.WithComponent("ime"),
		metrics:  m,
	}, nil
}

// OpenContext creates a composition context for an input surface.
func (e *Engine) OpenContext(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.contexts[id]; ok {
		return fmt.Errorf("ime: context %q already open", id)
	}
	e.contexts[id] = compose.New(e.tbl)
	e.metrics.ContextOpened()
	e.log.Debug("context opened", "context", id)
	return nil
}

// CloseContext discards a context and any pending composition.
func (e *Engine) CloseContext(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.contexts[id]; !ok {
		return
	}
	delete(e.contexts, id)
	e.metrics.ContextClosed()
	e.log.Debug("context closed", "context", id)
}

// FocusOut discards the pending composition for a context. Moving the
// caret or switching surfaces invalidates any half-typed syllable.
func (e *Engine) FocusOut(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.contexts[id]; ok {
		c.Reset()
	}
}

// ProcessKey runs one keystroke through a context and returns the text
// to commit, if any, plus whether the engine handled the key. Keys that
// resolve to a system event (unmapped letters, modifier chords) only
// discard the pending buffer; they report handled=false so the platform
// layer passes them through to the application. Unknown contexts are
// opened implicitly; IBus can deliver keys before the focus-in round
// trip completes.
func (e *Engine) ProcessKey(id string, r rune, mods keymap.Modifiers) (string, bool) {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.contexts[id]
	if !ok {
		c = compose.New(e.tbl)
		e.contexts[id] = c
		e.metrics.ContextOpened()
	}

	ev := e.km.Resolve(r, mods)
	composed, missed := c.Composed(), c.Misses()
	out := c.ProcessKey(ev)

	e.metrics.RecordKeyEvent(time.Since(start))
	if d := c.Composed() - composed; d > 0 {
		e.metrics.SyllablesComposed.Add(d)
	}
	if d := c.Misses() - missed; d > 0 {
		e.metrics.LookupMissesTotal.Add(d)
	}
	if len(out) > 0 {
		e.metrics.RecordCommit()
	}
	return string(out), ev.Category != compose.CategorySystem
}

// Pending reports how many entities a context is buffering.
func (e *Engine) Pending(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.contexts[id]; ok {
		return c.Pending()
	}
	return 0
}

// ContextCount reports the number of open contexts.
func (e *Engine) ContextCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.contexts)
}

// SwapTable replaces the compiled table after a live reload. All
// contexts restart empty over the new table; buffered entities from the
// old table would compose against stale codepoints.
func (e *Engine) SwapTable(tbl *table.Table) error {
	km, err := keymap.New(tbl, e.layout)
	if err != nil {
		return fmt.Errorf("ime: layout does not fit reloaded table: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tbl = tbl
	e.km = km
	for id := range e.contexts {
		e.contexts[id] = compose.New(tbl)
	}

	e.metrics.ReloadsTotal.Inc()
	e.metrics.TableSequences.Set(int64(tbl.SequenceCount()))
	e.log.Info("table swapped", "sequences", tbl.SequenceCount(), "contexts", len(e.contexts))
	return nil
}
