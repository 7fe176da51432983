//go:build linux

package ime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"ojitype/internal/keymap"
	"ojitype/internal/logging"
)

// IBus D-Bus constants
const (
	IBusFactoryInterface = "org.freedesktop.IBus.Factory"
	IBusEngineInterface  = "org.freedesktop.IBus.Engine"

	DefaultBusName    = "org.ojitype.IBus"
	DefaultEngineName = "ojitype"
)

// IBus key event state masks
const (
	IBusShiftMask   uint32 = 1 << 0
	IBusLockMask    uint32 = 1 << 1
	IBusControlMask uint32 = 1 << 2
	IBusMod1Mask    uint32 = 1 << 3 // Alt
	IBusMod4Mask    uint32 = 1 << 6 // Super/Meta
	IBusReleaseMask uint32 = 1 << 30
)

// Common GDK key symbols
const (
	GDKBackSpace = 0xff08
	GDKReturn    = 0xff0d
	GDKTab       = 0xff09
	GDKEscape    = 0xff1b
)

// IBusEngine bridges the composition engine onto the IBus D-Bus
// protocol. One exported object per input context; IBus asks the
// factory for a fresh object path on every focus-in of a new surface.
type IBusEngine struct {
	conn   *dbus.Conn
	engine *Engine
	log    *logging.Logger

	mu      sync.Mutex
	enabled bool
	path    dbus.ObjectPath
	ctxID   string
}

// IBusServer owns the bus connection and the engine factory.
type IBusServer struct {
	conn   *dbus.Conn
	engine *Engine
	log    *logging.Logger

	busName    string
	engineName string

	mu      sync.Mutex
	nextID  uint32
	engines map[dbus.ObjectPath]*IBusEngine
}

// NewIBusServer creates an IBus server over a composition engine.
func NewIBusServer(engine *Engine, busName, engineName string, log *logging.Logger) *IBusServer {
	if busName == "" {
		busName = DefaultBusName
	}
	if engineName == "" {
		engineName = DefaultEngineName
	}
	if log == nil {
		log = logging.Default()
	}
	return &IBusServer{
		engine:     engine,
		busName:    busName,
		engineName: engineName,
		log:        log.WithComponent("ibus"),
		engines:    make(map[dbus.ObjectPath]*IBusEngine),
	}
}

// Start connects to the session bus, claims the engine's bus name, and
// exports the factory.
func (s *IBusServer) Start(ctx context.Context) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	s.conn = conn

	reply, err := conn.RequestName(s.busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name %s: %w", s.busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("ime: bus name already taken, another instance is running")
	}

	factory := &IBusFactory{server: s}
	if err := conn.Export(factory, "/org/freedesktop/IBus/Factory", IBusFactoryInterface); err != nil {
		return fmt.Errorf("export factory: %w", err)
	}

	s.log.Info("ibus engine registered", "bus_name", s.busName, "engine", s.engineName)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop releases the bus connection.
func (s *IBusServer) Stop() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// createEngine exports a new engine object for one input context.
func (s *IBusServer) createEngine() (dbus.ObjectPath, error) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	path := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/IBus/Engine/%d", id))
	ctxID := fmt.Sprintf("ibus-%d", id)

	e := &IBusEngine{
		conn:   s.conn,
		engine: s.engine,
		log:    s.log,
		path:   path,
		ctxID:  ctxID,
	}
	if err := s.conn.Export(e, path, IBusEngineInterface); err != nil {
		return "", fmt.Errorf("export engine at %s: %w", path, err)
	}

	s.mu.Lock()
	s.engines[path] = e
	s.mu.Unlock()

	if err := s.engine.OpenContext(ctxID); err != nil {
		s.log.Warn("context already open", "context", ctxID, "error", err)
	}
	return path, nil
}

// IBusFactory implements the IBus Factory D-Bus interface.
type IBusFactory struct {
	server *IBusServer
}

// CreateEngine creates a new engine instance for IBus.
func (f *IBusFactory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	if engineName != f.server.engineName {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"unknown engine: " + engineName})
	}
	path, err := f.server.createEngine()
	if err != nil {
		f.server.log.Error("create engine failed", "error", err)
		return "", dbus.MakeFailedError(err)
	}
	f.server.log.Debug("engine created", "path", string(path))
	return path, nil
}

// ProcessKeyEvent handles key press/release events from IBus. Returning
// true consumes the key; false passes it through to the application.
func (e *IBusEngine) ProcessKeyEvent(keyval, keycode, state uint32) (bool, *dbus.Error) {
	// Releases never contribute to composition.
	if state&IBusReleaseMask != 0 {
		return false, nil
	}

	mods := keymap.Modifiers{
		Shift:    state&IBusShiftMask != 0,
		Control:  state&IBusControlMask != 0,
		Alt:      state&IBusMod1Mask != 0,
		Meta:     state&IBusMod4Mask != 0,
		CapsLock: state&IBusLockMask != 0,
	}

	// Navigation and editing keys discard the pending composition and
	// pass through untouched.
	switch keyval {
	case GDKBackSpace, GDKEscape:
		e.engine.FocusOut(e.ctxID)
		return false, nil
	}

	r := keyvalToRune(keyval)
	if r == 0 {
		// Function keys, arrows, and anything outside the text plane.
		e.engine.FocusOut(e.ctxID)
		return false, nil
	}

	out, handled := e.engine.ProcessKey(e.ctxID, r, mods)
	if out != "" {
		if err := e.commitText(out); err != nil {
			e.log.Error("commit failed", "error", err)
			return false, dbus.MakeFailedError(err)
		}
	}

	// Unmapped letters and modifier chords only discard the pending
	// buffer; the key itself passes through so the application still
	// sees it and shortcuts keep working.
	return handled, nil
}

// commitText emits the IBus CommitText signal carrying an IBusText
// serialized the way ibus expects: a variant holding the struct
// (name, attachments, text, attrs).
func (e *IBusEngine) commitText(text string) error {
	ibusText := dbus.MakeVariant(struct {
		Name        string
		Attachments map[string]dbus.Variant
		Text        string
		Attrs       dbus.Variant
	}{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        text,
		Attrs: dbus.MakeVariant(struct {
			Name        string
			Attachments map[string]dbus.Variant
			Attributes  []dbus.Variant
		}{
			Name:        "IBusAttrList",
			Attachments: map[string]dbus.Variant{},
			Attributes:  []dbus.Variant{},
		}),
	})
	return e.conn.Emit(e.path, IBusEngineInterface+".CommitText", ibusText)
}

// FocusIn is called when the engine gains input focus.
func (e *IBusEngine) FocusIn() *dbus.Error {
	e.log.Debug("focus in", "context", e.ctxID)
	return nil
}

// FocusOut discards the pending composition; the caret moved away.
func (e *IBusEngine) FocusOut() *dbus.Error {
	e.engine.FocusOut(e.ctxID)
	e.log.Debug("focus out", "context", e.ctxID)
	return nil
}

// Enable is called when the engine is enabled.
func (e *IBusEngine) Enable() *dbus.Error {
	e.mu.Lock()
	e.enabled = true
	e.mu.Unlock()
	return nil
}

// Disable discards pending state when the user switches engines.
func (e *IBusEngine) Disable() *dbus.Error {
	e.mu.Lock()
	e.enabled = false
	e.mu.Unlock()
	e.engine.FocusOut(e.ctxID)
	return nil
}

// Reset discards the pending composition.
func (e *IBusEngine) Reset() *dbus.Error {
	e.engine.FocusOut(e.ctxID)
	return nil
}

// Destroy tears down this context.
func (e *IBusEngine) Destroy() *dbus.Error {
	e.engine.CloseContext(e.ctxID)
	return nil
}

// SetCapabilities informs about client capabilities.
func (e *IBusEngine) SetCapabilities(caps uint32) *dbus.Error {
	return nil
}

// SetContentType informs about the type of content being edited.
func (e *IBusEngine) SetContentType(purpose, hints uint32) *dbus.Error {
	return nil
}

// SetCursorLocation informs about cursor position.
func (e *IBusEngine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

// SetSurroundingText provides context around the cursor.
func (e *IBusEngine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	return nil
}

// PropertyActivate handles property activations.
func (e *IBusEngine) PropertyActivate(propName string, state uint32) *dbus.Error {
	return nil
}

// PageUp handles page up in a candidate list.
func (e *IBusEngine) PageUp() *dbus.Error { return nil }

// PageDown handles page down in a candidate list.
func (e *IBusEngine) PageDown() *dbus.Error { return nil }

// CursorUp handles cursor up in a candidate list.
func (e *IBusEngine) CursorUp() *dbus.Error { return nil }

// CursorDown handles cursor down in a candidate list.
func (e *IBusEngine) CursorDown() *dbus.Error { return nil }

// CandidateClicked handles candidate selection.
func (e *IBusEngine) CandidateClicked(index, button, state uint32) *dbus.Error {
	return nil
}

// keyvalToRune converts an X11 keysym to a Unicode rune.
func keyvalToRune(keyval uint32) rune {
	// Printable ASCII maps directly.
	if keyval >= 0x20 && keyval <= 0x7e {
		return rune(keyval)
	}

	// Latin-1 supplement.
	if keyval >= 0xa0 && keyval <= 0xff {
		return rune(keyval)
	}

	// Unicode keysyms (0x01000000 + codepoint).
	if keyval >= 0x01000000 {
		return rune(keyval - 0x01000000)
	}

	switch keyval {
	case GDKReturn:
		return '\n'
	case GDKTab:
		return '\t'
	}

	return 0
}
