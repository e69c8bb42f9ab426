package event

import "github.com/CascadeOS/uACPI/uacpierr"

// FixedEvent identifies one of the fixed-function ACPI events (spec.md
// §4.6: "Fixed events (power button, sleep button, RTC, global lock
// release) dispatch to registered handlers similarly").
type FixedEvent uint8

const (
	PowerButton FixedEvent = iota
	SleepButton
	RTC
	GlobalLockRelease
)

// FixedHandler is a native callback for a fixed event.
type FixedHandler func(event FixedEvent)

type fixedBinding struct {
	fn FixedHandler
}

// InstallFixedHandler registers fn for event, replacing any previously
// installed handler for the same event (a host has exactly one handler per
// fixed event, unlike GPEs/Notify which fan out to many).
func (m *Manager) InstallFixedHandler(event FixedEvent, fn FixedHandler) {
	m.mu.Lock()
	m.fixed[event] = &fixedBinding{fn: fn}
	m.mu.Unlock()
}

// UninstallFixedHandler removes event's handler.
func (m *Manager) UninstallFixedHandler(event FixedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fixed[event]; !ok {
		return uacpierr.Wrapf(uacpierr.ErrNotFound, "no handler installed for fixed event %d", event)
	}
	delete(m.fixed, event)
	return nil
}

// FireFixed dispatches event to its registered handler, if any.
func (m *Manager) FireFixed(event FixedEvent) {
	m.mu.Lock()
	b, ok := m.fixed[event]
	m.mu.Unlock()
	if ok {
		b.fn(event)
	}
}
