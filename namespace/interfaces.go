package namespace

import (
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/CascadeOS/uACPI/uacpierr"
)

// InterfaceTable tracks the _OSI-advertised interface strings a client has
// installed (spec.md §6 "Install/uninstall: ... interface (`_OSI`
// advertised name)"). Each interface carries a semver.Version so revision
// ranges can be negotiated with one comparison engine instead of ad hoc
// integer parsing, the way SPEC_FULL.md's domain stack wires
// Masterminds/semver into revision/interface-version checks.
type InterfaceTable struct {
	mu    sync.RWMutex
	byName map[string]*semver.Version
}

// NewInterfaceTable returns an empty interface table.
func NewInterfaceTable() *InterfaceTable {
	return &InterfaceTable{byName: make(map[string]*semver.Version)}
}

// defaultVersion is used when InstallInterface is called without an
// explicit version (the common case: `_OSI("Windows 2015")` style strings
// carry no version of their own, only presence/absence matters).
var defaultVersion = semver.MustParse("1.0.0")

// Install advertises `name` as supported, at `version` (or "1.0.0" if
// version is empty). Re-installing the same name with a new version
// replaces the prior entry; this is allowed (idempotent), unlike
// namespace node install, since interface strings are a flat set, not a
// tree (spec.md §8's "installed set equals the multiset difference"
// property is about handler registrations, which the event subsystem
// tracks by unique token — see package event).
func (t *InterfaceTable) Install(name, version string) error {
	v := defaultVersion
	if version != "" {
		parsed, err := semver.NewVersion(version)
		if err != nil {
			return uacpierr.Wrap(uacpierr.ErrInvalidArgument, uacpierr.Context{Path: name}, err)
		}
		v = parsed
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[name] = v
	return nil
}

// Uninstall removes a previously installed interface string.
func (t *InterfaceTable) Uninstall(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byName, name)
}

// Supports reports whether `name` is currently advertised (the value
// `_OSI("name")` returns Ones/Zero for).
func (t *InterfaceTable) Supports(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byName[name]
	return ok
}

// SatisfiesConstraint reports whether the installed version of `name`
// satisfies a semver constraint expression (e.g. ">= 2.0.0"). Used by
// table-installation handlers that want to gate a table's load on an
// already-negotiated interface version rather than a bare presence check.
func (t *InterfaceTable) SatisfiesConstraint(name, constraint string) (bool, error) {
	t.mu.RLock()
	v, ok := t.byName[name]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, uacpierr.Wrap(uacpierr.ErrInvalidArgument, uacpierr.Context{Path: constraint}, err)
	}
	return c.Check(v), nil
}
