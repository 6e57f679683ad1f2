package ui

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrNotMounted     = errors.New("modal is not mounted")
	ErrAlreadyMounted = errors.New("modal is already mounted")
)

// DialogSurface is the host-rendered element backing a modal. The host's
// rendering layer implements it; the controller only drives it.
type DialogSurface interface {
	Show()
	Hide()
}

// ModalState tracks a dialog's lifecycle.
type ModalState int

const (
	ModalUnmounted ModalState = iota
	ModalClosed
	ModalOpen
)

func (s ModalState) String() string {
	switch s {
	case ModalClosed:
		return "mounted-closed"
	case ModalOpen:
		return "mounted-open"
	default:
		return "unmounted"
	}
}

// Modal binds one dialog's open/close state to its surface lifecycle. It is
// constructed by a Manager, mounted exactly once when the surface becomes
// available, and refuses Open/Close while unmounted so a dialog can never be
// driven before its element exists.
type Modal struct {
	id  string
	mgr *Manager

	mu      sync.Mutex
	state   ModalState
	surface DialogSurface
}

// ID returns the dialog identity this modal was registered under.
func (m *Modal) ID() string { return m.id }

// Mount attaches the backing surface. A second Mount is an error; the
// instance is created exactly once per element lifetime.
func (m *Modal) Mount(surface DialogSurface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ModalUnmounted {
		m.mgr.log.Error("modal mounted twice", zap.String("modal", m.id))
		return ErrAlreadyMounted
	}
	m.surface = surface
	m.state = ModalClosed
	return nil
}

// Open shows the dialog. While unmounted it reports an error and does
// nothing else.
func (m *Modal) Open() error {
	m.mu.Lock()
	if m.state == ModalUnmounted {
		m.mu.Unlock()
		m.mgr.log.Error("open called on unmounted modal", zap.String("modal", m.id))
		return ErrNotMounted
	}
	m.state = ModalOpen
	surface := m.surface
	m.mu.Unlock()

	surface.Show()
	return nil
}

// Close hides the dialog and fires the manager's close observer.
func (m *Modal) Close() error {
	m.mu.Lock()
	if m.state == ModalUnmounted {
		m.mu.Unlock()
		m.mgr.log.Error("close called on unmounted modal", zap.String("modal", m.id))
		return ErrNotMounted
	}
	m.state = ModalClosed
	surface := m.surface
	m.mu.Unlock()

	surface.Hide()
	m.mgr.notifyClosed(m.id)
	return nil
}

// Unmount detaches the surface on view teardown. The modal can be mounted
// again when a fresh surface appears.
func (m *Modal) Unmount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = ModalUnmounted
	m.surface = nil
}

// State reports the current lifecycle state.
func (m *Modal) State() ModalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsOpen is a convenience for callers that only close a dialog when it is
// actually showing.
func (m *Modal) IsOpen() bool {
	return m.State() == ModalOpen
}

// Manager owns every modal of a view plus the single close observer that
// clears input focus whenever any dialog hides. The observer lives on the
// manager, not on each dialog, so the rule applies to all of them through
// one subscription.
type Manager struct {
	log *zap.Logger

	mu           sync.Mutex
	modals       map[string]*Modal
	focusClearer func()
	onClose      func(id string)
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		log:    log.Named("modal"),
		modals: make(map[string]*Modal),
	}
}

// Register creates the modal for a dialog identity. Registering the same
// identity again returns the existing instance.
func (mg *Manager) Register(id string) *Modal {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	if m, ok := mg.modals[id]; ok {
		return m
	}
	m := &Modal{id: id, mgr: mg}
	mg.modals[id] = m
	return m
}

// SetFocusClearer installs the host callback that drops keyboard focus out
// of a just-hidden dialog, so an invisible element never traps it.
func (mg *Manager) SetFocusClearer(f func()) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	mg.focusClearer = f
}

// OnClose installs an observer fired after any dialog closes.
func (mg *Manager) OnClose(f func(id string)) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	mg.onClose = f
}

func (mg *Manager) notifyClosed(id string) {
	mg.mu.Lock()
	focus := mg.focusClearer
	onClose := mg.onClose
	mg.mu.Unlock()

	if focus != nil {
		focus()
	}
	if onClose != nil {
		onClose(id)
	}
}

// Teardown unmounts every modal; the terminal state on view teardown is
// unmounted.
func (mg *Manager) Teardown() {
	mg.mu.Lock()
	modals := make([]*Modal, 0, len(mg.modals))
	for _, m := range mg.modals {
		modals = append(modals, m)
	}
	mg.mu.Unlock()

	for _, m := range modals {
		m.Unmount()
	}
}
