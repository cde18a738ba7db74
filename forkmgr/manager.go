// Package forkmgr implements the monotonic scheduler that switches the
// active protocol spec at predetermined rollup block heights while the STF
// core replays soft confirmations.
package forkmgr

import (
	"fmt"

	"github.com/btcsuite/btclog"
)

var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// MigrationHandler is notified whenever a new spec becomes active.
type MigrationHandler interface {
	SpecActivated(spec SpecID) error
}

// Manager is the fork manager described in spec.md §4.3: a monotonic
// activation queue plus the currently active spec.
type Manager struct {
	activeSpec SpecID
	pending    []Activation
	handlers   []MigrationHandler
}

// New constructs a Manager given the current rollup height, the spec
// already active at that height, and the full schedule. Any schedule entry
// equal to activeSpec or with an activation height <= currentHeight is
// dropped; the rest is kept in ascending activation-height order.
func New(currentHeight uint64, activeSpec SpecID, schedule []Activation, handlers ...MigrationHandler) *Manager {
	return &Manager{
		activeSpec: activeSpec,
		pending:    sortedPending(currentHeight, activeSpec, schedule),
		handlers:   handlers,
	}
}

// ActiveFork returns the currently active spec.
func (m *Manager) ActiveFork() SpecID {
	return m.activeSpec
}

// RegisterBlock activates the next pending spec iff its activation height
// exactly equals h. Activation fires only on exact equality per spec.md
// §4.3 — the caller must call RegisterBlock for every height in ascending
// order, never skipping one; this is a documented precondition, not
// defensively checked, matching spec.md §9's guidance against "activate
// all heights <= h" logic.
func (m *Manager) RegisterBlock(h uint64) error {
	if len(m.pending) == 0 {
		return nil
	}
	next := m.pending[0]
	if next.ActivationHeight != h {
		return nil
	}

	// Per spec.md §4.3, active_spec is set before the migration handlers
	// run. A handler failure is a fatal soundness violation (spec.md
	// §7): the caller is expected to abort the whole apply rather than
	// continue, so there is no rollback of activeSpec on error here.
	m.activeSpec = next.Spec
	log.Infof("activating spec %d at height %d", next.Spec, h)

	for _, handler := range m.handlers {
		if err := handler.SpecActivated(next.Spec); err != nil {
			return fmt.Errorf("spec %d activation handler failed "+
				"at height %d: %w", next.Spec, h, err)
		}
	}

	m.pending = m.pending[1:]
	return nil
}
