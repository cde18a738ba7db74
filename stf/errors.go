package stf

import (
	"errors"
	"fmt"
)

// ErrApplySoftConfirmation wraps a recoverable failure returned by the
// runtime (its pre-batch, post-batch or finalize hook, or a dispatch
// error) or by the storage capability during ApplySoftConfirmation. It
// does not represent a soundness violation.
var ErrApplySoftConfirmation = errors.New("apply soft confirmation hook failed")

// SoundnessError represents a fatal protocol violation: a hash mismatch,
// an invalid signature, a broken header chain, a merkle-root mismatch, a
// non-sequential commitment ordering, or a fork-activation callback
// failure (spec.md §7). ReplayCommitmentRange returns it for header-chain,
// merkle-root, sequentiality and fork-activation failures.
// ApplySoftConfirmation returns it for block/header, hash and signature
// mismatches only when ZkMode is set; on the native path it logs those
// and returns the rejected SlotResult with a nil error. It is returned as
// a typed error, never a panic, and comes with no partial state
// transition.
type SoundnessError struct {
	Reason string
}

func (e *SoundnessError) Error() string {
	return fmt.Sprintf("soundness violation: %s", e.Reason)
}

func soundnessf(format string, args ...any) error {
	return &SoundnessError{Reason: fmt.Sprintf(format, args...)}
}
