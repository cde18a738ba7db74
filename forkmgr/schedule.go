package forkmgr

import "sort"

// SpecID identifies a protocol rule version (a "spec" in sovereign-rollup
// terms, a "fork" in base-chain terms).
type SpecID uint32

// Activation pairs a spec with the rollup block height at which it becomes
// active.
type Activation struct {
	Spec             SpecID
	ActivationHeight uint64
}

// ForkForHeight returns the spec with the greatest activation height <= h,
// scanning the schedule linearly the same way
// consensus.ActiveCoreExtProfileWithProfiles in the pack resolves the
// active deployment profile for a given block height. schedule[0] is
// assumed to be the genesis spec, whose activation height is semantically
// -infinity: it is returned whenever no later activation has happened yet.
func ForkForHeight(schedule []Activation, h uint64) SpecID {
	active := schedule[0].Spec
	for _, a := range schedule {
		if a.ActivationHeight <= h {
			active = a.Spec
		}
	}
	return active
}

// sortedPending returns specs from schedule that are not yet active at
// currentHeight and are not equal to activeSpec, ordered ascending by
// activation height.
func sortedPending(currentHeight uint64, activeSpec SpecID, schedule []Activation) []Activation {
	pending := make([]Activation, 0, len(schedule))
	for _, a := range schedule {
		if a.Spec == activeSpec || a.ActivationHeight <= currentHeight {
			continue
		}
		pending = append(pending, a)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].ActivationHeight < pending[j].ActivationHeight
	})
	return pending
}
