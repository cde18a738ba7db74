// Package stf implements the soft-confirmation state transition function
// core: per-block application of a sequencer-signed rollup block against
// an evolving rule set, and replay of an ordered range of sequencer
// commitments against a base-chain header stream.
//
// The module runtime, RPC surfaces, persistent storage backends, and
// zkVM glue are deliberately out of scope (spec.md §1); this package
// only depends on the small capability interfaces below.
package stf

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// WorkingSet is the mutable view over rollup state a Runtime dispatches
// transactions against during a block; its concrete shape is owned by the
// host (genesis, module dispatch, storage-backed tries). The STF core only
// ever threads it through, never inspects it.
type WorkingSet interface{}

// CacheLog is the frozen, replayable record of reads/writes a WorkingSet
// accumulated over a block, handed to Storage.ComputeStateUpdate.
type CacheLog interface{}

// AccessoryWorkingSet is the side-channel working set passed to the
// runtime's finalize hook (e.g. for off-chain-readable accessory state)
// and then frozen into an AccessoryLog for Storage.Commit.
type AccessoryWorkingSet interface{}

// AccessoryLog is the frozen accessory working set committed alongside the
// state update.
type AccessoryLog interface{}

// Witness is the opaque auxiliary data a zk prover needs to re-derive a
// state root; the Core never inspects its contents.
type Witness interface{}

// StateUpdate is the opaque, storage-owned representation of a trie
// mutation produced by ComputeStateUpdate and consumed by Commit.
type StateUpdate interface{}

// StateDiff is the overlay of storage key/value changes produced by a
// block or commitment range. Cumulative diffs merge with "later writes
// win" semantics (spec.md §4.4.2 step 5).
type StateDiff map[string][]byte

// Merge overlays other onto d in place, with entries in other winning on
// key collision, and returns the receiver for chaining.
func (d StateDiff) Merge(other StateDiff) StateDiff {
	for k, v := range other {
		d[k] = v
	}
	return d
}

// TxEffect classifies the outcome of dispatching a single transaction.
type TxEffect int

const (
	// TxReverted means the transaction's state effects were rolled back
	// but the batch continues; it does not abort the block.
	TxReverted TxEffect = iota
	// TxSuccessful means the transaction's effects were applied.
	TxSuccessful
)

// TxReceipt records the outcome of one dispatched transaction.
type TxReceipt struct {
	TxHash [32]byte
	Effect TxEffect
}

// Runtime is the module dispatch capability: genesis, per-tx dispatch, and
// the pre/post-batch and finalize hooks invoked around each soft
// confirmation.
type Runtime interface {
	// Genesis initializes cfg into ws. Not called by the per-block
	// pipeline; included for the capability's completeness per
	// spec.md §4.4.
	Genesis(cfg []byte, ws WorkingSet) error

	// Dispatch executes tx against ws and returns its receipt. A
	// reverted transaction must not return an error that aborts the
	// batch — revert is a TxReceipt outcome, not a Go error.
	Dispatch(tx []byte, ws WorkingSet) (TxReceipt, error)

	// PreBatchHook runs once before any transaction in the block is
	// dispatched.
	PreBatchHook(ws WorkingSet) error

	// PostBatchHook runs once after every transaction in the block has
	// been dispatched and the block's hash/signature checks have passed.
	PostBatchHook(ws WorkingSet) error

	// FinalizeHook runs after the new state root has been computed,
	// receiving the accessory working set for any off-chain-readable
	// bookkeeping.
	FinalizeHook(newRoot []byte, accessoryWs AccessoryWorkingSet) error
}

// Storage is the state-root-producing capability: it exclusively owns the
// committed trie for the duration of a block application.
type Storage interface {
	// ComputeStateUpdate folds cacheLog into the trie seeded by witness,
	// returning the new root, the storage-owned update to commit, and
	// the diff of changed keys.
	ComputeStateUpdate(cacheLog CacheLog, witness *Witness) (root []byte, update StateUpdate, diff StateDiff, err error)

	// Commit persists update and the accessory log produced by the
	// finalize hook.
	Commit(update StateUpdate, accessoryLog AccessoryLog) error

	// NewWitness derives a fresh witness from a prior witness seed,
	// ready to accumulate the next block's reads.
	NewWitness(seed Witness) Witness
}

// SignatureScheme verifies a sequencer's signature over a serialized
// block body.
type SignatureScheme interface {
	Verify(pubKey []byte, message []byte, sig []byte) bool
}

// Hasher produces the domain-separated 32-byte digest used for block
// hashing and signature message construction.
type Hasher interface {
	Hash(domain string, data []byte) [32]byte
}
