package stf

import (
	"bytes"
	"fmt"

	"github.com/bitrollup/stf/forkmgr"
)

// Capabilities bundles the external collaborators ApplySoftConfirmation
// needs: the module runtime, the storage backend, the signature scheme,
// and the hasher (spec.md §4.4).
type Capabilities struct {
	Runtime   Runtime
	Storage   Storage
	Sigs      SignatureScheme
	Hasher    Hasher
	ZkMode    bool
}

// ApplySoftConfirmation runs the per-block pipeline of spec.md §4.4.1:
// Begin, apply txs, End, Finalize. On any Begin/End assertion failure the
// working set is discarded and an empty SlotResult is returned with the
// root unchanged; ZkMode governs whether that failure additionally
// surfaces as a *SoundnessError (zk-proving path, where soundness gates
// must abort) or is merely logged and skipped (native sequencer path).
func ApplySoftConfirmation(
	caps Capabilities,
	spec forkmgr.SpecID,
	seqPubKey []byte,
	preRoot []byte,
	preState WorkingSet,
	witness Witness,
	header BaseHeader,
	block *SoftConfirmationBlock,
) (SlotResult, error) {

	// --- Begin ---
	if !bytes.Equal(block.SequencerPubKey, seqPubKey) {
		return caps.fail(preRoot, "block sequencer_pub_key does not "+
			"match expected sequencer")
	}
	if block.DaSlotHash != header.Hash {
		return caps.fail(preRoot, "block da_slot_hash does not match "+
			"base header hash")
	}
	if block.DaSlotTxsCommitment != header.TxsCommitment {
		return caps.fail(preRoot, "block da_slot_txs_commitment does "+
			"not match base header txs commitment")
	}

	if err := caps.Runtime.PreBatchHook(preState); err != nil {
		log.Warnf("pre-batch hook failed at spec %d: %v", spec, err)
		return rejected(preRoot), fmt.Errorf("%w: %v", ErrApplySoftConfirmation, err)
	}

	// --- Apply txs ---
	receipts := make([]TxReceipt, 0, len(block.Txs))
	for _, tx := range block.Txs {
		receipt, err := caps.Runtime.Dispatch(tx, preState)
		if err != nil {
			log.Warnf("dispatch failed at spec %d: %v", spec, err)
			return rejected(preRoot), fmt.Errorf("%w: %v", ErrApplySoftConfirmation, err)
		}
		receipts = append(receipts, receipt)
	}

	// --- End ---
	serialized := canonicalUnsignedFields(block)
	gotHash := caps.Hasher.Hash("soft-confirmation", serialized)
	if gotHash != block.Hash {
		return caps.fail(preRoot, "block hash does not match "+
			"canonical serialization of unsigned fields")
	}
	if !caps.Sigs.Verify(seqPubKey, serialized, block.Signature) {
		return caps.fail(preRoot, "sequencer signature does not "+
			"verify over canonical serialization")
	}

	if err := caps.Runtime.PostBatchHook(preState); err != nil {
		log.Warnf("post-batch hook failed at spec %d: %v", spec, err)
		return rejected(preRoot), fmt.Errorf("%w: %v", ErrApplySoftConfirmation, err)
	}

	// --- Finalize ---
	newRoot, update, diff, err := caps.Storage.ComputeStateUpdate(preState, &witness)
	if err != nil {
		return rejected(preRoot), fmt.Errorf("%w: computing state "+
			"update: %v", ErrApplySoftConfirmation, err)
	}
	if err := caps.Runtime.FinalizeHook(newRoot, preState); err != nil {
		log.Warnf("finalize hook failed at spec %d: %v", spec, err)
		return rejected(preRoot), fmt.Errorf("%w: %v", ErrApplySoftConfirmation, err)
	}
	if err := caps.Storage.Commit(update, preState); err != nil {
		return rejected(preRoot), fmt.Errorf("%w: committing state "+
			"update: %v", ErrApplySoftConfirmation, err)
	}

	return SlotResult{
		StateRoot:     newRoot,
		Witness:       witness,
		StateDiff:     diff,
		BatchReceipts: receipts,
	}, nil
}

// fail builds the rejected SlotResult for a Begin/End assertion failure,
// escalating to a *SoundnessError in ZkMode since these particular checks
// (block/header correspondence, hash/signature validity) gate soundness
// per spec.md §4.4.1 and §7.
func (c Capabilities) fail(preRoot []byte, reason string) (SlotResult, error) {
	if c.ZkMode {
		return rejected(preRoot), soundnessf("%s", reason)
	}
	log.Errorf("soft confirmation rejected: %s", reason)
	return rejected(preRoot), nil
}
