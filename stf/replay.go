package stf

import (
	"github.com/bitrollup/stf/forkmgr"
	"github.com/bitrollup/stf/merkle"
)

// CommitmentInputs bundles the base-chain headers, soft confirmations, and
// storage witnesses associated with a single sequencer commitment, as
// described by spec.md §4.4.2 step 3's "headers, confs, wits" queues.
type CommitmentInputs struct {
	Headers       []BaseHeader
	Confirmations []*SoftConfirmationBlock
	Witnesses     []Witness
}

// ReplayParams bundles everything ReplayCommitmentRange needs beyond the
// ordered commitments and their per-commitment inputs.
type ReplayParams struct {
	Capabilities      Capabilities
	Schedule          []forkmgr.Activation
	SequencerPubKey   []byte
	InitialBatchHash  [32]byte
	PreRoot           []byte
	PreState          WorkingSet
	MigrationHandlers []forkmgr.MigrationHandler
}

// ReplayCommitmentRange implements spec.md §4.4.2 steps 2-6 over an
// already-filtered-and-sorted commitment range (step 1 is
// FilterAndSortCommitments, run by the caller before this entry point).
// commitments and inputs must be the same length and index-aligned.
func ReplayCommitmentRange(
	commitments []SequencerCommitment,
	inputs []CommitmentInputs,
	p ReplayParams,
) (finalRoot []byte, diff StateDiff, err error) {

	if len(commitments) != len(inputs) {
		return nil, nil, soundnessf("commitments/inputs length "+
			"mismatch: %d vs %d", len(commitments), len(inputs))
	}
	if len(commitments) == 0 {
		return p.PreRoot, StateDiff{}, nil
	}

	// Step 2: sequentiality.
	if err := CheckSequentiality(commitments); err != nil {
		return nil, nil, err
	}

	currentRoot := p.PreRoot
	cumulative := StateDiff{}
	prevBatchHash := p.InitialBatchHash

	l2Height := commitments[0].L2StartBlockNumber
	spec := forkmgr.ForkForHeight(p.Schedule, l2Height)
	fm := forkmgr.New(l2Height, spec, p.Schedule, p.MigrationHandlers...)

	for ci, commitment := range commitments {
		cin := inputs[ci]

		// Step 3: per-commitment header walk.
		if err := checkHeaderWalk(commitment, cin, prevBatchHash); err != nil {
			return nil, nil, err
		}

		// Step 4: merkle check.
		leaves := make([][32]byte, len(cin.Confirmations))
		for i, conf := range cin.Confirmations {
			leaves[i] = conf.Hash
		}
		gotRoot := merkle.Root(leaves)
		if gotRoot != commitment.MerkleRoot {
			return nil, nil, soundnessf("commitment %d merkle "+
				"root mismatch: computed %x, want %x", ci,
				gotRoot, commitment.MerkleRoot)
		}

		// Step 5: replay.
		for wi, conf := range cin.Confirmations {
			header, ok := headerForHeight(cin.Headers, conf.DaSlotHeight)
			if !ok {
				return nil, nil, soundnessf("commitment %d "+
					"confirmation %d: no header for "+
					"da_slot_height %d", ci, wi,
					conf.DaSlotHeight)
			}

			result, err := ApplySoftConfirmation(
				p.Capabilities, spec, p.SequencerPubKey,
				currentRoot, p.PreState, cin.Witnesses[wi],
				header, conf,
			)
			if err != nil {
				return nil, nil, err
			}

			currentRoot = result.StateRoot
			cumulative.Merge(result.StateDiff)

			if err := fm.RegisterBlock(l2Height); err != nil {
				return nil, nil, soundnessf("fork activation at "+
					"l2 height %d failed: %v", l2Height, err)
			}
			spec = fm.ActiveFork()
			l2Height++
		}

		if l2Height-1 != commitment.L2EndBlockNumber {
			return nil, nil, soundnessf("commitment %d ended at "+
				"l2 height %d, expected %d", ci, l2Height-1,
				commitment.L2EndBlockNumber)
		}

		prevBatchHash = cin.Confirmations[len(cin.Confirmations)-1].Hash
	}

	return currentRoot, cumulative, nil
}

// headerForHeight returns the header whose Height matches h.
func headerForHeight(headers []BaseHeader, h uint64) (BaseHeader, bool) {
	for _, hdr := range headers {
		if hdr.Height == h {
			return hdr, true
		}
	}
	return BaseHeader{}, false
}

// checkHeaderWalk implements spec.md §4.4.2 step 3: confirmation 0 is
// checked directly against headers[0] and prevBatchHash; each subsequent
// confirmation either matches the current header pointer or forces it
// forward by exactly one linked header, and every header must end up
// justified by some confirmation.
func checkHeaderWalk(commitment SequencerCommitment, cin CommitmentInputs, prevBatchHash [32]byte) error {
	headers, confs := cin.Headers, cin.Confirmations
	if len(headers) == 0 || len(confs) == 0 {
		return soundnessf("commitment [%d,%d]: empty headers or "+
			"confirmations", commitment.L2StartBlockNumber,
			commitment.L2EndBlockNumber)
	}

	if confs[0].PrevHash != prevBatchHash {
		return soundnessf("confirmation 0 prev_hash does not chain "+
			"from the prior batch hash")
	}
	if confs[0].DaSlotHash != headers[0].Hash {
		return soundnessf("confirmation 0 da_slot_hash does not "+
			"match headers[0].hash")
	}
	if confs[0].DaSlotHeight != headers[0].Height {
		return soundnessf("confirmation 0 da_slot_height does not "+
			"match headers[0].height")
	}
	runningPrevHash := confs[0].Hash

	ih := 0
	for ic := 1; ic < len(confs); ic++ {
		conf := confs[ic]
		for {
			if conf.DaSlotHash == headers[ih].Hash {
				if conf.DaSlotHeight != headers[ih].Height {
					return soundnessf("confirmation %d "+
						"da_slot_height does not "+
						"match matched header's "+
						"height", ic)
				}
				if conf.PrevHash != runningPrevHash {
					return soundnessf("confirmation %d "+
						"prev_hash does not chain "+
						"from the previous "+
						"confirmation's hash", ic)
				}
				runningPrevHash = conf.Hash
				break
			}

			ih++
			if ih >= len(headers) {
				return soundnessf("confirmation %d matches "+
					"no header in the base-chain slice", ic)
			}
			if headers[ih].Height != headers[ih-1].Height+1 {
				return soundnessf("header %d height does "+
					"not follow header %d by one", ih, ih-1)
			}
			if headers[ih].PrevHash != headers[ih-1].Hash {
				return soundnessf("header %d prev_hash does "+
					"not chain from header %d", ih, ih-1)
			}
			if conf.DaSlotHash != headers[ih].Hash {
				return soundnessf("confirmation %d does not "+
					"match header %d after advancing the "+
					"header pointer", ic, ih)
			}
		}
	}

	if ih != len(headers)-1 {
		return soundnessf("not every base-chain header was "+
			"justified by a confirmation: stopped at %d of %d",
			ih, len(headers)-1)
	}
	return nil
}
