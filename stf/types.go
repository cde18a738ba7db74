package stf

// SoftConfirmationBlock is a sequencer-signed rollup block not yet
// finalized on the base chain (spec.md §3).
type SoftConfirmationBlock struct {
	DaSlotHeight        uint64
	DaSlotHash          [32]byte
	DaSlotTxsCommitment [32]byte
	PrevHash            [32]byte
	Hash                [32]byte
	Txs                 [][]byte
	DepositData         []byte
	L1FeeRate           uint64
	Timestamp           uint64
	SequencerPubKey     []byte
	Signature           []byte
	// L2Height is the rollup block's own height. It is not part of the
	// canonical serialization, and ReplayCommitmentRange does not read
	// it: the replay loop counts heights from the commitment's l2 start.
	L2Height uint64
}

// BaseHeader is the subset of a base-chain block header the STF checks a
// soft confirmation against.
type BaseHeader struct {
	Height         uint64
	Hash           [32]byte
	PrevHash       [32]byte
	TxsCommitment  [32]byte
}

// SlotResult is the outcome of applying one soft confirmation (spec.md
// §4.4.1 step 4 / §7). BatchReceipts is empty on a rejected block, with
// StateRoot left equal to the pre-application root.
type SlotResult struct {
	StateRoot     []byte
	Witness       Witness
	StateDiff     StateDiff
	BatchReceipts []TxReceipt
}

// rejected builds the empty SlotResult returned when Begin/End assertions
// fail: the working set is discarded and the root is unchanged.
func rejected(preRoot []byte) SlotResult {
	return SlotResult{
		StateRoot:     preRoot,
		BatchReceipts: nil,
		StateDiff:     StateDiff{},
	}
}

// canonicalUnsignedFields is the wire-ordered serialization of a soft
// confirmation's unsigned fields, used both to derive Hash and as the
// message signed by the sequencer. The field order matches the struct
// declaration order of SoftConfirmationBlock above, excluding Hash,
// Signature and L2Height.
func canonicalUnsignedFields(b *SoftConfirmationBlock) []byte {
	buf := make([]byte, 0, 128+len(b.DepositData)+sumLens(b.Txs))

	buf = appendUint64(buf, b.DaSlotHeight)
	buf = append(buf, b.DaSlotHash[:]...)
	buf = append(buf, b.DaSlotTxsCommitment[:]...)
	buf = append(buf, b.PrevHash[:]...)
	buf = appendUint32(buf, uint32(len(b.Txs)))
	for _, tx := range b.Txs {
		buf = appendUint32(buf, uint32(len(tx)))
		buf = append(buf, tx...)
	}
	buf = appendUint32(buf, uint32(len(b.DepositData)))
	buf = append(buf, b.DepositData...)
	buf = appendUint64(buf, b.L1FeeRate)
	buf = appendUint64(buf, b.Timestamp)
	buf = appendUint32(buf, uint32(len(b.SequencerPubKey)))
	buf = append(buf, b.SequencerPubKey...)

	return buf
}

func sumLens(txs [][]byte) int {
	n := 0
	for _, tx := range txs {
		n += len(tx) + 4
	}
	return n
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
