package stf

import "sort"

// SequencerCommitment is a Merkle commitment over a contiguous range of
// soft-confirmation hashes, posted on the base chain (spec.md §3).
type SequencerCommitment struct {
	L2StartBlockNumber uint64
	L2EndBlockNumber   uint64
	MerkleRoot         [32]byte
}

// less implements the total order over (l2_start, l2_end, merkle_root)
// spec.md §4.4.2 step 1 requires for sorting decoded commitments.
func (c SequencerCommitment) less(other SequencerCommitment) bool {
	if c.L2StartBlockNumber != other.L2StartBlockNumber {
		return c.L2StartBlockNumber < other.L2StartBlockNumber
	}
	if c.L2EndBlockNumber != other.L2EndBlockNumber {
		return c.L2EndBlockNumber < other.L2EndBlockNumber
	}
	for i := range c.MerkleRoot {
		if c.MerkleRoot[i] != other.MerkleRoot[i] {
			return c.MerkleRoot[i] < other.MerkleRoot[i]
		}
	}
	return false
}

// daDataTag mirrors the tagged-union discriminant in a DA blob's wire
// format (spec.md §6): only TagSequencerCommitment is meaningful here,
// every other tag is ignored.
type daDataTag uint8

const TagSequencerCommitment daDataTag = 1

// Blob is a single base-chain transaction's payload, as extracted by the
// (out-of-scope) blob layer, tagged with the DA-level sender address that
// posted it.
type Blob struct {
	Sender  []byte
	Payload []byte
}

// DecodeSequencerCommitment parses a blob payload's tagged-union wire
// shape and returns the SequencerCommitment it carries, or ok=false if the
// leading tag is anything other than TagSequencerCommitment.
func DecodeSequencerCommitment(payload []byte) (commitment SequencerCommitment, ok bool) {
	if len(payload) < 1+8+8+32 {
		return SequencerCommitment{}, false
	}
	if daDataTag(payload[0]) != TagSequencerCommitment {
		return SequencerCommitment{}, false
	}
	off := 1
	start := beUint64(payload[off:])
	off += 8
	end := beUint64(payload[off:])
	off += 8
	var root [32]byte
	copy(root[:], payload[off:off+32])

	return SequencerCommitment{
		L2StartBlockNumber: start,
		L2EndBlockNumber:   end,
		MerkleRoot:         root,
	}, true
}

func beUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// FilterAndSortCommitments implements spec.md §4.4.2 step 1: retain only
// blobs sent by expectedSequencer, decode each, keep only
// SequencerCommitment variants, and sort ascending by the total order over
// (l2_start, l2_end, merkle_root).
func FilterAndSortCommitments(blobs []Blob, expectedSequencer []byte) []SequencerCommitment {
	var out []SequencerCommitment
	for _, b := range blobs {
		if !bytesEqual(b.Sender, expectedSequencer) {
			continue
		}
		if c, ok := DecodeSequencerCommitment(b.Payload); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].less(out[j])
	})
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CheckSequentiality asserts spec.md §4.4.2 step 2: every commitment after
// the first starts exactly where the previous one ended. Returns a
// *SoundnessError on the first violation.
func CheckSequentiality(commitments []SequencerCommitment) error {
	for i := 1; i < len(commitments); i++ {
		prev, cur := commitments[i-1], commitments[i]
		if cur.L2StartBlockNumber != prev.L2EndBlockNumber+1 {
			return soundnessf("commitment %d starts at %d, "+
				"expected %d (one past commitment %d's end "+
				"%d)", i, cur.L2StartBlockNumber,
				prev.L2EndBlockNumber+1, i-1,
				prev.L2EndBlockNumber)
		}
	}
	return nil
}
