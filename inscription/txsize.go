package inscription

import (
	"math"

	"github.com/btcsuite/btcd/wire"
)

// witnessScaleFactor matches Bitcoin Core's weight discount for witness
// data (spec.md §4.2.1's vsize measurements rely on it transitively).
const witnessScaleFactor = 4

// txVirtualSize computes a transaction's vsize the same way
// blockchain.GetTransactionWeight / GetTxVirtualSize do: weight is three
// parts stripped size plus one part full size, vsize is weight/4 rounded
// up.
func txVirtualSize(tx *wire.MsgTx) int64 {
	baseSize := int64(tx.SerializeSizeStripped())
	totalSize := int64(tx.SerializeSize())
	weight := baseSize*(witnessScaleFactor-1) + totalSize
	return (weight + witnessScaleFactor - 1) / witnessScaleFactor
}

// ceilFee rounds vsize*feeRate up to the nearest base unit.
func ceilFee(vsize int64, feeRate float64) int64 {
	return int64(math.Ceil(float64(vsize) * feeRate))
}
