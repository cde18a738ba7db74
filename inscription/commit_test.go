package inscription

import (
	"testing"

	"github.com/bitrollup/stf/selector"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func testAddress(t *testing.T, tag byte) btcutil.Address {
	t.Helper()
	hash := make([]byte, 20)
	hash[0] = tag
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	return addr
}

func TestBuildCommitTxDropsDustChange(t *testing.T) {
	commitAddr := testAddress(t, 1)
	changeAddr := testAddress(t, 2)

	pool := []selector.UTXO{
		{TxID: [32]byte{9}, Vout: 0, Amount: 5000 + REVEAL_OUTPUT_AMOUNT_U - 1},
	}

	tx, err := buildCommitTx(nil, pool, commitAddr, changeAddr, 5000, 0.0)
	require.NoError(t, err)
	require.Len(t, tx.TxOut, 1, "change below dust must collapse to a single output")
	require.Equal(t, int64(5000), tx.TxOut[0].Value)
}

func TestBuildCommitTxKeepsChangeAboveDust(t *testing.T) {
	commitAddr := testAddress(t, 1)
	changeAddr := testAddress(t, 2)

	pool := []selector.UTXO{
		{TxID: [32]byte{9}, Vout: 0, Amount: 5000 + REVEAL_OUTPUT_AMOUNT_U + 1000},
	}

	tx, err := buildCommitTx(nil, pool, commitAddr, changeAddr, 5000, 0.0)
	require.NoError(t, err)
	require.Len(t, tx.TxOut, 2)
	require.Equal(t, int64(5000), tx.TxOut[0].Value)
	require.Equal(t, int64(1546), tx.TxOut[1].Value)
}

func TestBuildCommitTxValueConservation(t *testing.T) {
	commitAddr := testAddress(t, 1)
	changeAddr := testAddress(t, 2)

	pool := []selector.UTXO{
		{TxID: [32]byte{1}, Vout: 0, Amount: 1_000_000},
		{TxID: [32]byte{2}, Vout: 0, Amount: 100_000},
		{TxID: [32]byte{3}, Vout: 0, Amount: 10_000},
	}

	tx, err := buildCommitTx(nil, pool, commitAddr, changeAddr, 5000, 8.0)
	require.NoError(t, err)

	inputSum := int64(0)
	byOutpoint := map[[32]byte]uint64{
		{1}: 1_000_000, {2}: 100_000, {3}: 10_000,
	}
	for _, in := range tx.TxIn {
		amt, ok := byOutpoint[in.PreviousOutPoint.Hash]
		require.True(t, ok, "every input must come from the supplied pool")
		inputSum += int64(amt)
	}

	outputSum := int64(0)
	for _, out := range tx.TxOut {
		outputSum += out.Value
	}

	declaredFee := ceilFee(txVirtualSize(tx), 8.0)
	actualFee := inputSum - outputSum
	require.GreaterOrEqual(t, actualFee, declaredFee)
	require.Less(t, actualFee, declaredFee+REVEAL_OUTPUT_AMOUNT,
		"any dropped change must be smaller than the dust threshold")
}

func TestBuildCommitTxUsesRequiredInputFromPrevTx(t *testing.T) {
	commitAddr := testAddress(t, 1)
	changeAddr := testAddress(t, 2)

	prevTx := wireStubTx(100_000)
	pool := []selector.UTXO{
		{TxID: [32]byte{2}, Vout: 0, Amount: 100_000},
	}

	tx, err := buildCommitTx(prevTx, pool, commitAddr, changeAddr, 5000, 0.0)
	require.NoError(t, err)
	require.Equal(t, prevTx.TxHash(), tx.TxIn[0].PreviousOutPoint.Hash,
		"required input from prevTx must be included first")
}

func TestRemoveOutpointKeepsSiblingVouts(t *testing.T) {
	pool := []selector.UTXO{
		{TxID: [32]byte{7}, Vout: 0, Amount: 1000},
		{TxID: [32]byte{7}, Vout: 1, Amount: 2000},
	}
	out := removeOutpoint(pool, [32]byte{7}, 0)
	require.Len(t, out, 1)
	require.Equal(t, uint32(1), out[0].Vout)
}

// REVEAL_OUTPUT_AMOUNT_U is REVEAL_OUTPUT_AMOUNT widened to uint64 for test
// pool-amount arithmetic.
const REVEAL_OUTPUT_AMOUNT_U = uint64(REVEAL_OUTPUT_AMOUNT)

func wireStubTx(outputValue int64) *wire.MsgTx {
	tx := wire.NewMsgTx(defaultTxVersion)
	tx.AddTxOut(wire.NewTxOut(outputValue, []byte{0x51}))
	return tx
}
