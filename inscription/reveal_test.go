package inscription

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func dummyLeafScript(t *testing.T) (script, controlBlock []byte) {
	t.Helper()
	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	script = []byte{0x51}
	leaf, err := buildTapLeaf(sk.PubKey(), script)
	require.NoError(t, err)
	return script, leaf.controlBlock
}

func TestBuildRevealTxFailsWhenInputTooSmall(t *testing.T) {
	recipient := testAddress(t, 3)
	_, cb := dummyLeafScript(t)

	// A 200-byte placeholder reveal script gives vsize 158, so the fee is
	// 158*75 = 11_850 and need = 12_396, more than the 10_000 input.
	_, err := buildRevealTx(
		chainhash.Hash{}, 0, 10_000, recipient, 546, 75.0, make([]byte, 200), cb)
	require.ErrorIs(t, err, ErrInputTooSmall)
}

func TestBuildRevealTxSucceedsWithEnoughValue(t *testing.T) {
	recipient := testAddress(t, 3)
	script, cb := dummyLeafScript(t)

	tx, err := buildRevealTx(
		chainhash.Hash{}, 0, 1_000_000, recipient, 5000, 1.0, script, cb)
	require.NoError(t, err)
	require.Len(t, tx.TxIn, 1)
	require.Len(t, tx.TxOut, 1)
	require.Equal(t, int64(5000), tx.TxOut[0].Value)
}

func TestBuildRevealTxRejectsBelowDustEvenWhenFeeWouldFit(t *testing.T) {
	recipient := testAddress(t, 3)
	script, cb := dummyLeafScript(t)

	// Input covers output+fee comfortably but is itself below the dust
	// floor; spec.md §4.2.2 step 4's first conjunct still fires.
	_, err := buildRevealTx(
		chainhash.Hash{}, 0, REVEAL_OUTPUT_AMOUNT-1, recipient, 0, 0.0, script, cb)
	require.ErrorIs(t, err, ErrInputTooSmall)
}
