package inscription

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

func TestScriptPrefixThenAppendRoundTripsThroughParser(t *testing.T) {
	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	signature := bytes64(0xAA)
	seqPubKey := bytes64(0xBB)[:33]
	body := make([]byte, 1200) // spans three 520-byte chunks
	for i := range body {
		body[i] = byte(i)
	}

	prefix, err := scriptPrefix(sk.PubKey(), "test_rollup", signature, seqPubKey)
	require.NoError(t, err)

	script, err := appendNonceAndBody(prefix, 42, body)
	require.NoError(t, err)

	revealed, err := ParseRevealScript(script)
	require.NoError(t, err)
	require.Equal(t, "test_rollup", revealed.RollupName)
	require.Equal(t, signature, revealed.Signature)
	require.Equal(t, seqPubKey, revealed.SequencerPubKey)
	require.Equal(t, body, revealed.Body)
}

func TestBuildTapLeafIsDeterministicForSameScript(t *testing.T) {
	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	script := []byte{txscript.OP_TRUE}
	a, err := buildTapLeaf(sk.PubKey(), script)
	require.NoError(t, err)
	b, err := buildTapLeaf(sk.PubKey(), script)
	require.NoError(t, err)

	require.Equal(t, a.merkleRoot, b.merkleRoot)
	require.Equal(t, a.controlBlock, b.controlBlock)
}

func TestBuildTapLeafChangesWithScript(t *testing.T) {
	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	a, err := buildTapLeaf(sk.PubKey(), []byte{txscript.OP_TRUE})
	require.NoError(t, err)
	b, err := buildTapLeaf(sk.PubKey(), []byte{txscript.OP_FALSE})
	require.NoError(t, err)

	require.NotEqual(t, a.merkleRoot, b.merkleRoot,
		"the leaf hash commits to the whole script, nonce included")
}

func bytes64(b byte) []byte {
	out := make([]byte, 64)
	for i := range out {
		out[i] = b
	}
	return out
}
