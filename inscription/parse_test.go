package inscription

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

func TestParseRevealScriptRejectsWrongTag(t *testing.T) {
	script, err := txscript.NewScriptBuilder().
		AddData(make([]byte, 32)).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_FALSE).
		AddOp(txscript.OP_IF).
		AddData([]byte("not_rollup_name")).
		AddData([]byte("whatever")).
		Script()
	require.NoError(t, err)

	_, err = ParseRevealScript(script)
	require.Error(t, err)
}

func TestParseRevealScriptRejectsTruncatedScript(t *testing.T) {
	script, err := txscript.NewScriptBuilder().
		AddData(make([]byte, 32)).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)

	_, err = ParseRevealScript(script)
	require.Error(t, err)
}

func TestParseRevealScriptHandlesEmptyBody(t *testing.T) {
	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	prefix, err := scriptPrefix(sk.PubKey(), "r", []byte("sig"), []byte("pk"))
	require.NoError(t, err)
	script, err := appendNonceAndBody(prefix, 0, nil)
	require.NoError(t, err)

	revealed, err := ParseRevealScript(script)
	require.NoError(t, err)
	require.Equal(t, "r", revealed.RollupName)
	require.Empty(t, revealed.Body)
}
