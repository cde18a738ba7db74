package inscription

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ErrInputTooSmall is returned when the input UTXO funding a reveal
// transaction cannot cover both the dust floor and the computed fee
// (spec.md §4.2.2 step 4).
var ErrInputTooSmall = errors.New("input UTXO not big enough")

// buildRevealTx implements spec.md §4.2.2. inputTxid/inputVout/inputValue
// describe the UTXO being spent (commit output 0 once the commit tx is
// known, or a zero outpoint with an oversized placeholder value during the
// PoW vsize estimate in step 3d of §4.2).
func buildRevealTx(inputTxid chainhash.Hash, inputVout uint32, inputValue int64, recipient btcutil.Address, outputValue int64, feeRate float64, revealScript, controlBlock []byte) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(defaultTxVersion)

	in := wire.NewTxIn(&wire.OutPoint{Hash: inputTxid, Index: inputVout}, nil, nil)
	in.Sequence = enableRBFNoLocktime
	tx.AddTxIn(in)

	recipientScript, err := txscript.PayToAddrScript(recipient)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(wire.NewTxOut(outputValue, recipientScript))

	dummySig := make([]byte, 64)
	tx.TxIn[0].Witness = wire.TxWitness{dummySig, revealScript, controlBlock}

	vsize := txVirtualSize(tx)
	fee := ceilFee(vsize, feeRate)
	need := outputValue + fee

	if inputValue < REVEAL_OUTPUT_AMOUNT || inputValue < need {
		return nil, ErrInputTooSmall
	}

	return tx, nil
}
