package inscription

import (
	"github.com/bitrollup/stf/selector"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// stubCommitVSize estimates the size of a not-yet-built commit transaction
// before any inputs are chosen (spec.md §4.2.1 step 2): one input with a
// taproot key-path-sized witness stub, one P2TR-sized output. The coin
// pool's UTXOs don't carry enough type information to model per-input
// witness sizes exactly, so every chosen input is costed as a taproot
// key-path spend; this keeps the fee loop deterministic and convergent
// without over- or under-shooting by more than a rounding input or two.
func stubCommitVSize() int64 {
	tx := wire.NewMsgTx(defaultTxVersion)
	addStubInput(tx)
	tx.AddTxOut(wire.NewTxOut(0, make([]byte, 34)))
	return txVirtualSize(tx)
}

func addStubInput(tx *wire.MsgTx) {
	in := wire.NewTxIn(&wire.OutPoint{}, nil, nil)
	in.Sequence = enableRBFNoLocktime
	in.Witness = wire.TxWitness{make([]byte, 64)}
	tx.AddTxIn(in)
}

func addChosenInput(tx *wire.MsgTx, u selector.UTXO) {
	in := wire.NewTxIn(&wire.OutPoint{Hash: u.TxID, Index: u.Vout}, nil, nil)
	in.Sequence = enableRBFNoLocktime
	in.Witness = wire.TxWitness{make([]byte, 64)}
	tx.AddTxIn(in)
}

// buildCommitTx implements spec.md §4.2.1. prevTx, if non-nil, contributes
// a required input referencing its output 0.
func buildCommitTx(prevTx *wire.MsgTx, pool []selector.UTXO, commitAddr, changeAddr btcutil.Address, outputValue int64, feeRate float64) (*wire.MsgTx, error) {
	pool = append([]selector.UTXO(nil), pool...)

	var required *selector.UTXO
	if prevTx != nil {
		txHash := prevTx.TxHash()
		req := selector.UTXO{
			TxID:         txHash,
			Vout:         0,
			Amount:       uint64(prevTx.TxOut[0].Value),
			ScriptPubKey: prevTx.TxOut[0].PkScript,
		}
		required = &req
		pool = removeOutpoint(pool, req.TxID, req.Vout)
	}

	commitScript, err := txscript.PayToAddrScript(commitAddr)
	if err != nil {
		return nil, err
	}
	changeScript, err := txscript.PayToAddrScript(changeAddr)
	if err != nil {
		return nil, err
	}

	lastSize := stubCommitVSize()

	for iterations := 0; ; iterations++ {
		if iterations == feeWarnThreshold {
			log.Warnf("commit builder: fee convergence loop still "+
				"running after %d iterations", iterations)
		}

		fee := ceilFee(lastSize, feeRate)
		need := outputValue + fee

		chosen, sum, err := selector.Choose(required, pool, uint64(need))
		if err != nil {
			return nil, err
		}

		tx := wire.NewMsgTx(defaultTxVersion)
		for _, u := range chosen {
			addChosenInput(tx, u)
		}
		tx.AddTxOut(wire.NewTxOut(outputValue, commitScript))

		change := int64(sum) - need
		if change < REVEAL_OUTPUT_AMOUNT {
			// Direct return: no further size iteration once change
			// would be dust.
			return tx, nil
		}

		tx.AddTxOut(wire.NewTxOut(change, changeScript))
		vsize := txVirtualSize(tx)
		if vsize == lastSize {
			return tx, nil
		}
		lastSize = vsize
	}
}

// removeOutpoint drops the pool entry matching (txID, vout) exactly,
// leaving any sibling output of the same transaction untouched.
func removeOutpoint(pool []selector.UTXO, txID [32]byte, vout uint32) []selector.UTXO {
	out := pool[:0]
	for _, u := range pool {
		if u.TxID == txID && u.Vout == vout {
			continue
		}
		out = append(out, u)
	}
	return out
}
