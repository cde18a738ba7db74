package inscription

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
)

// scriptPrefix builds the reveal script through the "random" tag, before
// the nonce (spec.md §4.2 step 2). The PoW loop appends the rest each
// iteration via appendNonceAndBody.
func scriptPrefix(internalKey *btcec.PublicKey, rollupName string, signature, sequencerPubKey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(internalKey)).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_FALSE).
		AddOp(txscript.OP_IF).
		AddData(tagRollupName).
		AddData([]byte(rollupName)).
		AddData(tagSignature).
		AddData(signature).
		AddData(tagPublicKey).
		AddData(sequencerPubKey).
		AddData(tagRandom).
		Script()
}

// appendNonceAndBody extends prefix with push_int(nonce), the body tag, the
// body in <=520-byte chunks, and OP_ENDIF (spec.md §4.2 step 3a). The tree
// and control block must be rebuilt from the resulting script on every
// nonce: the leaf hash commits to the whole script, nonce included.
func appendNonceAndBody(prefix []byte, nonce int64, body []byte) ([]byte, error) {
	b := txscript.NewScriptBuilder().AddInt64(nonce).AddData(tagBody)
	for i := 0; i < len(body); i += maxBodyChunk {
		end := i + maxBodyChunk
		if end > len(body) {
			end = len(body)
		}
		b.AddFullData(body[i:end])
	}
	suffix, err := b.Script()
	if err != nil {
		return nil, err
	}

	script := make([]byte, 0, len(prefix)+len(suffix)+1)
	script = append(script, prefix...)
	script = append(script, suffix...)
	script = append(script, txscript.OP_ENDIF)
	return script, nil
}

// tapLeafData is the taproot leaf, control block, merkle root, and output
// key for a single-leaf script-path tree over revealScript.
type tapLeafData struct {
	leaf         txscript.TapLeaf
	controlBlock []byte
	merkleRoot   [32]byte
	outputKey    *btcec.PublicKey
}

// buildTapLeaf derives the single-leaf taproot tree for revealScript
// spent via internalKey. With one leaf the control block's inclusion
// proof is empty and the leaf hash is the merkle root directly.
func buildTapLeaf(internalKey *btcec.PublicKey, revealScript []byte) (tapLeafData, error) {
	leaf := txscript.NewBaseTapLeaf(revealScript)
	tapHash := leaf.TapHash()

	outputKey := txscript.ComputeTaprootOutputKey(internalKey, tapHash[:])

	cb := txscript.ControlBlock{
		InternalKey:     internalKey,
		OutputKeyYIsOdd: outputKey.SerializeCompressed()[0] == 0x03,
		LeafVersion:     txscript.BaseLeafVersion,
	}
	raw, err := cb.ToBytes()
	if err != nil {
		return tapLeafData{}, err
	}

	var root [32]byte
	copy(root[:], tapHash[:])

	return tapLeafData{
		leaf:         leaf,
		controlBlock: raw,
		merkleRoot:   root,
		outputKey:    outputKey,
	}, nil
}
