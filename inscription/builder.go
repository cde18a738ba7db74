package inscription

import (
	"bytes"
	"fmt"

	"github.com/bitrollup/stf/selector"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Params bundles the inputs to Build (spec.md §4.2's build operation
// signature).
type Params struct {
	RollupName      string
	Body            []byte
	BlobSignature   []byte
	SequencerPubKey []byte

	PrevTx *wire.MsgTx
	UTXOs  []selector.UTXO

	Recipient   btcutil.Address
	ChangeAddr  btcutil.Address
	RevealValue int64

	CommitFeeRate float64
	RevealFeeRate float64

	Network      *chaincfg.Params
	RevealPrefix []byte

	// Workers bounds how many nonce strides grind concurrently (spec.md
	// §5: the PoW loop MAY be parallelized by nonce stride). Zero or one
	// runs the sequential, single-goroutine grind.
	Workers int
}

// Result is the output of Build: the funding commit transaction and the
// reveal transaction, keyed by its txid.
type Result struct {
	CommitTx *wire.MsgTx
	RevealID chainhash.Hash
	RevealTx *wire.MsgTx
}

// Build implements spec.md §4.2's build operation end to end: key
// generation, PoW nonce grinding, script-path signing, and the final
// address sanity check.
func Build(p Params) (Result, error) {
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		return Result{}, fmt.Errorf("generating inscription keypair: %w", err)
	}
	pk := sk.PubKey()

	prefix, err := scriptPrefix(pk, p.RollupName, p.BlobSignature, p.SequencerPubKey)
	if err != nil {
		return Result{}, fmt.Errorf("building script prefix: %w", err)
	}

	grind, err := grindNonce(grindParams{
		internalKey:   pk,
		prefix:        prefix,
		body:          p.Body,
		prevTx:        p.PrevTx,
		pool:          p.UTXOs,
		net:           p.Network,
		recipient:     p.Recipient,
		changeAddr:    p.ChangeAddr,
		revealValue:   p.RevealValue,
		commitFeeRate: p.CommitFeeRate,
		revealFeeRate: p.RevealFeeRate,
		revealPrefix:  p.RevealPrefix,
	}, p.Workers)
	if err != nil {
		return Result{}, err
	}

	if err := signReveal(sk, grind); err != nil {
		return Result{}, err
	}

	if err := sanityCheckAddress(pk, grind, p.Network); err != nil {
		return Result{}, err
	}

	return Result{
		CommitTx: grind.commitTx,
		RevealID: grind.revealTxid,
		RevealTx: grind.revealTx,
	}, nil
}

// signReveal implements spec.md §4.2 step 4: a taproot script-path sighash
// over the reveal input, signed with sk, the witness assembled as
// [sig, reveal_script, control_block].
func signReveal(sk *btcec.PrivateKey, grind grindResult) error {
	prevOut := grind.commitTx.TxOut[0]
	fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
	sigHashes := txscript.NewTxSigHashes(grind.revealTx, fetcher)

	sigHash, err := txscript.CalcTapscriptSignaturehash(
		sigHashes, txscript.SigHashDefault, grind.revealTx, 0, fetcher,
		grind.leaf.leaf,
	)
	if err != nil {
		return fmt.Errorf("computing tapscript sighash: %w", err)
	}

	sig, err := schnorr.Sign(sk, sigHash)
	if err != nil {
		return fmt.Errorf("signing reveal: %w", err)
	}

	grind.revealTx.TxIn[0].Witness = wire.TxWitness{
		sig.Serialize(),
		grind.script,
		grind.leaf.controlBlock,
	}
	return nil
}

// sanityCheckAddress implements spec.md §4.2 step 5: the tweaked public
// key derived from sk under the merkle root must yield the same P2TR
// address as the commit output's script_pubkey.
func sanityCheckAddress(internalKey *btcec.PublicKey, grind grindResult, net *chaincfg.Params) error {
	outputKey := txscript.ComputeTaprootOutputKey(internalKey, grind.leaf.merkleRoot[:])
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), net)
	if err != nil {
		return fmt.Errorf("deriving sanity-check address: %w", err)
	}
	wantScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return fmt.Errorf("building sanity-check script: %w", err)
	}
	if !bytes.Equal(wantScript, grind.commitTx.TxOut[0].PkScript) {
		return fmt.Errorf("sanity check failed: tweaked key does not " +
			"match commit output's script_pubkey")
	}
	return nil
}
