package inscription

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/bitrollup/stf/selector"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// grindResult bundles everything the PoW loop converges on: the winning
// nonce, the final reveal script and its taproot leaf data, and the real
// commit/reveal transactions built against that nonce.
type grindResult struct {
	nonce      int64
	script     []byte
	leaf       tapLeafData
	commitTx   *wire.MsgTx
	revealTx   *wire.MsgTx
	revealTxid chainhash.Hash
}

// grindParams holds everything a nonce attempt needs that stays fixed
// across the whole grind, so a single value can be shared read-only
// across worker goroutines.
type grindParams struct {
	internalKey *btcec.PublicKey
	prefix      []byte
	body        []byte

	prevTx *wire.MsgTx
	pool   []selector.UTXO
	net    *chaincfg.Params

	recipient  btcutil.Address
	changeAddr btcutil.Address

	revealValue   int64
	commitFeeRate float64
	revealFeeRate float64
	revealPrefix  []byte
}

// revealTxidBigEndian returns the reveal txid's conventional display byte
// order (reversed from the internal double-SHA256 order), matching how
// reveal_prefix is specified (spec.md §4.2 step 3g).
func revealTxidBigEndian(h chainhash.Hash) [chainhash.HashSize]byte {
	var out [chainhash.HashSize]byte
	for i := range h {
		out[i] = h[chainhash.HashSize-1-i]
	}
	return out
}

// attemptNonce implements spec.md §4.2 steps 3a-3g for a single nonce:
// rebuild the reveal script and taproot tree from scratch (the leaf hash
// commits to the whole script, so nothing from a prior nonce can be
// reused), size a dummy reveal tx to derive commit_value, build the real
// commit and reveal transactions, and check the reveal txid's prefix. The
// bool return reports whether the nonce satisfied revealPrefix.
func attemptNonce(p grindParams, nonce int64) (grindResult, bool, error) {
	script, err := appendNonceAndBody(p.prefix, nonce, p.body)
	if err != nil {
		return grindResult{}, false, err
	}

	leaf, err := buildTapLeaf(p.internalKey, script)
	if err != nil {
		return grindResult{}, false, err
	}

	commitAddr, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(leaf.outputKey), p.net)
	if err != nil {
		return grindResult{}, false, err
	}

	dummyReveal, err := buildRevealTx(
		chainhash.Hash{}, 0, 1<<62, p.recipient, p.revealValue,
		p.revealFeeRate, leaf.leaf.Script, leaf.controlBlock)
	if err != nil {
		return grindResult{}, false, err
	}
	revealVSize := txVirtualSize(dummyReveal)
	commitValue := ceilFee(revealVSize, p.revealFeeRate) + p.revealValue

	commitTx, err := buildCommitTx(
		p.prevTx, p.pool, commitAddr, p.changeAddr,
		commitValue, p.commitFeeRate)
	if err != nil {
		return grindResult{}, false, err
	}

	commitTxid := commitTx.TxHash()
	revealTx, err := buildRevealTx(
		commitTxid, 0, commitTx.TxOut[0].Value, p.recipient,
		p.revealValue, p.revealFeeRate, leaf.leaf.Script,
		leaf.controlBlock)
	if err != nil {
		return grindResult{}, false, err
	}

	revealTxid := revealTx.TxHash()
	display := revealTxidBigEndian(revealTxid)
	if !bytes.HasPrefix(display[:], p.revealPrefix) {
		return grindResult{}, false, nil
	}

	return grindResult{
		nonce:      nonce,
		script:     script,
		leaf:       leaf,
		commitTx:   commitTx,
		revealTx:   revealTx,
		revealTxid: revealTxid,
	}, true, nil
}

// grindNonce drives attemptNonce to convergence. With workers <= 1 it
// scans nonces sequentially in a single goroutine. With workers > 1 it
// splits the nonce space into workers interleaved strides (spec.md §5's
// "MAY be parallelized by nonce stride"), running them concurrently and
// returning whichever stride finds a match first; every input here is
// read-only across goroutines, so no further synchronization is needed
// beyond the result handoff.
func grindNonce(p grindParams, workers int) (grindResult, error) {
	if workers < 2 {
		return grindStride(p, 0, 1, nil)
	}
	return grindParallel(p, workers)
}

// grindStride scans nonces start, start+stride, start+2*stride, ... until
// a match is found or stop is closed. stop may be nil for the unstrided,
// single-worker case.
func grindStride(p grindParams, start, stride int64, stop <-chan struct{}) (grindResult, error) {
	for nonce := start; ; nonce += stride {
		if stop != nil {
			select {
			case <-stop:
				return grindResult{}, errGrindStopped
			default:
			}
		}

		if nonce > 0 && nonce%nonceWarnThreshold == 0 {
			log.Warnf("inscription PoW: %d nonce attempts without a "+
				"match (stride start %d)", nonce, start)
		}

		result, ok, err := attemptNonce(p, nonce)
		if err != nil {
			return grindResult{}, err
		}
		if ok {
			return result, nil
		}
	}
}

// errGrindStopped signals a stride that lost the race to another worker;
// it never escapes grindParallel.
var errGrindStopped = fmt.Errorf("inscription PoW: stride stopped")

// grindParallel runs workers concurrent grindStride calls over disjoint,
// interleaved nonce strides and returns the first real match. Losing
// strides are cancelled via the shared stop channel as soon as a winner
// is found.
func grindParallel(p grindParams, workers int) (grindResult, error) {
	type outcome struct {
		result grindResult
		err    error
	}

	stop := make(chan struct{})
	var stopOnce sync.Once
	results := make(chan outcome, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(start int64) {
			defer wg.Done()
			result, err := grindStride(p, start, int64(workers), stop)
			if err == errGrindStopped {
				return
			}
			stopOnce.Do(func() { close(stop) })
			results <- outcome{result: result, err: err}
		}(int64(w))
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out, ok := <-results
	if !ok {
		return grindResult{}, fmt.Errorf("inscription PoW: no worker produced a result")
	}
	return out.result, out.err
}
