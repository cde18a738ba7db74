// Package inscription builds commit/reveal transaction pairs that embed an
// arbitrary body behind a taproot script-path spend, grinding the reveal
// txid against a proof-of-work prefix the way ordinal inscriptions do.
package inscription

import (
	"github.com/btcsuite/btclog"
)

var log = btclog.Disabled

// UseLogger sets the package-wide logger, following the chantools
// per-subsystem logger convention.
func UseLogger(logger btclog.Logger) {
	log = logger
}

const (
	defaultTxVersion   = 2
	enableRBFNoLocktime = 0xfffffffd

	// REVEAL_OUTPUT_AMOUNT is the dust threshold used both as the commit
	// builder's change-dust cutoff and as the reveal builder's minimum
	// input value (spec.md §4.2.1 step 3c, §4.2.2 step 4). The reveal
	// output's own value is Params.RevealValue.
	REVEAL_OUTPUT_AMOUNT = int64(546)

	maxBodyChunk = 520

	nonceWarnThreshold = 65536
	feeWarnThreshold   = 100
)

var (
	tagRollupName = []byte("rollup_name")
	tagSignature  = []byte("signature")
	tagPublicKey  = []byte("publickey")
	tagRandom     = []byte("random")
	tagBody       = []byte("body")
)
