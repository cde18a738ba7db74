// Package selector implements deterministic coin selection for the
// inscription builder's commit transaction: an optional mandatory input
// plus either a single best-fit UTXO or a largest-first greedy fallback.
package selector

import (
	"errors"
	"sort"

	"github.com/btcsuite/btclog"
)

// log is the package-level subsystem logger, wired up by UseLogger the way
// chantools' commands wire their own subsystem loggers off the root logger.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by Choose.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// ErrNotEnoughFunds is returned when the pool (plus the optional required
// input) cannot cover the requested target.
var ErrNotEnoughFunds = errors.New("not enough UTXOs")

// UTXO is an immutable, spendable output candidate for coin selection.
type UTXO struct {
	TxID          [32]byte
	Vout          uint32
	ScriptPubKey  []byte
	Amount        uint64
	Confirmations uint32
	Spendable     bool
	Solvable      bool
	Address       string
}

func (u UTXO) outpointEquals(txID [32]byte, vout uint32) bool {
	return u.TxID == txID && u.Vout == vout
}

// Choose selects a set of UTXOs covering target base units, per spec.md
// §4.1:
//
//  1. If required is present it is always included first, reducing the
//     remaining target by its amount.
//  2. If the remaining target is already covered, return just the
//     required UTXO.
//  3. Otherwise, excluding any pool entry matching the required outpoint,
//     prefer the single smallest UTXO that alone covers the remaining
//     target.
//  4. Failing that, greedily append pool UTXOs largest-first until the
//     sum covers the target, or fail with ErrNotEnoughFunds.
func Choose(required *UTXO, pool []UTXO, target uint64) ([]UTXO, uint64, error) {
	var (
		chosen []UTXO
		sum    uint64
	)

	remaining := target
	if required != nil {
		chosen = append(chosen, *required)
		sum = required.Amount
		if required.Amount >= remaining {
			return chosen, sum, nil
		}
		remaining -= required.Amount
	}

	candidates := make([]UTXO, 0, len(pool))
	for _, u := range pool {
		if required != nil && u.outpointEquals(required.TxID, required.Vout) {
			continue
		}
		candidates = append(candidates, u)
	}

	if best, ok := smallestCovering(candidates, remaining); ok {
		chosen = append(chosen, best)
		sum += best.Amount
		return chosen, sum, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Amount > candidates[j].Amount
	})

	for _, u := range candidates {
		chosen = append(chosen, u)
		sum += u.Amount
		if sum >= target {
			return chosen, sum, nil
		}
	}

	log.Warnf("coin selection exhausted pool of %d UTXOs without "+
		"reaching target %d (accumulated %d)", len(pool), target, sum)
	return nil, 0, ErrNotEnoughFunds
}

// smallestCovering returns the smallest-amount UTXO in candidates whose
// amount is >= remaining, if any exists.
func smallestCovering(candidates []UTXO, remaining uint64) (UTXO, bool) {
	var (
		best  UTXO
		found bool
	)
	for _, u := range candidates {
		if u.Amount < remaining {
			continue
		}
		if !found || u.Amount < best.Amount {
			best = u
			found = true
		}
	}
	return best, found
}
