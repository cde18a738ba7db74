package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bitrollup/stf/inscription"
	"github.com/bitrollup/stf/selector"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/cobra"
)

type inscribeCommand struct {
	RollupName      string
	BodyFile        string
	Signature       string
	SequencerPubKey string

	UTXOs      []string
	Recipient  string
	ChangeAddr string

	RevealValue   int64
	CommitFeeRate float64
	RevealFeeRate float64
	RevealPrefix  string
	Workers       int

	cmd *cobra.Command
}

func newInscribeCommand() *cobra.Command {
	cc := &inscribeCommand{}
	cc.cmd = &cobra.Command{
		Use:   "inscribe",
		Short: "Build a commit/reveal inscription transaction pair",
		Long: `Grinds a proof-of-work nonce and builds the funding commit
transaction plus the reveal transaction that spends it, embedding a body
behind a taproot script-path spend.`,
		Example: `stfctl inscribe --rollup-name test_rollup \
	--body-file body.bin --signature <hex> --sequencer-pubkey <hex> \
	--utxo txid:vout:amount --recipient bc1p... --change bc1q... \
	--reveal-value 546 --commit-fee-rate 8 --reveal-fee-rate 8 \
	--reveal-prefix 00`,
		RunE: cc.execute,
	}
	cc.cmd.Flags().StringVar(&cc.RollupName, "rollup-name", "", "rollup name tag value")
	cc.cmd.Flags().StringVar(&cc.BodyFile, "body-file", "", "path to the file holding the inscription body")
	cc.cmd.Flags().StringVar(&cc.Signature, "signature", "", "hex-encoded signature over the body")
	cc.cmd.Flags().StringVar(&cc.SequencerPubKey, "sequencer-pubkey", "", "hex-encoded sequencer public key")
	cc.cmd.Flags().StringArrayVar(&cc.UTXOs, "utxo", nil, "txid:vout:amount, repeatable")
	cc.cmd.Flags().StringVar(&cc.Recipient, "recipient", "", "reveal output recipient address")
	cc.cmd.Flags().StringVar(&cc.ChangeAddr, "change", "", "commit tx change address")
	cc.cmd.Flags().Int64Var(&cc.RevealValue, "reveal-value", 546, "reveal output value, in base units")
	cc.cmd.Flags().Float64Var(&cc.CommitFeeRate, "commit-fee-rate", 1, "commit tx fee rate, base units/vbyte")
	cc.cmd.Flags().Float64Var(&cc.RevealFeeRate, "reveal-fee-rate", 1, "reveal tx fee rate, base units/vbyte")
	cc.cmd.Flags().StringVar(&cc.RevealPrefix, "reveal-prefix", "", "hex-encoded required reveal txid prefix")
	cc.cmd.Flags().IntVar(&cc.Workers, "workers", 1, "number of nonce strides to grind concurrently")
	return cc.cmd
}

func (c *inscribeCommand) execute(_ *cobra.Command, _ []string) error {
	body, err := os.ReadFile(c.BodyFile)
	if err != nil {
		return fmt.Errorf("reading body file: %w", err)
	}

	signature, err := hex.DecodeString(c.Signature)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}
	seqPubKey, err := hex.DecodeString(c.SequencerPubKey)
	if err != nil {
		return fmt.Errorf("decoding sequencer pubkey: %w", err)
	}
	prefix, err := hex.DecodeString(c.RevealPrefix)
	if err != nil {
		return fmt.Errorf("decoding reveal prefix: %w", err)
	}

	pool, err := parseUTXOs(c.UTXOs)
	if err != nil {
		return fmt.Errorf("parsing --utxo entries: %w", err)
	}

	recipient, err := btcutil.DecodeAddress(c.Recipient, chainParams)
	if err != nil {
		return fmt.Errorf("parsing --recipient: %w", err)
	}
	change, err := btcutil.DecodeAddress(c.ChangeAddr, chainParams)
	if err != nil {
		return fmt.Errorf("parsing --change: %w", err)
	}

	result, err := inscription.Build(inscription.Params{
		RollupName:      c.RollupName,
		Body:            body,
		BlobSignature:   signature,
		SequencerPubKey: seqPubKey,
		UTXOs:           pool,
		Recipient:       recipient,
		ChangeAddr:      change,
		RevealValue:     c.RevealValue,
		CommitFeeRate:   c.CommitFeeRate,
		RevealFeeRate:   c.RevealFeeRate,
		Network:         chainParams,
		RevealPrefix:    prefix,
		Workers:         c.Workers,
	})
	if err != nil {
		return fmt.Errorf("building inscription: %w", err)
	}

	serializedReveal, err := serializeTx(result.RevealTx)
	if err != nil {
		return fmt.Errorf("serializing reveal tx: %w", err)
	}
	fileName := fmt.Sprintf("reveal_%s.tx", result.RevealID)
	log.Infof("writing reveal tx to %s", fileName)
	if err := os.WriteFile(fileName, serializedReveal, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", fileName, err)
	}

	log.Infof("reveal txid: %s", result.RevealID)
	fmt.Printf("commit txid: %s\n", result.CommitTx.TxHash())
	fmt.Printf("reveal txid: %s\n", result.RevealID)
	return nil
}

func serializeTx(tx *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseUTXOs parses "txid:vout:amount" entries into selector.UTXO pool
// candidates. A full UTXO set would normally come from a wallet's listunspent
// RPC; this flag-based form keeps the CLI usable without one.
func parseUTXOs(entries []string) ([]selector.UTXO, error) {
	out := make([]selector.UTXO, 0, len(entries))
	for _, e := range entries {
		parts := strings.Split(e, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed utxo %q, want txid:vout:amount", e)
		}

		txidBytes, err := hex.DecodeString(parts[0])
		if err != nil || len(txidBytes) != 32 {
			return nil, fmt.Errorf("malformed txid in %q", e)
		}
		var txid [32]byte
		// hex-displayed txids are byte-reversed from internal order.
		for i := range txidBytes {
			txid[i] = txidBytes[len(txidBytes)-1-i]
		}

		vout, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vout in %q: %w", e, err)
		}
		amount, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed amount in %q: %w", e, err)
		}

		out = append(out, selector.UTXO{
			TxID:      txid,
			Vout:      uint32(vout),
			Amount:    amount,
			Spendable: true,
			Solvable:  true,
		})
	}
	return out, nil
}
