package main

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/spf13/cobra"
)

const deriveKeyFormat = `
Path:          %s
Network:       %s
Public key:    %x
Extended key:  %s
`

type deriveKeyCommand struct {
	RootKey string
	Path    string
	Neuter  bool

	cmd *cobra.Command
}

func newKeyDeriveCommand() *cobra.Command {
	cc := &deriveKeyCommand{}
	cc.cmd = &cobra.Command{
		Use:   "derivekey",
		Short: "Derive a sequencer or inscription key along a BIP32 path",
		Long: `Derives a single key with the given BIP32 derivation path
from an extended root key and prints it to the console. Useful for
producing the sequencer_pubkey an inscription's publickey tag commits to.`,
		Example: `stfctl derivekey --rootkey xprv... --path "m/86'/0'/0'/0/0"`,
		RunE:    cc.execute,
	}
	cc.cmd.Flags().StringVar(
		&cc.RootKey, "rootkey", "", "extended private or public root key",
	)
	cc.cmd.Flags().StringVar(
		&cc.Path, "path", "", `BIP32 derivation path; must start with "m/"`,
	)
	cc.cmd.Flags().BoolVar(
		&cc.Neuter, "neuter", false, "only print the public key, not the xprv",
	)
	return cc.cmd
}

func (c *deriveKeyCommand) execute(_ *cobra.Command, _ []string) error {
	if c.RootKey == "" {
		return fmt.Errorf("--rootkey is required")
	}

	path, err := parseDerivationPath(c.Path)
	if err != nil {
		return fmt.Errorf("parsing path: %w", err)
	}

	root, err := hdkeychain.NewKeyFromString(c.RootKey)
	if err != nil {
		return fmt.Errorf("parsing root key: %w", err)
	}

	derived, err := deriveChildren(root, path)
	if err != nil {
		return fmt.Errorf("deriving path %s: %w", c.Path, err)
	}

	if c.Neuter || !derived.IsPrivate() {
		derived, err = derived.Neuter()
		if err != nil {
			return fmt.Errorf("neutering derived key: %w", err)
		}
	}

	pubKey, err := derived.ECPubKey()
	if err != nil {
		return fmt.Errorf("deriving public key: %w", err)
	}

	fmt.Printf(
		deriveKeyFormat, c.Path, chainParams.Name,
		pubKey.SerializeCompressed(), derived.String(),
	)
	log.Infof("derived key at %s: %s", c.Path, hex.EncodeToString(pubKey.SerializeCompressed()))

	return nil
}
