package main

import (
	"fmt"
	"os"

	"github.com/bitrollup/stf/forkmgr"
	"github.com/bitrollup/stf/inscription"
	"github.com/bitrollup/stf/selector"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btclog"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	Testnet bool
	Regtest bool

	logBackend  = btclog.NewBackend(os.Stdout)
	log         = logBackend.Logger("STFC")
	chainParams = &chaincfg.MainNetParams
)

var rootCmd = &cobra.Command{
	Use:   "stfctl",
	Short: "stfctl inspects fork schedules and builds rollup inscriptions",
	Long: `stfctl is a developer tool for the soft-confirmation rollup
stack: it derives keys, builds commit/reveal inscription transactions, and
inspects fork activation schedules.`,
	Version: fmt.Sprintf("v%s", version),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case Testnet:
			chainParams = &chaincfg.TestNet3Params
		case Regtest:
			chainParams = &chaincfg.RegressionNetParams
		default:
			chainParams = &chaincfg.MainNetParams
		}

		setupLogging()
		log.Infof("stfctl version v%s", version)
	},
	DisableAutoGenTag: true,
}

func setupLogging() {
	addSubLogger("SELC", selector.UseLogger)
	addSubLogger("FORK", forkmgr.UseLogger)
	addSubLogger("INSC", inscription.UseLogger)
}

// addSubLogger creates a subsystem logger off the shared backend and wires
// it into any package-level UseLogger setters, the way chantools'
// cmd/chantools/root.go does for its own subsystems.
func addSubLogger(subsystem string, useLogger func(btclog.Logger)) {
	logger := logBackend.Logger(subsystem)
	if useLogger != nil {
		useLogger(logger)
	}
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(
		&Testnet, "testnet", "t", false,
		"use testnet3 chain parameters",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&Regtest, "regtest", "r", false,
		"use regtest chain parameters",
	)

	rootCmd.AddCommand(
		newKeyDeriveCommand(),
		newInscribeCommand(),
		newForksCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
