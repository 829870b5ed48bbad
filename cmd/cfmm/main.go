// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/cfmm"
	"github.com/luxfi/cfmm/config"
	"github.com/luxfi/cfmm/precompile"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cfmm",
	Short: "Confidential constant-product market maker",
	Long: `cfmm runs a confidential two-asset constant-product pool on an in-memory
chain. Reserves, fees and trade sizes stay encrypted; only the pool owner can
have them re-encrypted to a key of its choice.`,
	Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	runCmd.Flags().AddFlagSet(config.BuildFlagSet())
	rootCmd.AddCommand(runCmd)

	quoteCmd.Flags().Int32("reserve-in", 0, "Reserve of the input asset")
	quoteCmd.Flags().Int32("reserve-out", 0, "Reserve of the output asset")
	quoteCmd.Flags().Int32P("amount", "a", 0, "Amount of the input asset")
	rootCmd.AddCommand(quoteCmd)

	rootCmd.AddCommand(abiCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scripted session against a fresh pool",
	Long: `Deploy two confidential tokens and a pool from the first configured account,
then execute the session's steps in order. Pool calls go through the pool
precompile. A step the pool rejects is reported and the session continues.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := config.BuildViper(cmd.Flags())
		if err != nil {
			return err
		}
		cfg, err := config.NewConfig(v)
		if err != nil {
			return err
		}

		var logger log.Logger = log.Root()
		if cfg.Quiet {
			logger = log.NewNoOpLogger()
		}
		s, err := newSession(cfg, logger, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return s.run()
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a swap in plaintext",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reserveIn, _ := cmd.Flags().GetInt32("reserve-in")
		reserveOut, _ := cmd.Flags().GetInt32("reserve-out")
		amount, _ := cmd.Flags().GetInt32("amount")

		q, err := cfmm.QuoteSwap(reserveIn, reserveOut, amount)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "reserve in:  %d\n", q.ReserveIn)
		fmt.Fprintf(out, "reserve out: %d\n", q.ReserveOut)
		fmt.Fprintf(out, "gross out:   %d\n", q.GrossOut)
		fmt.Fprintf(out, "fee:         %d\n", q.Fee)
		fmt.Fprintf(out, "net out:     %d\n", q.NetOut)
		return nil
	},
}

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "Print the pool precompile ABI",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), precompile.ABI)
	},
}
