package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "hubctl",
		Short:         "hubctl - operate a paymenthub ledger over its HTTP API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(jwtCmd(opts))
	rootCmd.AddCommand(merchantCmd(opts))
	rootCmd.AddCommand(roleCmd(opts))
	rootCmd.AddCommand(statusCmd(opts))
	rootCmd.AddCommand(pauseCmd(opts, true))
	rootCmd.AddCommand(pauseCmd(opts, false))
	rootCmd.AddCommand(feeCmd(opts))
	rootCmd.AddCommand(paymentCmd(opts))
	rootCmd.AddCommand(faucetCmd(opts))
	rootCmd.AddCommand(approveCmd(opts))
	rootCmd.AddCommand(balanceCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
