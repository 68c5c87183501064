/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/rrc/pkg/rrc"
	"github.com/ssargent/rrc/pkg/store"
)

func newVerifyCmd() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify <container>",
		Short: "Check that a container decodes",
		Long: `Decode a container without writing output and report how much damage was
repaired. Exits non-zero when the input cannot be recovered.

Example:
  rrc verify backup.tar.rrc -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg := configFrom(cmd)
			dec, err := rrc.NewDecoder(container.CodecOptions(cfg.Codec))
			if err != nil {
				return err
			}

			src, err := store.Open(container.GetFs(), args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer src.Close()

			report, err := dec.Verify(cmd.Context(), src)
			if err != nil {
				return err
			}

			if report.CorrectedSymbols == 0 && report.UnlocatedBlocks() == 0 {
				cmd.Printf("%s: OK\n", args[0])
			} else {
				cmd.Printf("%s: REPAIRABLE\n", args[0])
			}
			printDecodeReport(cmd, report, verbose)
			return nil
		},
	}

	verifyCmd.Flags().BoolP("verbose", "v", false, "Print per-layer details")
	return verifyCmd
}
