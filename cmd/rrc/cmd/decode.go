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

func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode <container>",
		Short: "Recover the original file from a container",
		Long: `Recover the original input from a container, repairing corruption,
truncation of the anchor copies and displaced blocks on the way.
The container itself is not modified.

Examples:
  rrc decode backup.tar.rrc
  rrc decode backup.tar.rrc -o restored.tar -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			output, _ := cmd.Flags().GetString("output")
			verbose, _ := cmd.Flags().GetBool("verbose")
			if output == "" {
				output = defaultOutput(input, true)
			}

			cfg := configFrom(cmd)
			dec, err := rrc.NewDecoder(container.CodecOptions(cfg.Codec))
			if err != nil {
				return err
			}

			fs := container.GetFs()
			src, err := store.Open(fs, input)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", input, err)
			}
			defer src.Close()

			var report *rrc.Report
			err = withTempOutput(fs, output, func(dst *store.File) error {
				report, err = dec.Decode(cmd.Context(), src, dst)
				return err
			})
			if err != nil {
				return err
			}

			cmd.Printf("Wrote %s\n", output)
			printDecodeReport(cmd, report, verbose)
			return nil
		},
	}

	decodeCmd.Flags().StringP("output", "o", "", "Output path (default <container> without .rrc)")
	decodeCmd.Flags().BoolP("verbose", "v", false, "Print per-layer details")
	return decodeCmd
}
