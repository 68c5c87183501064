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

func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode <input>",
		Short: "Write a protected container for a file",
		Long: `Copy a file into a new container and append recursive redundancy to it.
The input file is left untouched.

Examples:
  rrc encode backup.tar
  rrc encode backup.tar -o /mnt/archive/backup.tar.rrc --ratio 0.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = defaultOutput(input, false)
			}

			cfg := configFrom(cmd)
			enc, err := rrc.NewEncoder(container.CodecOptions(cfg.Codec))
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
				report, err = enc.Encode(cmd.Context(), src, dst)
				return err
			})
			if err != nil {
				return err
			}

			printEncodeReport(cmd, output, report)
			return nil
		},
	}

	encodeCmd.Flags().StringP("output", "o", "", "Container path (default <input>.rrc)")
	return encodeCmd
}
