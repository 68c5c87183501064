/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/rrc/pkg/rrc"
)

func newStripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strip <file>",
		Short: "Remove a container from a protected file in place",
		Long: `Decode a file protected with 'rrc protect', write the repaired input back
and truncate the container away.

Example:
  rrc strip disk.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			dec, err := rrc.NewDecoder(container.CodecOptions(cfg.Codec))
			if err != nil {
				return err
			}

			f, err := openForUpdate(container.GetFs(), args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := dec.Strip(cmd.Context(), f)
			if err != nil {
				return err
			}

			cmd.Printf("Stripped %s\n", args[0])
			printDecodeReport(cmd, report, false)
			return nil
		},
	}
}
