/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/rrc/pkg/rrc"
)

func newProtectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "protect <file>",
		Short: "Append recursive redundancy to a file in place",
		Long: `Append a container to an existing file. The file keeps its original bytes
at the front and can be restored with 'rrc strip'.

Example:
  rrc protect disk.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			enc, err := rrc.NewEncoder(container.CodecOptions(cfg.Codec))
			if err != nil {
				return err
			}

			f, err := openForUpdate(container.GetFs(), args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := enc.Protect(cmd.Context(), f)
			if err != nil {
				return err
			}

			printEncodeReport(cmd, args[0], report)
			return nil
		},
	}
}
