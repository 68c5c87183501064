/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ssargent/rrc/pkg/rrc"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <size>",
		Short: "Show the container layout for an input size",
		Long: `Compute the layers, parity and anchor an input of the given size would get,
without reading or writing anything. Sizes accept units such as 10MB or 4GiB.

Examples:
  rrc plan 10000
  rrc plan 4GiB --ratio 0.01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := humanize.ParseBytes(args[0])
			if err != nil {
				return fmt.Errorf("invalid size %q: %w", args[0], err)
			}

			cfg := configFrom(cmd)
			plan, err := rrc.PlanLayers(int64(size), container.CodecOptions(cfg.Codec))
			if err != nil {
				return err
			}

			printPlan(cmd, plan)
			return nil
		},
	}
}
