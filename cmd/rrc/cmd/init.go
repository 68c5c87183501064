/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/rrc/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file holding the default codec, logging and metrics
settings, ready to be edited.

Examples:
  rrc init
  rrc init --config ./rrc.yaml --force`,
		Args: cobra.NoArgs,
		// The config file may not exist yet, so the root hook that loads it is replaced
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if container == nil {
				return fmt.Errorf("dependency container not initialized")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			force, _ := cmd.Flags().GetBool("force")
			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}

			fs := container.GetFs()
			if config.ConfigExists(fs, configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
				return nil
			}

			if _, err := config.BootstrapConfig(fs, configPath); err != nil {
				return err
			}
			cmd.Printf("✅ Configuration created at %s\n", configPath)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	return initCmd
}
