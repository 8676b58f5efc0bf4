// Package cli implements the splitbill command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitbill/internal/config"
	"github.com/mmynk/splitbill/pkg/logging"
)

func newRootCmd() *cobra.Command {
	// Filled by PersistentPreRunE before any subcommand runs.
	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:   "splitbill",
		Short: "Split a shared receipt between people",
		Long: `Split a shared receipt. Items are assigned to one or more people and
shared tax and service charges are distributed in proportion to each
person's share of the assigned subtotal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			loaded, err := config.Load(path)
			if err != nil {
				return err
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				loaded.Log.Level = lvl
			}
			*cfg = loaded
			logging.Setup(os.Stderr, cfg.Log.Level)
			return nil
		},
	}
	cmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newSplitCmd(cfg))
	cmd.AddCommand(newParseCmd(cfg))
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
