package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "roomctl",
		Short: "CLI client for the room relay server",
		Long: `roomctl is a client for the room relay's binary wire protocol.

It supports account creation and sign-in, interactive play and observer
sessions against a game room, and the read-only admin endpoints.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.Server, "server", cfg.Server, "Relay TCP address (env: ROOMCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminURL, "admin", cfg.AdminURL, "Admin base URL (env: ROOMCTL_ADMIN)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newJoinCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newRoomsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
