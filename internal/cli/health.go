package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			admin := NewAdminClient(cfg.AdminURL, cfg.Timeout)
			if err := admin.Get("/api/v1/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List active rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []RoomInfo

			admin := NewAdminClient(cfg.AdminURL, cfg.Timeout)
			if err := admin.Get("/api/v1/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show connection, room and account counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StatsResult

			admin := NewAdminClient(cfg.AdminURL, cfg.Timeout)
			if err := admin.Get("/api/v1/stats", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
