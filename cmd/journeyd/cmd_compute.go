package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/journey-engine/journey"
)

func newComputeCmd(opts *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "compute <user-id>",
		Short: "Print a user's journey and achievements as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			var clock journey.Clock
			if at != "" {
				t, err := time.Parse("2006-01-02", at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: %w", at, err)
				}
				clock = journey.FixedClock{At: t}
			}

			store, err := openStore(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			handler, err := newHandler(cfg, store, clock)
			if err != nil {
				return err
			}

			userID := journey.UserID(args[0])
			journeyResp, err := handler.JourneyFor(cmd.Context(), userID)
			if err != nil {
				return err
			}
			achievementsResp, err := handler.RefreshAchievements(cmd.Context(), userID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"journey":      journeyResp,
				"achievements": achievementsResp,
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this date (YYYY-MM-DD) instead of now")
	return cmd
}
