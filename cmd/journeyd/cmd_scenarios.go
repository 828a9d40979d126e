package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/warp/journey-engine/api"
	"github.com/warp/journey-engine/journey"
)

func newScenariosCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List or load demo scenarios",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List demo scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, s := range api.Scenarios {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.Description)
			}
			return w.Flush()
		},
	})

	var userID string
	load := &cobra.Command{
		Use:   "load <scenario-id>",
		Short: "Replace a user's data with a demo scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			handler, err := newHandler(cfg, store, nil)
			if err != nil {
				return err
			}
			resp, err := handler.LoadScenarioFor(cmd.Context(), args[0], journey.UserID(userID))
			if err != nil {
				return err
			}
			log.Info().
				Str("scenario", resp.ScenarioID).
				Str("user_id", resp.UserID).
				Int("records", resp.Records).
				Int("entries", resp.Entries).
				Msg("scenario loaded")
			return nil
		},
	}
	load.Flags().StringVar(&userID, "user", "", "target user (defaults to the scenario ID)")
	cmd.AddCommand(load)
	return cmd
}
