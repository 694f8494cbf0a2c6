package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/tarottimer/internal/decksource"
)

// NewDecksCommand creates the decks command group.
func NewDecksCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "Inspect and update deck definitions",
	}
	cmd.AddCommand(newDecksListCommand(opts))
	cmd.AddCommand(newDecksSyncCommand(opts))
	return cmd
}

func newDecksListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.registry(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range reg.IDs() {
				d := reg.Deck(id)
				marker := " "
				if id == reg.DefaultID() {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-16s %-32s %3d cards  v%s\n", marker, d.ID, d.Name, len(d.Cards), d.Version)
			}
			return nil
		},
	}
}

func newDecksSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Clone or pull the configured deck repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos := opts.Config.Deck.Repos
			if len(repos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no deck repositories configured, add one with --deck-repo")
				return nil
			}
			if err := decksource.SyncAll(cmd.Context(), opts.Config.Deck, opts.Log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d repositories\n", len(repos))
			return nil
		},
	}
}
