package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/tarottimer/internal/daily"
)

// parseDate rejects anything that is not a YYYY-MM-DD date key.
func parseDate(s string) (string, error) {
	if _, err := time.Parse(daily.DateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return s, nil
}

// NewDrawCommand creates the draw command.
func NewDrawCommand(opts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "draw <date>",
		Short: "Print the 24 hourly cards of a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			gen, deckID, err := opts.resolveDeck(cmd.Context(), date)
			if err != nil {
				return err
			}

			set := gen.Generate(date, deckID)
			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, set)
			}
			fmt.Fprintf(out, "%s  deck %s\n", set.Date, set.DeckID)
			for _, c := range set.Cards {
				fmt.Fprintln(out, cardLine(c))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (json|text)")
	return cmd
}

// NewHourCommand creates the hour command.
func NewHourCommand(opts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "hour <date> <hour>",
		Short: "Print the card of one hour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			hour, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid hour %q: %w", args[1], err)
			}
			gen, deckID, err := opts.resolveDeck(cmd.Context(), date)
			if err != nil {
				return err
			}

			c, ok := gen.HourlyCard(date, hour, deckID)
			if !ok {
				return fmt.Errorf("no card for hour %d of %s", hour, date)
			}
			return writeCard(cmd.OutOrStdout(), format, c)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (json|text)")
	return cmd
}

// NewNowCommand creates the now command.
func NewNowCommand(opts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "now [date]",
		Short: "Print the card of the current local hour",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			date := time.Now().Format(daily.DateLayout)
			if len(args) == 1 {
				var err error
				if date, err = parseDate(args[0]); err != nil {
					return err
				}
			}
			gen, deckID, err := opts.resolveDeck(cmd.Context(), date)
			if err != nil {
				return err
			}

			c, ok := gen.CurrentHourCard(date, deckID)
			if !ok {
				return fmt.Errorf("no card for the current hour of %s", date)
			}
			return writeCard(cmd.OutOrStdout(), format, c)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (json|text)")
	return cmd
}
