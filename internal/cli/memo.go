package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewMemoCommand creates the memo command.
func NewMemoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "memo <date> <hour> [text...]",
		Short: "Write or clear the memo of one hour",
		Long: `Store a memo against one hour of a date. The date is generated and
stored first if needed. Without text the memo is cleared.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			hour, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid hour %q: %w", args[1], err)
			}
			var memo *string
			if text := strings.Join(args[2:], " "); text != "" {
				memo = &text
			}

			j, _, closeDB, err := opts.journal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := j.SetMemo(cmd.Context(), date, hour, memo); err != nil {
				return err
			}
			if memo == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "cleared memo for %s %02d:00\n", date, hour)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "saved memo for %s %02d:00\n", date, hour)
			}
			return nil
		},
	}
}

// NewMemosCommand creates the memos command.
func NewMemosCommand(opts *RootOptions) *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "memos",
		Short: "List the most recently edited memos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			j, _, closeDB, err := opts.journal(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			memos, err := j.RecentMemos(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, memos)
			}
			for _, m := range memos {
				fmt.Fprintf(out, "%s %02d:00  %-12s %s\n", m.Date, m.Hour, m.CardKey, m.Memo)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of memos")
	cmd.Flags().StringVar(&format, "format", "text", "output format (json|text)")
	return cmd
}
