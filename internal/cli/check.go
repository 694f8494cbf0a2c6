package cli

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/tarottimer/internal/daily"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(opts *RootOptions) *cobra.Command {
	var (
		from, to   string
		iterations int
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that generation is deterministic over a date range",
		Long: `Regenerate every date in [--from, --to] several times and report any
date whose hourly cards differ between runs. Both bounds default to today.
Dates are checked against the --deck deck when one is set explicitly, and
the default deck otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := time.Now().Format(daily.DateLayout)
			if from == "" {
				from = today
			}
			if to == "" {
				to = from
			}
			dates, err := daily.Dates(from, to)
			if err != nil {
				return err
			}
			gen, _, err := opts.generator(cmd.Context())
			if err != nil {
				return err
			}

			start := time.Now()
			failed, err := gen.CheckRange(cmd.Context(), dates, opts.pinnedDeck(), iterations, workers)
			if err != nil {
				return err
			}
			opts.Log.Debug().Int("dates", len(dates)).Dur("elapsed", time.Since(start)).Msg("range checked")

			out := cmd.OutOrStdout()
			for _, d := range failed {
				fmt.Fprintf(out, "inconsistent: %s\n", d)
			}
			fmt.Fprintf(out, "checked %d dates, %d inconsistent\n", len(dates), len(failed))
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d dates are not deterministic", len(failed), len(dates))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD), defaults to --from")
	cmd.Flags().IntVar(&iterations, "iterations", 10, "regenerations per date")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "dates checked concurrently")
	return cmd
}
