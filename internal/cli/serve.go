package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/conorfennell/tarottimer/internal/journal"
	"github.com/conorfennell/tarottimer/internal/web"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gen, reg, err := opts.generator(ctx)
			if err != nil {
				return err
			}
			db, err := opts.openMigrated(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			metrics := prometheus.NewRegistry()
			metrics.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			handler := web.NewServer(web.Options{
				DB:        db,
				Decks:     reg,
				Generator: gen,
				Journal:   journal.New(db, gen, opts.Log, journal.WithDeck(opts.pinnedDeck())),
				Logger:    opts.Log,
				Registry:  metrics,
			})
			srv := &http.Server{
				Addr:              opts.Config.HTTP.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				opts.Log.Info().Str("addr", srv.Addr).Msg("http server listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			opts.Log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
