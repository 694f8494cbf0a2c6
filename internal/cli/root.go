// Package cli implements the tarottimer command line.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/conorfennell/tarottimer/internal/config"
	"github.com/conorfennell/tarottimer/internal/daily"
	"github.com/conorfennell/tarottimer/internal/deck"
	"github.com/conorfennell/tarottimer/internal/decksource"
	"github.com/conorfennell/tarottimer/internal/journal"
	"github.com/conorfennell/tarottimer/internal/logging"
	"github.com/conorfennell/tarottimer/internal/storage"
)

// RootOptions holds the configuration and logger shared by all commands.
// Both are filled in before any subcommand runs.
type RootOptions struct {
	Config config.Config
	Log    zerolog.Logger
}

// NewRootCommand creates the root command for the tarottimer CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "tarottimer",
		Short: "Tarot Timer - one card for every hour of the day",
		Long: `Tarot Timer draws a deterministic set of 24 hourly tarot cards for
any date. The same date always yields the same cards, on every machine.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Log = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewDrawCommand(opts))
	cmd.AddCommand(NewHourCommand(opts))
	cmd.AddCommand(NewNowCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewRollbackCommand(opts))
	cmd.AddCommand(NewSchemaVersionCommand(opts))
	cmd.AddCommand(NewMemoCommand(opts))
	cmd.AddCommand(NewMemosCommand(opts))
	cmd.AddCommand(NewDecksCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// registry loads the configured decks.
func (o *RootOptions) registry(ctx context.Context) (*deck.Registry, error) {
	return decksource.Load(ctx, o.Config.Deck, o.Log)
}

// generator builds a generator over the configured decks.
func (o *RootOptions) generator(ctx context.Context) (*daily.Generator, *deck.Registry, error) {
	reg, err := o.registry(ctx)
	if err != nil {
		return nil, nil, err
	}
	return daily.New(reg, daily.WithLogger(o.Log)), reg, nil
}

// openDB opens the configured database without touching its schema.
func (o *RootOptions) openDB(ctx context.Context) (*storage.DB, error) {
	return storage.Open(ctx, o.Config.DB.Path, o.Log)
}

// openMigrated opens the configured database and brings its schema up to
// date.
func (o *RootOptions) openMigrated(ctx context.Context) (*storage.DB, error) {
	db, err := o.openDB(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.Migrator().Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// pinnedDeck returns the configured deck when it was set explicitly, and ""
// when only the flag default applies.
func (o *RootOptions) pinnedDeck() string {
	if o.Config.Deck.Pinned {
		return o.Config.Deck.Default
	}
	return ""
}

// journal opens the migrated database and a journal over it. The returned
// close func releases the database.
func (o *RootOptions) journal(ctx context.Context) (*journal.Service, *daily.Generator, func() error, error) {
	gen, _, err := o.generator(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := o.openMigrated(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return journal.New(db, gen, o.Log, journal.WithDeck(o.pinnedDeck())), gen, db.Close, nil
}

// resolveDeck picks the deck for date the same way the journal does, so
// read-only commands agree with stored days and memos.
func (o *RootOptions) resolveDeck(ctx context.Context, date string) (*daily.Generator, string, error) {
	j, gen, closeDB, err := o.journal(ctx)
	if err != nil {
		return nil, "", err
	}
	defer closeDB()

	id, err := j.ResolveDeck(ctx, date, "")
	if err != nil {
		return nil, "", err
	}
	return gen, id, nil
}
