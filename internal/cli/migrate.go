package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/tarottimer/internal/storage"
)

func printVersion(cmd *cobra.Command, m *storage.Migrator) error {
	v, err := m.CurrentVersion(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (latest %d)\n", v, m.Latest())
	return nil
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var to int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			m := db.Migrator()
			if cmd.Flags().Changed("to") {
				err = m.MigrateTo(cmd.Context(), to)
			} else {
				err = m.Migrate(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	}

	cmd.Flags().IntVar(&to, "to", 0, "target version (defaults to latest)")
	return cmd
}

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(opts *RootOptions) *cobra.Command {
	var to int

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Revert schema migrations down to a version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			m := db.Migrator()
			if err := m.Rollback(cmd.Context(), to); err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	}

	cmd.Flags().IntVar(&to, "to", 0, "target version")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// NewSchemaVersionCommand creates the schema-version command.
func NewSchemaVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema-version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			return printVersion(cmd, db.Migrator())
		},
	}
}
