// Command migrate manages the search audit schema.
//
// Migrations are embedded in the binary; --path switches to a directory on
// disk, which is also where `create` writes new files.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/infrastructure/config"
	"github.com/pendencias/backend/internal/infrastructure/logger"
	"github.com/pendencias/backend/internal/infrastructure/migration"
	"github.com/pendencias/backend/migrations"
)

const defaultMigrationsPath = "migrations"

type options struct {
	configFile     string
	migrationsPath string
	logLevel       string
	log            *zap.Logger
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Pendency database migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(&logger.Config{
				Level:      opts.logLevel,
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if opts.log != nil {
				logger.Sync(opts.log)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./config.toml)")
	root.PersistentFlags().StringVar(&opts.migrationsPath, "path", "", "migrations directory (default: embedded migrations)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		migratorCommand(opts, "up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		migratorCommand(opts, "down", "Roll back all migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		migratorCommand(opts, "steps <n>", "Apply n migrations (negative rolls back)", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q: %w", args[0], err)
				}
				return m.Steps(n)
			}),
		migratorCommand(opts, "goto <version>", "Migrate to a specific version", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return m.GoTo(uint(v))
			}),
		migratorCommand(opts, "version", "Print the current migration version", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version: %d\ndirty: %t\n", v, dirty)
				return nil
			}),
		migratorCommand(opts, "force <version>", "Set the version without running migrations", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return m.Force(v)
			}),
		dropCommand(opts),
		createCommand(opts),
		listCommand(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// migratorCommand builds a subcommand that needs a database connection
func migratorCommand(opts *options, use, short string, args cobra.PositionalArgs,
	run func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			return withMigrator(opts, func(m *migration.Migrator) error { return run(m, a) })
		},
	}
}

func dropCommand(opts *options) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table, including the audit trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("drop destroys all audit data; pass --yes to confirm")
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Drop() })
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm dropping the database")
	return cmd
}

func createCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create a new migration file pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			dir := opts.migrationsPath
			if dir == "" {
				dir = defaultMigrationsPath
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			opts.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func listCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				entries []migration.MigrationEntry
				err     error
			)
			if opts.migrationsPath == "" {
				entries, err = migration.ListMigrations(migrations.FS)
			} else {
				entries, err = migration.ListMigrationsDir(opts.migrationsPath)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No migrations found")
				return nil
			}
			for _, e := range entries {
				marker := ""
				if !e.Complete() {
					marker = "  (incomplete pair)"
				}
				fmt.Printf("  %s%s\n", e.Name, marker)
			}
			return nil
		},
	}
}

// withMigrator opens the configured database, runs fn and closes everything
func withMigrator(opts *options, fn func(*migration.Migrator) error) error {
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var m *migration.Migrator
	if opts.migrationsPath == "" {
		m, err = migration.NewWithFS(db, migrations.FS, ".", opts.log)
	} else {
		m, err = migration.New(db, opts.migrationsPath, opts.log)
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			opts.log.Warn("Failed to close migrator", zap.Error(cerr))
		}
	}()

	opts.log.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)
	return fn(m)
}
