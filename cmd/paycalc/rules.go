package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"kepayroll/internal/domain/audit"
	"kepayroll/internal/domain/statutory"
	"kepayroll/internal/platform/db"
	"kepayroll/migrations"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect, validate and publish statutory rule sets",
	}
	cmd.AddCommand(
		newRulesExportCmd(),
		newRulesValidateCmd(),
		newRulesImportCmd(),
		newRulesDeactivateCmd(),
		newRulesHistoryCmd(),
	)
	return cmd
}

func newRulesExportCmd() *cobra.Command {
	var rulesFile string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print rule sets as YAML (the built-in set unless --rules is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var source statutory.Source = statutory.StaticSource{statutory.DefaultRuleSet()}
			if rulesFile != "" {
				source = statutory.FileSource{Path: rulesFile}
			}
			sets, err := source.Load(cmd.Context())
			if err != nil {
				return err
			}
			return statutory.EncodeRuleSetsYAML(cmd.OutOrStdout(), sets)
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rule set file to re-emit")
	return cmd
}

func newRulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [rules.yaml]",
		Short: "Check a rule set file without publishing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := loadRulesFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, set := range sets {
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s effective %s\n", set.Version, set.EffectiveFrom.Format("2006-01-02"))
			}
			return nil
		},
	}
}

// dbFlags are shared by the subcommands that write to Postgres.
type dbFlags struct {
	databaseURL string
	actor       string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	cmd.Flags().StringVar(&f.actor, "actor", os.Getenv("USER"), "name recorded in the rule set history")
}

func newRulesImportCmd() *cobra.Command {
	var (
		flags   dbFlags
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "import [rules.yaml]",
		Short: "Publish rule sets from a YAML file to Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := loadRulesFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			pool, err := openDB(cmd.Context(), flags.databaseURL, migrate)
			if err != nil {
				return err
			}
			defer pool.Close()

			err = inTx(cmd.Context(), pool, func(store *statutory.PGStore, trail *audit.Service) error {
				for _, set := range sets {
					if err := store.Save(cmd.Context(), set); err != nil {
						return fmt.Errorf("save %s: %w", set.Version, err)
					}
					if err := trail.Record(cmd.Context(), audit.Entry{
						Version: set.Version,
						Action:  audit.ActionPublished,
						Actor:   flags.actor,
						Source:  "cli",
						After:   set,
					}); err != nil {
						return fmt.Errorf("record %s: %w", set.Version, err)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, set := range sets {
				fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", set.Version)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply schema migrations first")
	return cmd
}

func newRulesDeactivateCmd() *cobra.Command {
	var flags dbFlags
	cmd := &cobra.Command{
		Use:   "deactivate [version]",
		Short: "Withdraw a published rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := args[0]
			pool, err := openDB(cmd.Context(), flags.databaseURL, false)
			if err != nil {
				return err
			}
			defer pool.Close()

			err = inTx(cmd.Context(), pool, func(store *statutory.PGStore, trail *audit.Service) error {
				sets, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				var before any
				for i := range sets {
					if sets[i].Version == version {
						before = sets[i]
					}
				}
				if err := store.Deactivate(cmd.Context(), version); err != nil {
					return err
				}
				return trail.Record(cmd.Context(), audit.Entry{
					Version: version,
					Action:  audit.ActionDeactivated,
					Actor:   flags.actor,
					Source:  "cli",
					Before:  before,
				})
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deactivated %s\n", version)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newRulesHistoryCmd() *cobra.Command {
	var (
		databaseURL string
		filter      audit.Filter
		limit       int
		format      string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show who published or withdrew rule sets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q: want text or json", format)
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			pool, err := openDB(cmd.Context(), databaseURL, false)
			if err != nil {
				return err
			}
			defer pool.Close()

			events, err := audit.New(pool).List(cmd.Context(), filter, format == "json", limit, 0)
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), events)
			}
			rows := make([][]string, len(events))
			for i, evt := range events {
				rows[i] = []string{
					strconv.FormatInt(evt.ID, 10),
					evt.CreatedAt.Local().Format(time.DateTime),
					evt.Version,
					evt.Action,
					evt.Actor,
					evt.Source,
				}
			}
			headers := []string{"ID", "When", "Version", "Action", "Actor", "Source"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, len(headers)))
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	cmd.Flags().StringVar(&filter.Version, "version", "", "only events for this rule set version")
	cmd.Flags().StringVar(&filter.Action, "action", "", "only events with this action")
	cmd.Flags().StringVar(&filter.Actor, "actor", "", "only events by this actor")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum events to show")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	return cmd
}

// loadRulesFile reads path and checks the sets can form a registry.
func loadRulesFile(ctx context.Context, path string) ([]statutory.RuleSet, error) {
	sets, err := statutory.FileSource{Path: path}.Load(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := statutory.NewRegistry(sets...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sets, nil
}

func openDB(ctx context.Context, databaseURL string, migrate bool) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if migrate {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	return pool, nil
}

// inTx runs fn against a store and audit trail sharing one transaction, so a
// rule set change and its history entry land together.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(*statutory.PGStore, *audit.Service) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(statutory.NewPGStore(tx), audit.New(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
