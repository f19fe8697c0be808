package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"firerisk/internal/catalog"
	"firerisk/internal/database"
	"firerisk/internal/loader"
	"firerisk/internal/logging"
	"firerisk/internal/merge"
	"firerisk/internal/sink"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultOut     = "merged.csv"
	defaultLogFile = "merge_data.log"
)

type rootOptions struct {
	out         string
	table       string
	logFile     string
	catalogPath string
	skipDB      bool
	verbose     bool
}

// Execute runs the root command against the process arguments.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, args []string, stderr io.Writer) error {
	cmd := newRootCmd(stderr)

	// Help is answered as a usage error so scripts never mistake it for a run.
	if len(args) == 0 || wantsHelp(args) {
		cmd.Usage() //nolint:errcheck
		return errUsage
	}

	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		cmd.Usage() //nolint:errcheck
	}
	return err
}

func wantsHelp(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-h" || a == "--help" {
			return true
		}
	}
	return false
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "firerisk-merge [flags] NAME PATH [NAME PATH ...]",
		Short: "Merge parcel extracts into one table keyed by parcel number",
		Long: `firerisk-merge reads parcel extracts in the order given, keeps the
catalogued columns of each, left-joins them on parcelnumber and reconciles
the attributes shared by the commercial and residential records.

The first source seeds the table; later sources only add columns to parcels
it already holds. The result is written to a CSV file and then replaces a
table in the database named by FIRERISK_DB_URL (or FIRERISK_DB_HOST and
friends for Oracle). A .env file in the working directory is honored.

Sources: ` + strings.Join(catalog.Default().Names(), ", ") + `
Inputs ending in .shp are read as ESRI shapefiles; everything else as CSV.
The merged CSV has no row index column: its first column is the first
column of the merged table.

Exit Codes:
  0  - Success
  1  - General error
  2  - Usage error (help, missing or odd arguments, bad flags)
  3  - Panic
  10 - Input error (catalog, unknown source, unreadable or unjoinable file)
  11 - Database error (the CSV file was still written)`,
		Example:       "  firerisk-merge parcel_area data/ParcelArea.shp real_estate_residential data/Residential.csv",
		Args:          pairArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd.Context(), opts, args, stderr)
		},
	}
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	flags := cmd.Flags()
	flags.StringVar(&opts.out, "out", defaultOut, "Path of the merged CSV file")
	flags.StringVar(&opts.table, "table", sink.DefaultTable, "Database table replaced with the merged rows")
	flags.StringVar(&opts.logFile, "log-file", defaultLogFile, "Append debug logs as JSON to this file (empty disables)")
	flags.StringVar(&opts.catalogPath, "catalog", "", "YAML file replacing the built-in source catalog")
	flags.BoolVar(&opts.skipDB, "skip-db", false, "Write the CSV file only")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to the console")
	return cmd
}

func pairArgs(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no inputs given", errUsage)
	}
	if len(args)%2 != 0 {
		return fmt.Errorf("%w: expected NAME PATH pairs, got %d arguments", errUsage, len(args))
	}
	return nil
}

func inputsFromArgs(args []string) []merge.Input {
	inputs := make([]merge.Input, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		inputs = append(inputs, merge.Input{Source: args[i], Path: args[i+1]})
	}
	return inputs
}

func runMerge(ctx context.Context, opts *rootOptions, args []string, stderr io.Writer) error {
	logger, closeLog, err := logging.New(logging.Options{
		Verbose: opts.verbose,
		File:    opts.logFile,
		Console: stderr,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	defer closeLog() //nolint:errcheck

	err = mergeAndStore(ctx, opts, inputsFromArgs(args), logger)
	if err != nil {
		logger.Error("merge failed", zap.Error(err))
	}
	return err
}

func mergeAndStore(ctx context.Context, opts *rootOptions, inputs []merge.Input, logger *zap.Logger) error {
	cat := catalog.Default()
	if opts.catalogPath != "" {
		loaded, err := catalog.Load(opts.catalogPath)
		if err != nil {
			return fmt.Errorf("%w: %w", errConfig, err)
		}
		cat = loaded
		logger.Info("using catalog", zap.String("path", opts.catalogPath), zap.Strings("sources", cat.Names()))
	}

	pipeline := merge.NewPipeline(cat, loader.New(), merge.NewReconciler(merge.DefaultRules()...), logger)
	merged, err := pipeline.Run(ctx, inputs)
	if err != nil {
		return err
	}

	out := &sink.Sink{
		OutPath: opts.out,
		Table:   opts.table,
		Logger:  logger,
	}
	if !opts.skipDB {
		config := database.LoadDatabaseConfig()
		out.Open = func(ctx context.Context) (sink.Store, error) {
			db, err := database.NewDatabase(ctx, config)
			if err != nil {
				return nil, err
			}
			return db, nil
		}
	}
	return out.Write(ctx, merged)
}
