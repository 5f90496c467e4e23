// Command dumpmerge normalizes credential and contact dumps into one JSON
// mapping from identity to the values seen with it.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dumpmerge/internal/artifact"
	"github.com/JonMunkholm/dumpmerge/internal/config"
	"github.com/JonMunkholm/dumpmerge/internal/core"
	_ "github.com/JonMunkholm/dumpmerge/internal/core/formats" // Register all input formats
	"github.com/JonMunkholm/dumpmerge/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dumpmerge [file]",
		Short: "Merge a tabular dump into an identity-keyed JSON mapping",
		Long: `dumpmerge reads a CSV, text, SQLite, Excel or PostgreSQL dump, picks the
identity column (email, username or name), and writes one JSON object
mapping each identity to every other value seen with it.

Without a file argument the path is read from standard input.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runNormalize,
	}

	flags := rootCmd.Flags()
	flags.String("out-dir", "", "Write output into this directory instead of next to the input")
	flags.String("table", "", "Table to read from a SQLite or PostgreSQL source (default: first table)")
	flags.String("sheet", "", "Sheet to read from a workbook (default: first sheet)")
	flags.String("encoding", "", "Source text encoding, e.g. windows-1252 (default: UTF-8)")
	flags.Int("shards", 0, "Parallel aggregation shards (default: SHARDS)")
	flags.Bool("stdout", false, "Print the JSON mapping instead of writing it")
	flags.Bool("database", false, "Read from DATABASE_URL instead of a file")

	rootCmd.AddCommand(newServeCmd(), newFormatsCmd())
	return rootCmd
}

// loadConfig loads .env and the environment, then installs the logger and
// the file size limit.
func loadConfig() (*config.Config, error) {
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil {
		slog.Debug("no .env file found, using environment variables")
	} else {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	core.MaxFileSize = cfg.Normalize.MaxFileSize
	return cfg, nil
}

// newService builds the run service from cfg. limiter may be nil.
func newService(cfg *config.Config, shards int, limiter *core.RunLimiter) (*core.Service, error) {
	rule, err := core.NameRuleByName(cfg.Normalize.NameRule)
	if err != nil {
		return nil, err
	}
	if shards <= 0 {
		shards = cfg.Normalize.Shards
	}
	return core.NewService(core.ServiceConfig{
		SampleSize: cfg.Normalize.SampleSize,
		Encoding:   cfg.Normalize.Encoding,
		NameRule:   rule,
		Shards:     shards,
		MaxConns:   cfg.Database.MaxConns,
	}, limiter), nil
}

// newStore returns the S3 store when object storage is configured and a
// file store rooted at dir otherwise.
func newStore(cfg *config.Config, dir string) (artifact.Store, bool, error) {
	if !cfg.Storage.Enabled() {
		return artifact.NewFileStore(dir), false, nil
	}
	store, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Prefix:    cfg.Storage.Prefix,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}
