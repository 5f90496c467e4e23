package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dumpmerge/internal/artifact"
	"github.com/JonMunkholm/dumpmerge/internal/core"
)

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	table, _ := cmd.Flags().GetString("table")
	sheet, _ := cmd.Flags().GetString("sheet")
	encoding, _ := cmd.Flags().GetString("encoding")
	shards, _ := cmd.Flags().GetInt("shards")
	toStdout, _ := cmd.Flags().GetBool("stdout")
	fromDB, _ := cmd.Flags().GetBool("database")

	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	var location string
	switch {
	case fromDB:
		if cfg.Database.URL == "" {
			return errors.New("--database requires DATABASE_URL")
		}
		location = cfg.Database.URL
	case len(args) == 1:
		location = args[0]
	default:
		location, err = promptPath(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}

	service, err := newService(cfg, shards, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	label := location
	if fromDB {
		label = "database"
	}
	result, err := service.Run(ctx, core.RunRequest{
		Location: location,
		Label:    label,
		Table:    table,
		Sheet:    sheet,
		Encoding: encoding,
		Reporter: core.NewLogReporter(slog.Default().With("source", label)),
	})
	if err != nil {
		return err
	}

	data, err := artifact.Encode(result.Mapping)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	out := cmd.OutOrStdout()
	if toStdout {
		_, err := fmt.Fprintf(out, "%s\n", data)
		return err
	}

	store, remote, err := newStore(cfg, outDir)
	if err != nil {
		return err
	}

	name := outputName(location, table, fromDB, cfg.Output.Suffix)
	if remote || outDir != "" {
		name = filepath.Base(name)
	}

	written, err := store.Put(ctx, name, data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(out, "Finished processing. Total entries: %d\n", result.Mapping.Len())
	fmt.Fprintf(out, "Data has been written to %s\n", written)
	return nil
}

// promptPath asks for the input path on in.
func promptPath(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter the input file path: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input path: %w", err)
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", errors.New("no input file path given")
	}
	return path, nil
}

// outputName names the output document. Database sources are named after
// the table they were read from.
func outputName(location, table string, fromDB bool, suffix string) string {
	if !fromDB {
		return artifact.OutputName(location, suffix)
	}
	if table == "" {
		table = "database"
	}
	if suffix == "" {
		suffix = artifact.DefaultSuffix
	}
	return strings.ReplaceAll(table, ".", "_") + suffix
}
