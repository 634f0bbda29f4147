/*
Package main is the entry point for the rxtld command-line application.

rxtld downloads the IANA list of top-level domains and prints it, optionally with
some lines stripped, lowercased, or with punycode entries rendered in Unicode:

	rxtld                       # ['# Version ...', 'AAA', 'AARP', ...]
	rxtld -s '#' -l             # ['aaa', 'aarp', ...]
	rxtld -s '#' -s XN-- -f lines

The `save` subcommand stores the raw list on disk; `--source-file` reads such a copy
instead of going to the network.

Exactly one request is made per run and it is never retried. When the list cannot be
read, a fixed message is printed on stdout, the cause is logged on stderr and the
process exits with status 1. SIGINT and SIGTERM cancel the request in flight.
*/
package main

/*
rxtld — fetch and tidy the IANA list of top-level domains
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/x-stp/rxtld/internal/client"
	rxio "github.com/x-stp/rxtld/internal/io"
	"github.com/x-stp/rxtld/internal/metrics"
	"github.com/x-stp/rxtld/internal/tldlist"
	"github.com/x-stp/rxtld/internal/util"
)

// errReported marks a failure that was already reported to the user and logged.
var errReported = errors.New("failure already reported")

// options holds every flag value. A fresh set is bound per command tree.
type options struct {
	debug         bool
	stripPatterns []string
	lowercase     bool
	unicode       bool
	url           string
	timeout       time.Duration
	maxBytes      int64
	format        string
	outputPath    string
	compress      bool
	sourceFile    string
	metricsFile   string
	savePath      string
}

func (o *options) validate() error {
	if o.timeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %v", o.timeout)
	}
	if o.maxBytes <= 0 {
		return fmt.Errorf("--max-bytes must be positive, got %d", o.maxBytes)
	}
	if o.url == "" {
		return errors.New("--url must not be empty")
	}
	return nil
}

// newLogger returns the diagnostic logger; --debug lowers the level from Info to Debug.
func (o *options) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *options) httpSource() *tldlist.HTTPSource {
	return &tldlist.HTTPSource{
		URL:      o.url,
		Client:   client.New(&client.Config{RequestTimeout: o.timeout}),
		MaxBytes: o.maxBytes,
	}
}

func (o *options) source() tldlist.Source {
	if o.sourceFile != "" {
		return &tldlist.FileSource{Path: o.sourceFile, MaxBytes: o.maxBytes}
	}
	return o.httpSource()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "rxtld",
		Short:         "rxtld - fetch the IANA list of top-level domains",
		Args:          stripArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.stripPatterns = append(opts.stripPatterns, args...)
			return runList(cmd, opts)
		},
	}

	// Persistent flags (available for all commands)
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	pf.StringVar(&opts.url, "url", tldlist.DefaultURL, "URL of the TLD list")
	pf.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Timeout for the whole request, body included")
	pf.Int64Var(&opts.maxBytes, "max-bytes", tldlist.DefaultMaxBytes, "Largest list body accepted, in bytes")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file (textfile collector format)")

	f := rootCmd.Flags()
	f.StringArrayVarP(&opts.stripPatterns, "strip", "s", nil, "Remove lines containing this literal substring (repeatable; further patterns may follow as arguments)")
	f.BoolVarP(&opts.lowercase, "lowercase", "l", false, "Convert data to lowercase")
	f.BoolVarP(&opts.unicode, "unicode", "u", false, "Show punycode (xn--) entries in Unicode")
	f.StringVarP(&opts.format, "format", "f", string(tldlist.FormatList), "Output format: list, lines or json")
	f.StringVarP(&opts.outputPath, "output", "o", "", "Write the result to this file instead of stdout")
	f.BoolVar(&opts.compress, "compress", false, "Gzip the output file")
	f.StringVar(&opts.sourceFile, "source-file", "", "Read the list from a file saved with 'rxtld save' instead of the network")

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Fetch the TLD list and save it unchanged to a local file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, opts)
		},
	}
	saveCmd.Flags().StringVarP(&opts.savePath, "output", "o", "", "Output file for the TLD list (default: last segment of --url)")

	rootCmd.AddCommand(saveCmd)
	return rootCmd
}

// stripArgs accepts positional arguments only as extra strip patterns, so both
// `-s '#' -s XN--` and `-s '#' XN--` work.
func stripArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 && !cmd.Flags().Changed("strip") {
		return fmt.Errorf("unexpected argument %q: patterns must follow -s/--strip", args[0])
	}
	return nil
}

// runList is the handler for the root command.
func runList(cmd *cobra.Command, opts *options) error {
	format, err := tldlist.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return err
	}
	if opts.compress && opts.outputPath == "" {
		return errors.New("--compress requires --output")
	}

	logger := opts.newLogger(cmd.ErrOrStderr())
	m := metrics.New()
	defer writeMetrics(logger, m, opts.metricsFile)

	src := opts.source()
	logger.Debug("Starting TLD list fetch",
		"source", src.Name(),
		"url", opts.url,
		"source_file", opts.sourceFile,
		"strip", opts.stripPatterns,
		"lowercase", opts.lowercase,
		"unicode", opts.unicode,
		"timeout", opts.timeout,
	)

	p := &tldlist.Pipeline{
		Source: src,
		Options: tldlist.Options{
			StripPatterns: opts.stripPatterns,
			Lowercase:     opts.lowercase,
			Unicode:       opts.unicode,
		},
		Logger:  logger,
		Metrics: m,
	}
	res, runErr := p.Run(cmd.Context())
	if runErr != nil {
		// The failure message always goes to stdout, even with --output.
		if err := (&tldlist.Reporter{Out: cmd.OutOrStdout()}).Failure(); err != nil {
			logger.Error("Failed to print error message", "error", err)
		}
		return errReported
	}

	if opts.outputPath == "" {
		return (&tldlist.Reporter{Out: cmd.OutOrStdout(), Format: format}).Report(res)
	}

	out, err := rxio.Create(opts.outputPath, opts.compress)
	if err != nil {
		return err
	}
	defer out.Abort()
	if err := (&tldlist.Reporter{Out: out, Format: format}).Report(res); err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}
	logger.Info("Wrote TLD list", "path", out.Path(), "entries", len(res.Lines))
	return nil
}

// runSave is the handler for the 'save' command. It always fetches from --url.
func runSave(cmd *cobra.Command, opts *options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if opts.savePath == "" {
		opts.savePath = util.FilenameFromURL(opts.url)
	}
	logger := opts.newLogger(cmd.ErrOrStderr())
	m := metrics.New()
	defer writeMetrics(logger, m, opts.metricsFile)

	src := opts.httpSource()
	logger.Info("Fetching TLD list", "url", src.URL, "output", opts.savePath)

	doc, err := (&tldlist.Pipeline{Source: src, Logger: logger, Metrics: m}).Fetch(cmd.Context())
	if err != nil {
		if err := (&tldlist.Reporter{Out: cmd.OutOrStdout()}).Failure(); err != nil {
			logger.Error("Failed to print error message", "error", err)
		}
		return errReported
	}

	out, err := rxio.Create(opts.savePath, false)
	if err != nil {
		return err
	}
	defer out.Abort()
	if _, err := out.Write(doc.Body); err != nil {
		return fmt.Errorf("error saving TLD list to '%s': %w", opts.savePath, err)
	}
	if err := out.Commit(); err != nil {
		return fmt.Errorf("error saving TLD list to '%s': %w", opts.savePath, err)
	}
	logger.Info("Successfully saved TLD list", "path", opts.savePath, "bytes", len(doc.Body), "xxh3", doc.DigestHex())

	saved, err := verifySaved(cmd.Context(), opts.savePath, opts.maxBytes, doc)
	if err != nil {
		return err
	}
	m.MarkSuccess(time.Now())
	logger.Info("Verified saved TLD list", "path", opts.savePath, "lines", len(saved.Lines))
	return nil
}

// verifySaved reads path back the way --source-file will and checks it matches want.
func verifySaved(ctx context.Context, path string, maxBytes int64, want *tldlist.Document) (*tldlist.Document, error) {
	saved, err := (&tldlist.FileSource{Path: path, MaxBytes: maxBytes}).Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read back saved TLD list: %w", err)
	}
	if saved.Digest != want.Digest {
		return nil, fmt.Errorf("saved TLD list %s does not match the fetched copy", path)
	}
	return saved, nil
}

// writeMetrics writes the metrics textfile when path is set. Failures are logged only.
func writeMetrics(logger *slog.Logger, m *metrics.Metrics, path string) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Error("Failed to write metrics", "error", err)
		return
	}
	logger.Debug("Wrote metrics", "path", path)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		fmt.Fprintf(os.Stderr, "Received signal %v, cancelling...\n", sig)
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		cancel()
		os.Exit(1)
	}
}
