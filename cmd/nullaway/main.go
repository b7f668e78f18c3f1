//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// main package makes it possible to build NullAway as a standalone checker: it reads the program
// model produced by a front end, checks it and prints the diagnostics.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/nullaway"
	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/diagnostic"
)

// errProblems is returned when errors were reported, so that the process exits with a failure
// status without printing usage.
var errProblems = errors.New("problems found")

type options struct {
	configPath string
	color      string
	jobs       int
	factsIn    []string
	factsOut   string
	includes   []string
	excludes   []string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "nullaway [flags] <units.json|units.msgpack|units.txtar>...",
		Short: "Check the null safety of a resolved program model",
		Long: `NullAway tracks whether expressions and fields may hold null and enforces the nullness
contracts declared via annotations and defaults. Its input is the program model a front end
produces, as JSON, MessagePack or txtar files, optionally zstd-compressed (".zst").`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "configuration file (CUE or JSON); environment variables prefixed with "+config.EnvPrefix+"_ override it")
	flags.StringVar(&opts.color, "color", "auto", "colorize output (auto|on|off)")
	flags.IntVar(&opts.jobs, "jobs", 0, "max number of units checked in parallel (0=auto)")
	flags.StringSliceVar(&opts.factsIn, "facts-in", nil, "contract facts of already checked libraries")
	flags.StringVar(&opts.factsOut, "facts-out", "", "write the contract facts of the checked program to this file")
	flags.StringSliceVar(&opts.includes, "include-errors-in-files", nil, "file prefixes to report diagnostics for, default is every file")
	flags.StringSliceVar(&opts.excludes, "exclude-errors-in-files", nil, "file prefixes to not report diagnostics for; this takes precedence over include-errors-in-files")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log the progress of the analysis")
	return cmd
}

func run(ctx context.Context, opts *options, args []string, stdout, stderr io.Writer) error {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "nullaway"})
	if opts.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	colorize, err := useColor(opts.color)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx, opts.configPath)
	if err != nil {
		return err
	}

	units, err := nullaway.LoadUnits(args...)
	if err != nil {
		return err
	}
	logger.Debug("loaded program model", "files", len(args), "units", len(units))

	var upstream []*annotation.Store
	for _, path := range opts.factsIn {
		s, err := readFacts(path)
		if err != nil {
			return err
		}
		logger.Debug("imported facts", "file", path, "bindings", s.Len())
		upstream = append(upstream, s)
	}

	res, err := nullaway.Analyze(ctx, units, cfg, nullaway.Options{Jobs: opts.jobs, Upstream: upstream})
	if err != nil {
		return err
	}
	logger.Debug("analysis done", "diagnostics", len(res.Diagnostics), "bindings", res.Store.Len())

	if opts.factsOut != "" {
		if err := writeFacts(opts.factsOut, res.Store); err != nil {
			return err
		}
		logger.Debug("exported facts", "file", opts.factsOut)
	}

	f := newFilter(opts.includes, opts.excludes)
	var diags []diagnostic.Diagnostic
	for _, d := range res.Diagnostics {
		if f.keep(d.Span.Filename) {
			diags = append(diags, d)
		}
	}
	for _, d := range diags {
		if d.Kind == diagnostic.InternalError {
			logger.Error("analysis failed", "file", d.Span.Filename, "err", d.Message)
		}
	}

	p := diagnostic.NewPrinter(stdout, nullaway.Sources(units), colorize)
	if err := p.Print(diags); err != nil {
		return fmt.Errorf("print diagnostics: %w", err)
	}
	if err := p.Summary(); err != nil {
		return fmt.Errorf("print diagnostics: %w", err)
	}
	if p.Errors() > 0 {
		return errProblems
	}
	return nil
}

func useColor(mode string) (bool, error) {
	switch mode {
	case "auto":
		return !color.NoColor, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("unknown color mode %q (want auto, on or off)", mode)
}

func readFacts(path string) (*annotation.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open facts: %w", err)
	}
	defer f.Close()
	s, err := annotation.ReadFacts(f)
	if err != nil {
		return nil, fmt.Errorf("read facts %s: %w", path, err)
	}
	return s, nil
}

func writeFacts(path string, s *annotation.Store) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create facts: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := annotation.WriteFacts(f, s); err != nil {
		return fmt.Errorf("write facts %s: %w", path, err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errProblems) {
			fmt.Fprintf(os.Stderr, "nullaway: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
