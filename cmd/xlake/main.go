// Command xlake runs a pipeline expression given as a single positional
// argument (spec 6). Grounded on the teacher's cli/main.go: a single cobra
// root command, a signal-driven cancellable context so Ctrl+C propagates
// through the whole call chain, and an error path that prints the wrapped
// error chain to stderr and exits 1 rather than calling os.Exit from deep
// inside the run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xlake-project/xlake/internal/builtins"
	"github.com/xlake-project/xlake/internal/compiler"
	"github.com/xlake-project/xlake/internal/executor"
	"github.com/xlake-project/xlake/internal/model"
	"github.com/xlake-project/xlake/internal/node"
	"github.com/xlake-project/xlake/internal/parser"
	"github.com/xlake-project/xlake/internal/xconfig"
	"github.com/xlake-project/xlake/internal/xlog"
)

func main() {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "xlake [pipeline expression]",
		Short:         "Run a data pipeline expression",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return cmd.Help()
			}
			return run(text, debug)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires config, logging, the built-in node registry, the pipeline
// parser, the compiler, and the executor together for a single batch run.
func run(text string, debug bool) error {
	cfg, err := xconfig.Load()
	if err != nil {
		return err
	}
	if debug {
		cfg.Debug = true
	}

	logger, err := xlog.New(cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := newCancellableContext()
	defer cancel()

	plans, err := parser.Parse(text)
	if err != nil {
		return fmt.Errorf("xlake: %w", err)
	}

	nodes := node.NewRegistry()
	models := model.NewRegistry()
	builtins.RegisterAll(nodes, models, cfg.Store.Dir, cfg.Batch.MemoryLimitMB, logger)

	sequence, err := compiler.Compile(ctx, nodes, plans)
	if err != nil {
		return fmt.Errorf("xlake: %w", err)
	}

	logger.Debug("compiled pipeline", zap.Int("steps", len(sequence)))

	if err := executor.Run(ctx, sequence); err != nil {
		return fmt.Errorf("xlake: %w", err)
	}
	return nil
}

// newCancellableContext cancels on SIGINT/SIGTERM so Ctrl+C propagates
// through the compiler and executor's blocking calls.
func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return ctx, cancel
}
