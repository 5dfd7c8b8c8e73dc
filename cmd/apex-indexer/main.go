package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	apexindex "github.com/KamilGolis/Apex-Indexer-LS"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/server"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/symbol"
	"github.com/KamilGolis/Apex-Indexer-LS/internal/watch"
	"github.com/spf13/cobra"
)

var (
	flagFormat  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "apex-indexer",
	Short:         "Name-keyed symbol index for Apex projects",
	Long:          "apex-indexer parses Apex classes and triggers with tree-sitter and answers definition and reference lookups, either from the command line or as an editor language server.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log indexing detail to stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(defsCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

// newEngine builds an engine logging to stderr and indexes the workspace
// containing startPath.
func newEngine(ctx context.Context, startPath string) (*apexindex.Engine, error) {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	engine := apexindex.New(apexindex.WithLogger(logger))
	if err := engine.Initialize(ctx, startPath); err != nil {
		return nil, err
	}
	return engine, nil
}

func startPathArg(args []string) string {
	if len(args) > 0 {
		return args[len(args)-1]
	}
	return "."
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a workspace and report what was found",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		engine, err := newEngine(cmd.Context(), startPathArg(args))
		if err != nil {
			return err
		}

		stats := engine.Stats()
		fmt.Fprintf(os.Stderr, "Indexed %s in %s\n",
			engine.Root(), time.Since(start).Round(time.Millisecond))
		return outputStats(flagFormat, stats)
	},
}

var defsCmd = &cobra.Command{
	Use:   "defs NAME [path]",
	Short: "Print the locations where a symbol is defined",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd.Context(), startPathArg(args[1:]))
		if err != nil {
			return err
		}
		return outputLocations(flagFormat, engine.FindDefinitions(args[0]))
	},
}

var refsCmd = &cobra.Command{
	Use:   "refs NAME [path]",
	Short: "Print the locations where a symbol is referenced",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd.Context(), startPathArg(args[1:]))
		if err != nil {
			return err
		}
		return outputLocations(flagFormat, engine.FindReferences(args[0]))
	},
}

var flagKind string

var searchCmd = &cobra.Command{
	Use:   "search QUERY [path]",
	Short: "Find definitions whose name contains a substring",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKindFlag(flagKind)
		if err != nil {
			return err
		}
		engine, err := newEngine(cmd.Context(), startPathArg(args[1:]))
		if err != nil {
			return err
		}
		defs := engine.SearchDefinitions(args[0])
		if kind != "" {
			defs = filterByKind(defs, kind)
		}
		return outputDefinitions(flagFormat, defs)
	},
}

func init() {
	searchCmd.Flags().StringVar(&flagKind, "kind", "", "only show definitions of this kind (class, interface, enum, method, property, constructor, trigger)")
}

func parseKindFlag(s string) (apexindex.Kind, error) {
	if s == "" {
		return "", nil
	}
	k := symbol.ParseKind(s)
	if k == apexindex.KindUnknown {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

func filterByKind(defs []apexindex.Definition, kind apexindex.Kind) []apexindex.Definition {
	out := defs[:0]
	for _, d := range defs {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index a workspace and keep it fresh as files change",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, err := newEngine(ctx, startPathArg(args))
		if err != nil {
			return err
		}
		stats := engine.Stats()
		fmt.Fprintf(os.Stderr, "Watching %s (%d files, %d definitions)\n",
			engine.Root(), stats.Files, stats.Definitions)

		w, err := watch.New(engine.Root(), engine.Config(), engine)
		if err != nil {
			return err
		}
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a language server on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stdout carries the protocol; all logging goes to stderr.
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		s := server.New(os.Stdin, os.Stdout, server.WithLogger(logger))
		return s.Run(cmd.Context())
	},
}
