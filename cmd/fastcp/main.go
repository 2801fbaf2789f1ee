package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastcp/fastcp/internal/config"
	"github.com/fastcp/fastcp/internal/engine"
	"github.com/fastcp/fastcp/internal/event"
	"github.com/fastcp/fastcp/internal/logutil"
	"github.com/fastcp/fastcp/internal/remote"
	"github.com/fastcp/fastcp/internal/stats"
)

var version = "dev"

func main() {
	os.Exit(run())
}

//nolint:gocyclo // main CLI entry point orchestrates all flag parsing
func run() int {
	var (
		preserveMeta  bool
		verifyFlag    bool
		verbose       bool
		quiet         bool
		logFile       string
		serverAddr    string
		serverPort    int
		compression   int
		fallbackLocal bool
		threadCount   int
		bufferSize    int
		showVersion   bool

		followSymlinks  bool
		ignoreDangling  bool
		allowExisting   bool
		maxDepth        int
		treeBatch       bool
	)

	rootCmd := &cobra.Command{
		Use:           "fastcp",
		Short:         "Fast file copy with optional transfer-engine offload",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "fastcp %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&preserveMeta, "preserve-metadata", "p", false, "preserve permissions and timestamps")
	rootCmd.PersistentFlags().
		BoolVar(&verifyFlag, "verify", false, "verify checksums after copy (BLAKE3)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().
		StringVar(&logFile, "log", "", "write structured JSON log to FILE")
	rootCmd.PersistentFlags().
		StringVar(&serverAddr, "server", "", "offload copies to a transfer-engine server at ADDR")
	rootCmd.PersistentFlags().
		IntVar(&serverPort, "port", remote.DefaultPort, "transfer-engine server port")
	rootCmd.PersistentFlags().
		IntVar(&compression, "compression", 0, "server-side compression level (0 disables)")
	rootCmd.PersistentFlags().
		BoolVar(&fallbackLocal, "fallback-local", false, "fall back to local copy when the server fails")
	rootCmd.PersistentFlags().
		IntVar(&threadCount, "threads", 0, "server worker thread hint (0 uses server default)")
	rootCmd.PersistentFlags().
		IntVar(&bufferSize, "buffer-size", 0, "server copy buffer hint in bytes (0 uses server default)")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	// setup assembles the shared runtime once flags and config are final.
	setup := func(cmd *cobra.Command) (*app, error) {
		cfg, err := config.Load()
		if err != nil {
			slog.Warn("failed to load config", "error", err)
		}

		flags := cmd.Flags()
		if !flags.Changed("preserve-metadata") && cfg.Defaults.PreserveMetadata != nil {
			preserveMeta = *cfg.Defaults.PreserveMetadata
		}
		if !flags.Changed("verify") && cfg.Defaults.Verify != nil {
			verifyFlag = *cfg.Defaults.Verify
		}
		if !flags.Changed("threads") && cfg.Defaults.ThreadCount != nil {
			threadCount = *cfg.Defaults.ThreadCount
		}
		if !flags.Changed("buffer-size") && cfg.Defaults.BufferSize != nil {
			bufferSize = *cfg.Defaults.BufferSize
		}
		if !flags.Changed("server") && cfg.Server.Address != nil {
			serverAddr = *cfg.Server.Address
		}
		if !flags.Changed("port") && cfg.Server.Port != nil {
			serverPort = *cfg.Server.Port
		}
		if !flags.Changed("compression") && cfg.Server.CompressionLevel != nil {
			compression = *cfg.Server.CompressionLevel
		}
		if !flags.Changed("fallback-local") && cfg.Server.FallbackLocal != nil {
			fallbackLocal = *cfg.Server.FallbackLocal
		}

		logLevel := slog.LevelWarn
		if verbose {
			logLevel = slog.LevelDebug
		} else if !quiet {
			logLevel = slog.LevelInfo
		}
		textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
		var logHandler slog.Handler = textHandler
		closeLog := func() {}
		if logFile != "" {
			lf, lfErr := os.Create(logFile)
			if lfErr != nil {
				return nil, fmt.Errorf("open log file: %w", lfErr)
			}
			closeLog = func() { lf.Close() }
			jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})
			logHandler = logutil.NewMultiHandler(textHandler, jsonHandler)
		}
		logger := slog.New(logHandler)
		slog.SetDefault(logger)

		collector := stats.NewCollector()
		events := make(chan event.Event, 256)

		a := &app{
			log:       logger,
			collector: collector,
			events:    events,
			quiet:     quiet,
			closeLog:  closeLog,
		}
		a.engine = engine.New(engine.Options{
			Logger: logger,
			Stats:  collector,
			Events: events,
			Verify: verifyFlag,
		})
		if serverAddr != "" {
			a.adapter = remote.NewAdapter(a.engine, remote.Options{
				FallbackLocal: fallbackLocal,
				DialTimeout:   10 * time.Second,
				Logger:        logger,
				Events:        events,
				ThreadCount:   threadCount,
				BufferSize:    bufferSize,
			})
		}

		a.consumerWg.Add(1)
		go func() {
			defer a.consumerWg.Done()
			a.consumeEvents()
		}()
		return a, nil
	}

	remoteTarget := func() *engine.RemoteTarget {
		if serverAddr == "" {
			return nil
		}
		return &engine.RemoteTarget{
			Address:          serverAddr,
			Port:             serverPort,
			CompressionLevel: compression,
		}
	}

	cpCmd := &cobra.Command{
		Use:   "cp <source> <destination>",
		Short: "Copy a single file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.shutdown()

			ctx, stop := signalContext()
			defer stop()

			spec := engine.Spec{
				Source:           args[0],
				Dest:             args[1],
				PreserveMetadata: preserveMeta,
				Remote:           remoteTarget(),
			}
			var out engine.Outcome
			if a.adapter != nil {
				out = a.adapter.Copy(ctx, spec)
			} else {
				out = a.engine.CopyFile(ctx, spec)
			}
			return a.finish([]engine.Outcome{out})
		},
	}

	cptreeCmd := &cobra.Command{
		Use:   "cptree <source> <destination>",
		Short: "Copy a directory tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.shutdown()

			ctx, stop := signalContext()
			defer stop()

			spec := engine.Spec{
				Source:                 args[0],
				Dest:                   args[1],
				PreserveMetadata:       preserveMeta,
				FollowSymlinks:         followSymlinks,
				IgnoreDanglingSymlinks: ignoreDangling,
				AllowExistingDest:      allowExisting,
				MaxDepth:               maxDepth,
				Remote:                 remoteTarget(),
			}
			var out engine.Outcome
			if a.adapter != nil {
				out = a.adapter.Copy(ctx, spec)
			} else {
				out = a.engine.CopyTree(ctx, spec)
			}
			return a.finish([]engine.Outcome{out})
		},
	}
	cptreeCmd.Flags().
		BoolVarP(&followSymlinks, "follow-symlinks", "s", false, "copy symlink targets instead of skipping links")
	cptreeCmd.Flags().
		BoolVar(&ignoreDangling, "ignore-dangling-symlinks", false, "skip symlinks whose target is missing")
	cptreeCmd.Flags().
		BoolVarP(&allowExisting, "allow-existing", "d", false, "allow the destination directory to exist")
	cptreeCmd.Flags().
		IntVar(&maxDepth, "max-depth", -1, "limit recursion depth (-1 is unlimited)")

	batchCmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Run many copies listed in a file (one 'source<TAB>dest' per line, '-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			for i := range specs {
				specs[i].PreserveMetadata = preserveMeta
				specs[i].MaxDepth = -1
				specs[i].Remote = remoteTarget()
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.shutdown()

			ctx, stop := signalContext()
			defer stop()

			op := engine.OpFileCopy
			if treeBatch {
				op = engine.OpTreeCopy
			} else if preserveMeta {
				op = engine.OpFileCopyMeta
			}

			var outcomes []engine.Outcome
			if a.adapter != nil {
				outcomes = a.adapter.RunBatch(ctx, op, specs)
			} else {
				outcomes = a.engine.RunBatch(ctx, op, specs)
			}
			return a.finish(outcomes)
		},
	}
	batchCmd.Flags().
		BoolVar(&treeBatch, "tree", false, "treat every line as a directory tree copy")

	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(cptreeCmd)
	rootCmd.AddCommand(batchCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

// app holds the runtime shared by every subcommand.
type app struct {
	log        *slog.Logger
	engine     *engine.Engine
	adapter    *remote.Adapter
	collector  *stats.Collector
	events     chan event.Event
	consumerWg sync.WaitGroup
	quiet      bool
	closeLog   func()
}

// consumeEvents drains the engine's progress events into the logger.
func (a *app) consumeEvents() {
	for ev := range a.events {
		attrs := []any{"path", ev.Path}
		switch ev.Type {
		case event.FileCopied:
			attrs = append(attrs, "size", stats.FormatBytes(ev.Size))
			a.log.Debug("copied", attrs...)
		case event.FileSkipped:
			a.log.Debug("skipped", attrs...)
		case event.DirCreated:
			a.log.Debug("created directory", attrs...)
		case event.FileFailed:
			if ev.Error != nil {
				attrs = append(attrs, "error", ev.Error.Error())
			}
			a.log.Warn("failed", attrs...)
		case event.RemoteFallback:
			a.log.Warn("server unavailable, copied locally", attrs...)
		}
	}
}

// finish prints the summary and converts outcomes to the process exit code:
// 0 all succeeded, 1 some failed, 2 all failed.
func (a *app) finish(outcomes []engine.Outcome) error {
	failed := 0
	for _, out := range outcomes {
		if !out.OK() {
			failed++
			a.log.Error("copy failed", "error", out.Err)
		}
	}

	if !a.quiet {
		fmt.Fprintln(os.Stderr, a.collector.Snapshot().String())
	}

	switch {
	case failed == 0:
		return nil
	case failed < len(outcomes):
		return &exitError{code: 1}
	default:
		return &exitError{code: 2}
	}
}

func (a *app) shutdown() {
	close(a.events)
	a.consumerWg.Wait()
	engine.CleanupTmpFiles()
	a.closeLog()
}

// readBatchFile parses "source<TAB>dest" lines. Blank lines and lines
// starting with '#' are ignored.
func readBatchFile(path string) ([]engine.Spec, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var specs []engine.Spec
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		src, dst, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: expected 'source<TAB>dest', got %q", lineNo, line)
		}
		specs = append(specs, engine.Spec{
			Source: strings.TrimSpace(src),
			Dest:   strings.TrimSpace(dst),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return specs, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
