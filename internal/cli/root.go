// Package cli wires configuration, logging, metrics and the stdio transport
// into the solbot-lsp command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ggoodman/solbot-lsp/internal/config"
	"github.com/ggoodman/solbot-lsp/internal/jsonrpc"
	"github.com/ggoodman/solbot-lsp/internal/logctx"
	"github.com/ggoodman/solbot-lsp/internal/metrics"
	"github.com/ggoodman/solbot-lsp/lsp"
	"github.com/ggoodman/solbot-lsp/lspservice"
	"github.com/ggoodman/solbot-lsp/stdio"
)

// flags holds command-line values. They override the loaded config only
// when explicitly set.
type flags struct {
	configPath       string
	envFile          string
	logFile          string
	logLevel         string
	logFormat        string
	lenient          bool
	maxContentLength int
	metricsAddr      string
}

// Execute runs the command line and returns the process exit status: 0
// after an orderly shutdown and exit, 1 otherwise.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(version)
	return run(ctx, cmd)
}

func run(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, stdio.ErrExitWithoutShutdown):
		// Protocol-mandated status; already logged by the server.
		return 1
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
}

func newRootCommand(version string) *cobra.Command {
	var f flags

	serve := func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd, version, &f)
	}

	rootCmd := &cobra.Command{
		Use:           "solbot-lsp",
		Short:         "Language server speaking LSP over stdin/stdout",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to a YAML or JSON config file (env: "+config.EnvConfigFile+")")
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading the environment; ignored when missing")
	pf.StringVar(&f.logFile, "log-file", "", "log file path, or - for stderr (default: $TMPDIR/solbot-lsp.log)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error (default: info)")
	pf.StringVar(&f.logFormat, "log-format", "", "log format: text or json (default: text)")
	pf.BoolVar(&f.lenient, "lenient", false, "drop wrongly typed method and id members instead of rejecting the message")
	pf.IntVar(&f.maxContentLength, "max-content-length", 0, "maximum message body size in bytes")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve LSP on stdin/stdout (default)",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		newConfigCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "solbot-lsp %s\n", version)
				return err
			},
		},
	)
	return rootCmd
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration format",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := json.MarshalIndent(config.Schema(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode schema: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
			return err
		},
	})
	return configCmd
}

// loadConfig layers explicitly set flags over the loaded config.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if fs.Changed("lenient") {
		cfg.Lenient = f.lenient
	}
	if fs.Changed("max-content-length") {
		cfg.MaxContentLength = f.maxContentLength
	}
	if fs.Changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, version string, f *flags) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	var level slog.LevelVar
	lvl, _ := config.ParseLevel(cfg.LogLevel) // validated above
	level.Set(lvl)

	logOut, closeLog, err := openLog(cfg.LogFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	log := newLogger(logOut, cfg.LogFormat, &level)
	slog.SetDefault(log)

	log.InfoContext(ctx, "server.start",
		slog.String("version", version),
		slog.Int("pid", os.Getpid()),
		slog.String("log_level", lvl.String()),
		slog.Bool("lenient", cfg.Lenient),
	)

	configPath := f.configPath
	if configPath == "" {
		configPath = os.Getenv(config.EnvConfigFile)
	}
	if configPath != "" {
		// Runs before closeLog so the watcher never logs to a closed file.
		stopWatch := startWatcher(ctx, configPath, &level, cmd.Flags().Changed("log-level"), log)
		defer stopWatch()
	}

	rec := metrics.New()
	if cfg.MetricsAddr != "" {
		stopMetrics := serveMetrics(ctx, cfg.MetricsAddr, rec, log)
		defer stopMetrics()
	}

	srv := lspservice.NewServer(
		lspservice.WithServerInfo(lsp.ServerInfo{Name: "solbot-lsp", Version: version}),
		lspservice.WithLogger(log),
	)
	h := stdio.NewHandler(srv,
		stdio.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
		stdio.WithLogger(log),
		stdio.WithMetrics(rec),
		stdio.WithExtractOptions(jsonrpc.ExtractOptions{Lenient: cfg.Lenient}),
		stdio.WithMaxContentLength(cfg.MaxContentLength),
	)

	err = h.Serve(ctx)
	switch {
	case err == nil:
		log.InfoContext(ctx, "server.stop")
	case errors.Is(err, stdio.ErrExitWithoutShutdown):
		log.WarnContext(ctx, "server.stop.without_shutdown")
	default:
		log.ErrorContext(ctx, "server.stop.fail", slog.String("err", err.Error()))
	}
	return err
}

// startWatcher reloads the log level from path while serving. A level set on
// the command line stays pinned. The returned function stops the watcher and
// waits for it to exit.
func startWatcher(ctx context.Context, path string, level *slog.LevelVar, pinned bool, log *slog.Logger) func() {
	w, err := config.NewWatcher(path, level, log, config.WithPinnedLevel(pinned))
	if err != nil {
		log.WarnContext(ctx, "config.watch.unavailable", slog.String("err", err.Error()))
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	return func() {
		cancel()
		<-done
	}
}

// openLog opens the log destination. A regular file is truncated so each
// run starts with a fresh log.
func openLog(path string, stderr io.Writer) (io.Writer, func(), error) {
	if path == "-" {
		return stderr, func() {}, nil
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return fh, func() { _ = fh.Close() }, nil
}

func newLogger(w io.Writer, format string, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(logctx.Handler{Handler: h})
}

// serveMetrics exposes rec on addr until the returned stop function is
// called.
func serveMetrics(ctx context.Context, addr string, rec *metrics.Recorder, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.InfoContext(ctx, "metrics.listen", slog.String("addr", addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "metrics.listen.fail", slog.String("err", err.Error()))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}
}
