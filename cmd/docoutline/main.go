package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docoutline/internal/api"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/ledger"
	"github.com/dgallion1/docoutline/internal/mcptool"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const version = "0.1.0"

func usage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `usage: docoutline [batch|serve|mcp] [flags]

  batch   extract every PDF in the input directory (default)
  serve   run the HTTP API
  mcp     serve MCP tools over stdio

flags:
`)
	fs.PrintDefaults()
}

func main() {
	cmd := "batch"
	args := os.Args[1:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() { usage(fs) }
	configFile := fs.String("config", "", "YAML config file (overrides CONFIG_FILE)")
	inDir := fs.String("in", "", "input directory (overrides INPUT_DIR)")
	outDir := fs.String("out", "", "output directory (overrides OUTPUT_DIR)")
	fs.Parse(args)

	cfg, err := loadConfig(*configFile, *inDir, *outDir)

	// MCP speaks JSON-RPC on stdout, so logs go to stderr there.
	logOut := os.Stdout
	if cmd == "mcp" {
		logOut = os.Stderr
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	log := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level}))

	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, closeLedger, err := newRunner(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer closeLedger()

	switch cmd {
	case "batch":
		err = runBatch(ctx, runner, log)
	case "serve":
		err = serve(ctx, runner, log, cfg)
	case "mcp":
		err = serveMCP(ctx, runner, log)
	default:
		usage(fs)
		os.Exit(2)
	}
	if err != nil {
		log.Error("exiting", "command", cmd, "error", err)
		closeLedger()
		os.Exit(1)
	}
}

func loadConfig(file, in, out string) (config.Config, error) {
	cfg := config.Load()
	if file == "" {
		file = cfg.ConfigFile
	}
	if file != "" {
		f, err := config.LoadFile(file)
		if err != nil {
			return cfg, err
		}
		f.Apply(&cfg)
	}
	if in != "" {
		cfg.InputDir = in
	}
	if out != "" {
		cfg.OutputDir = out
	}
	return cfg, cfg.Validate()
}

func newRunner(cfg config.Config, log *slog.Logger) (*pipeline.Runner, func(), error) {
	opts, err := pipeline.ExtractOptions(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	var led pipeline.Ledger
	closeLedger := func() {}
	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return nil, nil, err
		}
		led = l
		closeLedger = func() { l.Close() }
	}
	return pipeline.NewRunner(cfg, opts, led, log), closeLedger, nil
}

func runBatch(ctx context.Context, runner *pipeline.Runner, log *slog.Logger) error {
	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	// Per-document failures are logged and never fail the batch.
	log.Info("batch report", "run_id", rep.RunID, "completed", rep.Completed, "total", rep.Total)
	return nil
}

func serve(ctx context.Context, runner *pipeline.Runner, log *slog.Logger, cfg config.Config) error {
	go runner.Janitor(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(runner, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docoutline", "port", cfg.Port, "version", version)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serveMCP(ctx context.Context, runner *pipeline.Runner, log *slog.Logger) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "docoutline", Version: version}, nil)
	mcptool.Register(srv, runner)
	log.Info("serving mcp on stdio", "version", version)
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
