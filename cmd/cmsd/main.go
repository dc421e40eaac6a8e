// Package main provides cmsd, the HTTP server for the sitecms admin and
// public API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
	"github.com/calvinalkan/sitecms/internal/config"
	"github.com/calvinalkan/sitecms/internal/fs"
	"github.com/calvinalkan/sitecms/internal/httpapi"
	"github.com/calvinalkan/sitecms/internal/routes"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("cmsd", flag.ContinueOnError)
	workDir := flags.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := flags.StringP("config", "c", "", "Use specified config `file`")
	dataDir := flags.String("data-dir", "", "Override the data `dir`")
	listen := flags.String("listen", "", "Listen `address` (host:port)")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	wd := *workDir
	if wd == "" {
		wd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	env, err := config.Environ(wd, os.Environ())
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: wd,
		ConfigPath:      *configPath,
		DataDirOverride: *dataDir,
		ListenOverride:  *listen,
		Env:             env,
	})
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	dbCfg := cmsdb.Config{
		Dir:           cfg.DataDirAbs,
		CacheTTL:      time.Duration(cfg.CacheTTL),
		LockTimeout:   time.Duration(cfg.LockTimeout),
		RequiredPages: cfg.RequiredPages,
		ContactPage:   cfg.ContactPage,
		Logger:        logger,
	}

	if cfg.RoutesDirAbs != "" {
		dbCfg.DiscoverRoutes = routes.Source(fs.NewReal(), cfg.RoutesDirAbs)
	}

	db, err := cmsdb.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	defer func() { _ = db.Close() }()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.New(db, httpapi.Options{Logger: logger, CORSOrigins: cfg.CORSOrigins}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("listening", slog.String("addr", cfg.Listen), slog.String("data_dir", cfg.DataDirAbs))

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
