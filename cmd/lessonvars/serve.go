package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/lessonvars/internal/config"
	"github.com/vango-dev/lessonvars/internal/dev"
	"github.com/vango-dev/lessonvars/internal/metrics"
	"github.com/vango-dev/lessonvars/internal/server"
	"github.com/vango-dev/lessonvars/pkg/binding"
	"github.com/vango-dev/lessonvars/pkg/page"
	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/store"
)

type serveOptions struct {
	configPath string
	addr       string
	vars       string
	dev        bool
	watch      bool
	metrics    bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the lesson's shared variables",
		Long: `Host the lesson's shared variables over HTTP and WebSocket.

Settings come from lessonvars.json in the working directory (or --config)
and are overridden by flags. Without a declaration source the built-in
sine lesson is served.

Examples:
  lessonvars serve
  lessonvars serve --vars=lesson/variables.yaml --dev --watch
  lessonvars serve --vars=s3://lessons/sine/variables.yaml --addr=0.0.0.0:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to lessonvars.json (default ./lessonvars.json if present)")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "Address to listen on, host:port (default from config)")
	cmd.Flags().StringVar(&opts.vars, "vars", "", "Declaration file or s3://bucket/key")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "Enable development diagnostics")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Reload declarations when the file changes")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Expose Prometheus metrics on /metrics")

	return cmd
}

// loadServeConfig reads the configuration and applies flag overrides.
func loadServeConfig(opts serveOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	default:
		cfg, err = config.Load(".")
		if stderrors.Is(err, fs.ErrNotExist) {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.addr != "" {
		host, port, err := net.SplitHostPort(opts.addr)
		if err != nil {
			return nil, fmt.Errorf("--addr: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("--addr: invalid port %q", port)
		}
		cfg.Server.Host = host
		cfg.Server.Port = p
	}
	if opts.vars != "" {
		source := opts.vars
		if loc, err := registry.ParseLocation(source); err == nil && !loc.IsS3() {
			if abs, err := filepath.Abs(source); err == nil {
				source = abs
			}
		}
		cfg.Variables.Source = source
	}
	if opts.dev {
		cfg.Dev.Enabled = true
	}
	if opts.watch {
		cfg.Dev.Watch = true
	}
	if opts.metrics {
		cfg.Metrics.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runServe serves until ctx is cancelled.
func runServe(ctx context.Context, opts serveOptions, stdout, stderr io.Writer) error {
	cfg, err := loadServeConfig(opts)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(stderr)

	reg, loc, err := loadConfigDeclarations(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Dev.Watch && loc.Path == "" {
		return stderrors.New("--watch needs a declaration file (--vars or variables.source)")
	}

	pageOpts := page.Options{
		Dev:          cfg.Dev.Enabled,
		Logger:       logger,
		StoreOptions: cfg.StoreOptions(),
	}
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace))
		pageOpts.StoreOptions = append(pageOpts.StoreOptions, store.WithObserver(collector))
		pageOpts.BinderOptions = append(pageOpts.BinderOptions, binding.WithMismatchHook(collector.KindMismatch))
	}

	p := page.New(reg, pageOpts)
	defer p.Dispose()

	srv := server.New(p, server.Options{
		Addr:            cfg.Address(),
		SendBuffer:      cfg.Server.SendBuffer,
		ShutdownTimeout: cfg.ShutdownTimeoutDuration(),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Logger:          logger,
		Metrics:         collector,
	})

	printBanner(stdout)
	info(stdout, "Lesson:       %s", lessonName(cfg, reg))
	info(stdout, "Variables:    %d", reg.Len())
	info(stdout, "Listening on: http://%s", cfg.Address())
	if cfg.Dev.Enabled {
		warn(stdout, "Development diagnostics enabled")
	}
	fmt.Fprintln(stdout)

	var watch func(context.Context) (func(), error)
	if cfg.Dev.Watch {
		watch = func(ctx context.Context) (func(), error) {
			watcher, err := dev.NewWatcher(dev.Config{
				Path:      loc.Path,
				Debounce:  cfg.DebounceDuration(),
				Logger:    logger,
				ErrOutput: stderr,
				OnError:   srv.NotifyError,
			}, func(reg *registry.Registry) {
				p.Reload(reg)
				srv.NotifyReload(reg)
			})
			if err != nil {
				return nil, err
			}
			if err := watcher.Start(ctx); err != nil {
				return nil, err
			}
			info(stdout, "Watching %s", loc.Path)
			return watcher.Stop, nil
		}
	}
	return serveGroup(ctx, srv.Run, watch)
}

// serveGroup starts watch, when set, and then runs run until ctx is done or
// run fails. If watch fails, run is never called.
func serveGroup(ctx context.Context, run func(context.Context) error, watch func(context.Context) (func(), error)) error {
	g, gctx := errgroup.WithContext(ctx)
	if watch != nil {
		stop, err := watch(gctx)
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			stop()
			return nil
		})
	}
	g.Go(func() error {
		return run(gctx)
	})
	return g.Wait()
}

func lessonName(cfg *config.Config, reg *registry.Registry) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	if reg.Source() != "" {
		return reg.Source()
	}
	return "sine (built-in)"
}
