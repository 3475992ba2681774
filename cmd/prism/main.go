package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"prism/internal/api"
	"prism/internal/config"
	"prism/internal/logging"
	"prism/internal/session"
	"prism/internal/storage"
)

// env is everything a command needs, built once in the app's Before hook.
type env struct {
	cfg      config.Config
	log      *logrus.Logger
	store    *storage.Store
	sessions *session.Manager
	client   *api.Client
	closers  []io.Closer
	metrics  *http.Server
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(&env{})
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "prism: %v\n", err)
		code := 1
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			code = exit.ExitCode()
		}
		stop()
		os.Exit(code)
	}
}

func newApp(e *env) *cli.App {
	return &cli.App{
		Name:  "prism",
		Usage: "manage your Prism tasks from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config.toml",
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "override the API base URL",
			},
		},
		Before: func(c *cli.Context) error {
			return e.open(c)
		},
		After: func(c *cli.Context) error {
			return e.close()
		},
		Action:   runTUI(e),
		Commands: commands(e),
		// Exit codes are handled in main so After always runs.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func (e *env) open(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		var err error
		if path, err = config.ResolveConfigPath(); err != nil {
			return err
		}
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.ApplyEnv(&cfg, filepath.Join(filepath.Dir(path), config.DefaultEnvFileName)); err != nil {
		return err
	}
	if u := c.String("api-url"); u != "" {
		cfg.APIBaseURL = u
	}
	e.cfg = cfg

	log, logFile, err := logging.Open(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	e.log = log
	e.closers = append(e.closers, logFile)
	log.WithFields(cfg.Fields()).Debug("config loaded")

	store, err := storage.Open(cfg.SessionDB)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	e.store = store
	e.closers = append(e.closers, store)
	e.sessions = session.NewManager(store)

	opts := []api.Option{
		api.WithTokenSource(e.sessions),
		api.WithLogger(log.WithField("component", "api")),
	}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, api.WithMetrics(api.NewMetrics(reg)))
		e.serveMetrics(cfg.MetricsAddr, reg)
	}

	client, err := api.New(api.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.RequestTimeout(),
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}, opts...)
	if err != nil {
		return err
	}
	e.client = client
	return nil
}

func (e *env) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	e.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := e.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.WithError(err).WithField("addr", addr).Error("metrics server stopped")
		}
	}()
	e.log.WithField("addr", addr).Info("serving metrics")
}

func (e *env) close() error {
	var errs []error
	if e.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, e.metrics.Shutdown(ctx))
		cancel()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// currentSession loads the signed-in session or tells the user to sign in.
func (e *env) currentSession() (session.Session, error) {
	s, err := e.sessions.Current()
	if errors.Is(err, session.ErrAuthenticationMissing) {
		return s, cli.Exit("not signed in: run `prism login` first", 1)
	}
	if err != nil {
		return s, err
	}
	if claims, err := session.Peek(s.Token); err == nil && claims.Expired(time.Now()) {
		e.log.WithField("user", s.User.Email).Info("stored token has expired")
		return s, cli.Exit("your session has expired: run `prism login` again", 1)
	}
	return s, nil
}
