package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/pkg/shortcode"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
)

func newLogger(cfg *config.Config) *httplog.Logger {
	level := slog.LevelDebug
	if cfg.IsProd() {
		level = slog.LevelInfo
	}

	return httplog.NewLogger("shortlink", httplog.Options{
		JSON:           cfg.IsProd(),
		LogLevel:       level,
		Concise:        !cfg.IsProd(),
		RequestHeaders: true,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

func newHandler(cfg *config.Config, logger *httplog.Logger, s store) http.Handler {
	uc := usecase.NewURLUseCase(
		usecase.Settings{
			Scheme:     cfg.ShortURL.Scheme,
			Hostname:   cfg.ShortURL.Hostname,
			CodeLength: cfg.ShortURL.Length,
			MaxRetries: cfg.ShortURL.MaxRetries,
		},
		s,
		s,
		shortcode.New(),
	)

	return delivery.NewRouter(
		logger,
		uc,
		delivery.WithIgnoredPaths(cfg.IgnoredPaths...),
		delivery.WithDebugErrors(!cfg.IsProd()),
	)
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg)

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close storage", slog.Any("err", err))
		}
	}()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        newHandler(cfg, logger, s),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("storage", cfg.Storage.Driver),
		)

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
