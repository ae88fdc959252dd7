package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/heartmarshall/sentence-lab/internal/adapter/provider/anthropic"
	"github.com/heartmarshall/sentence-lab/internal/adapter/provider/deepseek"
	"github.com/heartmarshall/sentence-lab/internal/config"
	"github.com/heartmarshall/sentence-lab/internal/domain"
	"github.com/heartmarshall/sentence-lab/internal/provider"
	"github.com/heartmarshall/sentence-lab/internal/service/translation"
	"github.com/heartmarshall/sentence-lab/internal/transport/middleware"
	"github.com/heartmarshall/sentence-lab/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, initializes
// the logger, serves HTTP until ctx is cancelled and then shuts down
// gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	handler, cleanup, err := NewHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("addr", srv.Addr),
		slog.String("provider", cfg.Upstream.Provider),
		slog.String("log_level", cfg.Log.Level),
	)

	return serve(ctx, srv, cfg.Server, logger)
}

// serve runs srv until ctx is done, then drains in-flight requests for at
// most ShutdownTimeout.
func serve(ctx context.Context, srv *http.Server, cfg config.ServerConfig, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// NewSource builds the configured upstream stream source.
func NewSource(cfg config.UpstreamConfig, logger *slog.Logger) (provider.Source, error) {
	switch cfg.Provider {
	case config.ProviderDeepSeek:
		return deepseek.NewProvider(deepseek.Options{
			BaseURL:     cfg.BaseURL,
			ChatPath:    cfg.ChatPath,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			IdleTimeout: cfg.IdleTimeout,
			MaxTokens:   cfg.MaxTokens,
		}, logger), nil
	case config.ProviderAnthropic:
		return anthropic.NewProvider(anthropic.Options{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			IdleTimeout: cfg.IdleTimeout,
			MaxTokens:   cfg.MaxTokens,
		}, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown upstream provider %q", domain.ErrConfiguration, cfg.Provider)
	}
}

// NewHandler wires provider, service, handlers and the middleware stack.
// The returned cleanup stops background goroutines.
func NewHandler(cfg *config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	source, err := NewSource(cfg.Upstream, logger)
	if err != nil {
		return nil, nil, err
	}
	if !source.Configured() {
		logger.Warn("upstream api key is not set; translation requests will fail",
			slog.String("provider", source.Name()),
		)
	}

	svc := translation.NewService(logger, source, cfg.Stream)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)

	router := rest.NewRouter(rest.RouterDeps{
		Translate: rest.NewTranslateHandler(svc, logger),
		Health:    rest.NewHealthHandler(svc, BuildVersion()),
		Limit:     limiter.Limit(cfg.RateLimit.TranslatePerMinute),
	})

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	)(router)

	return handler, limiter.Stop, nil
}
