package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"messenger-forecast-bot/internal/catalog"
	"messenger-forecast-bot/internal/config"
	"messenger-forecast-bot/internal/handler"
	"messenger-forecast-bot/internal/handler/webhook"
	"messenger-forecast-bot/internal/messenger"
	"messenger-forecast-bot/internal/service/bot"
	"messenger-forecast-bot/internal/service/nlu"
	sessionstore "messenger-forecast-bot/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Err(err).Msg("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	replies, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("failed to load reply catalog")
	}
	logger.Info().Int("keywords", replies.Len()).Msg("reply catalog loaded")

	store := sessionstore.NewMemoryStore()
	client := messenger.NewClient(cfg.Messenger.PageAccessToken, logger)

	chatModel, err := cfg.NLU.NewChatModel(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create NLU chat model")
	}

	actions := nlu.NewActions(store, client, logger)
	engine, err := nlu.NewLLMEngine(ctx, chatModel, actions.Table(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize NLU engine")
	}

	botSvc := bot.New(store, replies, client, engine, logger)
	wh := webhook.New(cfg.Messenger.VerifyToken, cfg.Messenger.AppSecret, botSvc, logger)
	router := handler.NewRouter(cfg.Server.AllowedOrigin, wh, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", serverCfg.Addr).Msg("forecast bot listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
