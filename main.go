package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/raine/copywriter-bot/config"
	"github.com/raine/copywriter-bot/internal/api"
	"github.com/raine/copywriter-bot/internal/bot"
	"github.com/raine/copywriter-bot/internal/generator"
	"github.com/raine/copywriter-bot/internal/llm"
	handoff "github.com/raine/copywriter-bot/internal/session"
	"github.com/raine/copywriter-bot/internal/storage"
)

const logFileName = "copywriter-bot.log"

func main() {
	ensureConfig()

	cfg, err := config.Load()
	if err != nil {
		config.FatalWithWait("invalid config: %v", err)
	}
	closeLog := setupLogging(cfg.LogLevel)
	defer closeLog()

	log.Info().Str("version", bot.Version).Str("buildTime", bot.BuildTime).Msg("starting copywriter bot")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		config.FatalWithWait("failed to initialize telegram bot: %v", err)
	}
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	bot.RegisterCommands(tg, cfg.AdminID)

	var encryptionKey []byte
	if cfg.HistoryKey != "" {
		encryptionKey, err = storage.DeriveKey(cfg.HistoryKey)
		if err != nil {
			config.FatalWithWait("failed to derive encryption key: %v", err)
		}
	} else {
		log.Warn().Msg("HISTORY_KEY is not set, history is stored unencrypted")
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath, encryptionKey)
	if err != nil {
		config.FatalWithWait("failed to initialize store: %v", err)
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	pipeline, err := newPipeline(ctx, cfg, store)
	if err != nil {
		config.FatalWithWait("failed to initialize %s client: %v", cfg.Provider, err)
	}

	// Runs are shared so a user has one generation in flight across the bot
	// and the HTTP API.
	runs := handoff.NewRuns()

	g, ctx := errgroup.WithContext(ctx)

	b := bot.NewBot(tg, store, pipeline, handoff.NewSlots(), runs, cfg.AdminID)
	g.Go(func() error {
		return runBot(ctx, tg, b)
	})

	if cfg.HTTPAddr != "" {
		srv := api.NewServer(store, pipeline, runs)
		g.Go(func() error {
			return runHTTP(ctx, cfg.HTTPAddr, srv.Router(cfg.AllowedOrigins))
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// ensureConfig loads the env file and, when required values are still
// missing, runs the setup wizard on a terminal or exits.
func ensureConfig() {
	config.LoadEnvFile()

	missing := config.CheckRequired()
	switch {
	case len(missing) == 0:
		return
	case !config.IsInteractiveTerminal():
		config.FatalWithWait("missing required config: %s", strings.Join(missing, ", "))
	case !config.RunSetupWizard():
		config.WaitOnWindows()
		os.Exit(1)
	}
}

// setupLogging points the global logger at stderr and, outside systemd, a
// log file next to the binary. The returned func closes the file.
func setupLogging(levelName string) func() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr}
	// journald already keeps the output of services
	if os.Getenv("JOURNAL_STREAM") != "" {
		log.Logger = log.Output(console)
		return func() {}
	}

	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		config.FatalWithWait("failed to open log file: %v", err)
	}
	log.Logger = log.Output(io.MultiWriter(console, zerolog.ConsoleWriter{Out: f, NoColor: true}))
	log.Info().Str("logFile", logFileName).Msg("logging to file")
	return func() { f.Close() }
}

// newPipeline wires the model client, retry policy and analysis cache into
// an Orchestrator.
func newPipeline(ctx context.Context, cfg *config.Config, store *storage.SQLiteStore) (*generator.Orchestrator, error) {
	opts := llm.ProviderOptions{Provider: cfg.Provider, Timeout: cfg.CallTimeout}
	if cfg.Provider == config.ProviderGemini {
		opts.APIKey, opts.Model = cfg.GeminiKey, cfg.GeminiModel
	} else {
		opts.APIKey, opts.BaseURL, opts.Model = cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel
	}
	client, err := llm.NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", cfg.Provider).Msg("model client initialized")

	retrier := llm.NewRetrier(cfg.RetryAttempts, cfg.RetryBaseDelay).WithAttemptTimeout(cfg.CallTimeout)
	settings := generator.Settings{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	analyzer := generator.NewCachedAnalyzer(generator.NewImageAnalyzer(client, retrier, settings), store)
	log.Info().Msg("analysis caching enabled")

	return generator.NewOrchestrator(
		analyzer,
		generator.NewSocialGenerator(client, retrier, settings),
		generator.NewMarketplaceGenerator(client, retrier, settings),
	), nil
}

// runBot long-polls Telegram until ctx ends. Each update gets its own
// goroutine; per-user ordering is kept by the user's session worker.
func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	defer b.Shutdown()

	var inFlight sync.WaitGroup
	defer inFlight.Wait()

	updates := tg.GetUpdatesChan(tgbotapi.UpdateConfig{Timeout: 60})
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping telegram polling")
			tg.StopReceivingUpdates()
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				log.Warn().Msg("telegram update channel closed")
				return nil
			}
			inFlight.Add(1)
			go func() {
				defer inFlight.Done()
				b.HandleUpdate(ctx, u)
			}()
		}
	}
}

func runHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("stopping http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
