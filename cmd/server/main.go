package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"llmaniac/internal/api"
	"llmaniac/internal/classifier"
	"llmaniac/internal/clientcfg"
	"llmaniac/internal/config"
	"llmaniac/internal/history"
	"llmaniac/internal/pushlog"
	"llmaniac/internal/secrets"
)

func main() {
	// Local dev convenience; absence is fine in deployment.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg.Log)
	ctx := context.Background()

	provider := secretProvider(ctx, log)
	apiKey, err := provider.Get(ctx, "openai-api-key")
	if err != nil {
		log.Error().Msg("openai api key not found, classification requests will fail")
	}
	tracingKey, _ := provider.Get(ctx, "langsmith-api-key")

	llm := classifier.NewOpenAI(apiKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	var completion classifier.CompletionClient = llm
	switch {
	case cfg.Tracing.Enabled && tracingKey != "":
		log.Info().Str("project", cfg.Tracing.Project).Msg("tracing enabled, wrapping llm client")
		completion = classifier.NewTraced(llm, log, cfg.Tracing.Project)
	case cfg.Tracing.Enabled:
		log.Warn().Msg("tracing enabled but api key missing, using raw llm client")
	}
	cls := classifier.New(completion, log)

	if info, err := os.Stat(cfg.Clients.Dir); err != nil || !info.IsDir() {
		log.Warn().Str("dir", cfg.Clients.Dir).Msg("client config directory not found, no client can be resolved")
	}
	configs := clientcfg.NewStore(cfg.Clients.Dir, clientcfg.NewMemoryCache(cfg.Clients.CacheSize), log)

	hist, err := historyStore(cfg.History)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize history store")
	}

	pushes, err := pushLog(cfg.PushLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize push log")
	}

	health := api.Health{
		LLMConfigured:  llm.Configured(),
		TracingEnabled: cfg.Tracing.Enabled,
		TracingKeySet:  tracingKey != "",
		TracingProject: cfg.Tracing.Project,
	}

	server := api.NewServer(configs, hist, cls, pushes, health, cfg.Server.SnippetsDir, log)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := server.Start(cfg.Server.Port); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := server.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.Console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// secretProvider prefers Secret Manager on Cloud Run (K_SERVICE set) with an
// env fallback, plain env everywhere else.
func secretProvider(ctx context.Context, log zerolog.Logger) secrets.Provider {
	if os.Getenv("K_SERVICE") == "" {
		return secrets.Env{}
	}

	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project == "" {
		log.Error().Msg("running on cloud run but GOOGLE_CLOUD_PROJECT is not set, falling back to env secrets")
		return secrets.Env{}
	}

	gcp, err := secrets.NewGCP(ctx, project)
	if err != nil {
		log.Error().Err(err).Msg("secret manager unavailable, falling back to env secrets")
		return secrets.Env{}
	}
	return secrets.Chain{gcp, secrets.Env{}}
}

func historyStore(cfg config.HistoryConfig) (history.Store, error) {
	if cfg.Backend == "redis" {
		return history.NewRedis(cfg.RedisAddr, cfg.RedisTTL)
	}
	return history.NewMemory(cfg.Capacity), nil
}

func pushLog(cfg config.PushLogConfig) (pushlog.Log, error) {
	switch cfg.Backend {
	case "postgres":
		return pushlog.NewPostgres(cfg.DSN)
	case "kafka":
		return pushlog.NewKafka(cfg.Brokers, cfg.Topic)
	default:
		return pushlog.NewMemory(cfg.Capacity), nil
	}
}
