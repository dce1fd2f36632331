package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Danial-Baharvand/wisper-sub000/internal/dictation"
	"github.com/Danial-Baharvand/wisper-sub000/internal/eventstore"
	"github.com/Danial-Baharvand/wisper-sub000/internal/gateway"
	"github.com/Danial-Baharvand/wisper-sub000/internal/health"
	"github.com/Danial-Baharvand/wisper-sub000/internal/transcription"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const version = "1.0.0"

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideSTTConfig(cfg *Config) transcription.Config {
	return transcription.Config{
		Endpoint: cfg.STTEndpoint,
		APIKey:   cfg.DeepgramAPIKey,
		Wait: transcription.WaitPolicy{
			MinWait:        time.Duration(cfg.WaitMinMs) * time.Millisecond,
			MaxWait:        time.Duration(cfg.WaitMaxMs) * time.Millisecond,
			PollInterval:   time.Duration(cfg.WaitPollMs) * time.Millisecond,
			DebounceWindow: time.Duration(cfg.WaitDebounceMs) * time.Millisecond,
		},
	}
}

func ProvideSettings(cfg *Config) dictation.Settings {
	return dictation.Settings{
		Model:            cfg.STTModel,
		Language:         cfg.STTLanguage,
		SampleRate:       cfg.STTSampleRate,
		InterimResults:   cfg.STTInterimResults,
		UtteranceEndMs:   cfg.STTUtteranceEndMs,
		EndpointingMs:    cfg.STTEndpointingMs,
		SmartFormat:      cfg.STTSmartFormat,
		Punctuate:        cfg.STTPunctuate,
		Diarize:          cfg.STTDiarize,
		FillerWords:      cfg.STTFillerWords,
		Numerals:         cfg.STTNumerals,
		OptOutDataUse:    cfg.STTOptOutDataUse,
		RedactCategories: cfg.STTRedact,
		Keywords:         cfg.Keywords,
		HistoryKeepDays:  cfg.HistoryKeepDays,
	}
}

func ProvideStore(lc fx.Lifecycle, cfg *Config, log *slog.Logger) (*eventstore.Store, error) {
	store, err := eventstore.Open(context.Background(), cfg.DataPath, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func ProvideManager(sttCfg transcription.Config, settings dictation.Settings, store *eventstore.Store, log *slog.Logger) (*dictation.Manager, error) {
	return dictation.NewManager(dictation.ManagerConfig{
		Transport: sttCfg,
		Settings:  settings,
		Store:     store,
		Log:       log,
	})
}

func ProvideGatewayHandler(manager *dictation.Manager, log *slog.Logger) *gateway.Handler {
	return gateway.NewHandler(manager, log)
}

func ProvideHealthHandler(store *eventstore.Store, manager *dictation.Manager, sttCfg transcription.Config) *health.Handler {
	return health.NewHandler(store, manager, sttCfg, version)
}

func RegisterRoutes(e *echo.Echo, gw *gateway.Handler, h *health.Handler) {
	gw.RegisterRoutes(e.Group("/v1"))
	h.RegisterRoutes(e)
}

var CoreModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideSTTConfig,
		ProvideSettings,
		ProvideStore,
		ProvideManager,
		ProvideGatewayHandler,
		ProvideHealthHandler,
	),
	fx.Invoke(RegisterRoutes),
)
