package bootstrap

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	SentryDSN   string
	Environment string

	DataPath string

	DeepgramAPIKey string
	STTEndpoint    string

	STTModel          string
	STTLanguage       string
	STTSampleRate     int
	STTInterimResults bool
	STTUtteranceEndMs int
	STTEndpointingMs  int
	STTSmartFormat    bool
	STTPunctuate      bool
	STTDiarize        bool
	STTFillerWords    bool
	STTNumerals       bool
	STTOptOutDataUse  bool
	STTRedact         []string
	Keywords          []string

	HistoryKeepDays int

	WaitMinMs      int
	WaitMaxMs      int
	WaitPollMs     int
	WaitDebounceMs int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", "127.0.0.1:7543"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		SentryDSN:   getEnv("SENTRY_DSN", ""),
		Environment: getEnv("ENVIRONMENT", "development"),

		DataPath: getEnv("DATA_PATH", "./data/history.db"),

		DeepgramAPIKey: getEnv("DEEPGRAM_API_KEY", ""),
		STTEndpoint:    getEnv("STT_ENDPOINT", ""),

		STTModel:          getEnv("STT_MODEL", "nova-2"),
		STTLanguage:       getEnv("STT_LANGUAGE", "en-US"),
		STTSampleRate:     getEnvInt("STT_SAMPLE_RATE", 16000),
		STTInterimResults: getEnvBool("STT_INTERIM_RESULTS", true),
		STTUtteranceEndMs: getEnvInt("STT_UTTERANCE_END_MS", 1000),
		STTEndpointingMs:  getEnvInt("STT_ENDPOINTING_MS", 300),
		STTSmartFormat:    getEnvBool("STT_SMART_FORMAT", true),
		STTPunctuate:      getEnvBool("STT_PUNCTUATE", true),
		STTDiarize:        getEnvBool("STT_DIARIZE", false),
		STTFillerWords:    getEnvBool("STT_FILLER_WORDS", false),
		STTNumerals:       getEnvBool("STT_NUMERALS", false),
		STTOptOutDataUse:  getEnvBool("STT_MIP_OPT_OUT", false),
		STTRedact:         parseList(getEnv("STT_REDACT", "")),
		Keywords:          parseList(getEnv("STT_KEYWORDS", "")),

		HistoryKeepDays: getEnvInt("HISTORY_KEEP_DAYS", 0),

		WaitMinMs:      getEnvInt("WAIT_MIN_MS", 0),
		WaitMaxMs:      getEnvInt("WAIT_MAX_MS", 0),
		WaitPollMs:     getEnvInt("WAIT_POLL_MS", 0),
		WaitDebounceMs: getEnvInt("WAIT_DEBOUNCE_MS", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func parseList(envValue string) []string {
	if envValue == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(envValue, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
