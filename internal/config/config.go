package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the bot reads from the environment.
type Config struct {
	TelegramToken string

	LLM LLMConfig

	CommandsChatID int64
	QuizChatID     int64

	DatabaseURL string

	QuizInterval     time.Duration
	QuizRunOnStart   bool
	QuizHistoryLimit int

	MaxRetries int
	RetryDelay time.Duration

	MaxSentenceLength int
	MaxGrammarLength  int
	MessageChunkSize  int

	KeepAliveAddr string

	LogLevel  string
	LogFormat string
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider        string
	Model           string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
}

// Default returns a Config with every optional value set.
func Default() Config {
	return Config{
		LLM:               LLMConfig{Provider: "gemini"},
		QuizInterval:      2 * time.Hour,
		QuizRunOnStart:    true,
		QuizHistoryLimit:  30,
		MaxRetries:        3,
		RetryDelay:        2 * time.Second,
		MaxSentenceLength: 500,
		MaxGrammarLength:  50,
		MessageChunkSize:  2000,
		KeepAliveAddr:     ":8080",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load reads a .env file when one exists and then builds the Config from the
// process environment. It does not validate mandatory values; see Validate.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, falling back to defaults
// for unset values.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var errs []error

	cfg.TelegramToken = strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN"))
	if p := getenv("LLM_PROVIDER"); p != "" {
		cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(p))
	}
	cfg.LLM.Model = getenv("LLM_MODEL")
	cfg.LLM.GeminiAPIKey = getenv("GEMINI_API_KEY")
	cfg.LLM.OpenAIAPIKey = getenv("OPENAI_API_KEY")
	cfg.LLM.OpenAIBaseURL = getenv("OPENAI_BASE_URL")
	cfg.LLM.AnthropicAPIKey = getenv("ANTHROPIC_API_KEY")
	cfg.DatabaseURL = strings.TrimSpace(getenv("DATABASE_URL"))

	if v, ok := lookup(getenv, "KEEPALIVE_ADDR"); ok {
		cfg.KeepAliveAddr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	errs = append(errs,
		parseInt64(getenv, "COMMANDS_CHAT_ID", &cfg.CommandsChatID),
		parseInt64(getenv, "QUIZ_CHAT_ID", &cfg.QuizChatID),
		parseDuration(getenv, "QUIZ_INTERVAL", &cfg.QuizInterval),
		parseBool(getenv, "QUIZ_RUN_ON_START", &cfg.QuizRunOnStart),
		parsePositive(getenv, "QUIZ_HISTORY_LIMIT", &cfg.QuizHistoryLimit),
		parsePositive(getenv, "MAX_RETRIES", &cfg.MaxRetries),
		parseDuration(getenv, "RETRY_DELAY", &cfg.RetryDelay),
		parsePositive(getenv, "MAX_SENTENCE_LENGTH", &cfg.MaxSentenceLength),
		parsePositive(getenv, "MAX_GRAMMAR_LENGTH", &cfg.MaxGrammarLength),
		parsePositive(getenv, "MESSAGE_CHUNK_SIZE", &cfg.MessageChunkSize),
	)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once so the process can refuse to start
// with a single clear message.
func (c Config) Validate() error {
	var errs []error
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.CommandsChatID == 0 {
		missing = append(missing, "COMMANDS_CHAT_ID")
	}
	if c.QuizChatID == 0 {
		missing = append(missing, "QUIZ_CHAT_ID")
	}

	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}

	if len(missing) > 0 {
		errs = append([]error{fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))}, errs...)
	}
	if c.QuizInterval <= 0 {
		errs = append(errs, fmt.Errorf("QUIZ_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// QuizEnabled reports whether the scheduled quiz can run.
func (c Config) QuizEnabled() bool {
	return c.DatabaseURL != ""
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	if v == "" {
		return "", false
	}
	if strings.EqualFold(v, "off") || strings.EqualFold(v, "none") {
		return "", true
	}
	return v, true
}

func parseInt64(getenv func(string) string, key string, dst *int64) error {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func parsePositive(getenv func(string) string, key string, dst *int) error {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	*dst = n
	return nil
}

func parseDuration(getenv func(string) string, key string, dst *time.Duration) error {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return fmt.Errorf("%s: must not be negative", key)
	}
	*dst = d
	return nil
}

func parseBool(getenv func(string) string, key string, dst *bool) error {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
