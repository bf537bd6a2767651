package bot

import (
	"time"

	"github.com/jimmyBizMobile/SensAI/internal/config"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Chat where /check and /grammar are accepted
	CommandsChatID int64
	// Maximum characters accepted by /check
	MaxSentenceLength int
	// Maximum characters accepted by /grammar
	MaxGrammarLength int
	// Maximum characters per outgoing message
	ChunkSize int
	// How long wrong-chat notices stay visible
	NoticeTTL time.Duration
	// Number of grammar points listed by /history
	HistoryListSize int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() BotConfig {
	return BotConfig{
		MaxSentenceLength: 500,
		MaxGrammarLength:  50,
		ChunkSize:         2000,
		NoticeTTL:         10 * time.Second,
		HistoryListSize:   10,
	}
}

// ConfigFrom derives the bot settings from the application config.
func ConfigFrom(cfg config.Config) BotConfig {
	c := DefaultConfig()
	c.CommandsChatID = cfg.CommandsChatID
	c.MaxSentenceLength = cfg.MaxSentenceLength
	c.MaxGrammarLength = cfg.MaxGrammarLength
	c.ChunkSize = cfg.MessageChunkSize
	return c
}
