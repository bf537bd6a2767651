package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/jimmyBizMobile/SensAI/internal/ai"
	"github.com/jimmyBizMobile/SensAI/internal/retry"
	"github.com/jimmyBizMobile/SensAI/pkg/models"
)

const (
	ackEmoji = "👀"

	msgApology      = "Sorry, something went wrong. Please try again later."
	msgResubmit     = "There was a temporary issue grading your answer, please submit your answer again."
	msgUnknown      = "Unknown command. Use /help to see what I can do."
	msgNoHistory    = "No quizzes have been asked yet."
	msgQuizDisabled = "The quiz is not enabled on this bot."
)

// Message is an inbound chat message reduced to what the router needs.
type Message struct {
	ID       int
	ChatID   int64
	AuthorID int64
	IsBot    bool
	Text     string
	// Command is the command name without the leading slash, or empty.
	Command string
	Args    string
}

// IsCommand reports whether the message is a command invocation.
func (m Message) IsCommand() bool {
	return m.Command != ""
}

// QuizService is the part of quiz.Service the router uses.
type QuizService interface {
	ChatID() int64
	Pending() (models.PendingQuiz, bool)
	Grade(ctx context.Context, quiz models.PendingQuiz, answer string) (string, error)
}

// HistoryReader lists recorded quizzes, newest first.
type HistoryReader interface {
	RecentGrammarPoints(ctx context.Context, limit int) ([]string, error)
}

// Router decides what an incoming message means and acts on it.
type Router struct {
	messenger Messenger
	provider  ai.Provider
	retry     *retry.Executor
	quiz      QuizService
	history   HistoryReader
	config    BotConfig
	logger    *slog.Logger
	selfID    int64
}

// RouterOption configures optional Router collaborators.
type RouterOption func(*Router)

// WithQuiz enables quiz answer grading.
func WithQuiz(q QuizService) RouterOption {
	return func(r *Router) { r.quiz = q }
}

// WithHistory enables the /history command.
func WithHistory(h HistoryReader) RouterOption {
	return func(r *Router) { r.history = h }
}

// WithSelfID sets the bot's own user ID so its messages are ignored.
func WithSelfID(id int64) RouterOption {
	return func(r *Router) { r.selfID = id }
}

// NewRouter creates a Router.
func NewRouter(m Messenger, provider ai.Provider, exec *retry.Executor, cfg BotConfig, logger *slog.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		messenger: m,
		provider:  provider,
		retry:     exec,
		config:    cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleMessage processes one message. It never panics; unexpected failures
// are logged and answered with an apology.
func (r *Router) HandleMessage(ctx context.Context, msg Message) {
	// Other bots are ignored too so two bots cannot answer each other forever.
	if msg.IsBot || (r.selfID != 0 && msg.AuthorID == r.selfID) {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic while handling message",
				slog.Int64("chat_id", msg.ChatID),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			r.send(ctx, msg.ChatID, msgApology)
		}
	}()

	if msg.IsCommand() {
		if err := r.handleCommand(ctx, msg); err != nil {
			r.logger.Error("command failed", slog.String("command", msg.Command), slog.Any("error", err))
			r.send(ctx, msg.ChatID, msgApology)
		}
		return
	}

	if r.quiz != nil && msg.ChatID == r.quiz.ChatID() {
		r.handleAnswer(ctx, msg)
	}
}

func (r *Router) handleAnswer(ctx context.Context, msg Message) {
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	pending, ok := r.quiz.Pending()
	if !ok {
		return
	}

	if err := r.messenger.React(ctx, msg.ChatID, msg.ID, ackEmoji); err != nil {
		r.logger.Warn("failed to acknowledge answer", slog.Any("error", err))
	}

	verdict, err := r.quiz.Grade(ctx, pending, msg.Text)
	if err != nil {
		r.logger.Error("grading failed", slog.String("quiz_id", pending.ID), slog.Any("error", err))
		r.reply(ctx, msg, msgResubmit)
		return
	}
	r.replyChunks(ctx, msg, verdict)
}

// generate runs prompt through the model with retries and sends the answer
// in chunks. A failed model call is answered with the apology.
func (r *Router) generate(ctx context.Context, chatID int64, op, purpose, prompt string) error {
	if err := r.messenger.Typing(ctx, chatID); err != nil {
		r.logger.Debug("typing indicator failed", slog.Any("error", err))
	}

	text, err := retry.Do(ai.WithPurpose(ctx, purpose), r.retry, op, func(ctx context.Context) (string, error) {
		return r.provider.Generate(ctx, prompt)
	})
	if err != nil {
		r.logger.Error("model call failed", slog.String("op", op),
			slog.Bool("exhausted", errors.Is(err, retry.ErrExhausted)), slog.Any("error", err))
		r.send(ctx, chatID, msgApology)
		return nil
	}

	for _, chunk := range SplitMessage(text, r.config.ChunkSize) {
		if err := r.messenger.Send(ctx, chatID, chunk); err != nil {
			return fmt.Errorf("send response: %w", err)
		}
	}
	return nil
}

func (r *Router) send(ctx context.Context, chatID int64, text string) {
	if err := r.messenger.Send(ctx, chatID, text); err != nil {
		r.logger.Error("failed to send message", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

func (r *Router) reply(ctx context.Context, msg Message, text string) {
	if err := r.messenger.Reply(ctx, msg.ChatID, msg.ID, text); err != nil {
		r.logger.Error("failed to reply", slog.Int64("chat_id", msg.ChatID), slog.Any("error", err))
	}
}

func (r *Router) replyChunks(ctx context.Context, msg Message, text string) {
	for _, chunk := range SplitMessage(text, r.config.ChunkSize) {
		if err := r.messenger.Reply(ctx, msg.ChatID, msg.ID, chunk); err != nil {
			r.logger.Error("failed to reply", slog.Int64("chat_id", msg.ChatID), slog.Any("error", err))
			return
		}
	}
}
