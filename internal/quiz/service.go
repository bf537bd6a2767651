package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jimmyBizMobile/SensAI/internal/ai"
	"github.com/jimmyBizMobile/SensAI/internal/prompts"
	"github.com/jimmyBizMobile/SensAI/internal/retry"
	"github.com/jimmyBizMobile/SensAI/pkg/models"
)

var (
	// ErrCycleRunning is returned when a cycle is requested while another runs.
	ErrCycleRunning = errors.New("quiz cycle already running")
	// ErrNoChannel means the quiz chat could not be resolved.
	ErrNoChannel = errors.New("quiz chat not available")
)

// Publisher posts to the quiz chat.
type Publisher interface {
	ResolveChat(ctx context.Context, chatID int64) error
	Send(ctx context.Context, chatID int64, text string) error
}

// HistoryStore is the durable log of asked quizzes.
type HistoryStore interface {
	Insert(ctx context.Context, rec *models.QuizHistoryRecord) error
	RecentGrammarPoints(ctx context.Context, limit int) ([]string, error)
}

// Config holds the quiz settings.
type Config struct {
	ChatID       int64
	HistoryLimit int
}

// Service runs quiz generation cycles and grades answers.
type Service struct {
	provider  ai.Provider
	retry     *retry.Executor
	store     HistoryStore
	publisher Publisher
	slot      *Slot
	cfg       Config
	logger    *slog.Logger

	running atomic.Bool
	now     func() time.Time
	newID   func() string
}

// NewService wires a quiz Service.
func NewService(provider ai.Provider, exec *retry.Executor, store HistoryStore, publisher Publisher, cfg Config, logger *slog.Logger) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:  provider,
		retry:     exec,
		store:     store,
		publisher: publisher,
		slot:      &Slot{},
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ChatID is the chat quizzes are posted to and answered in.
func (s *Service) ChatID() int64 {
	return s.cfg.ChatID
}

// Pending returns the quiz currently waiting for an answer.
func (s *Service) Pending() (models.PendingQuiz, bool) {
	return s.slot.Get()
}

// RunCycle generates, records and posts one quiz. At most one cycle runs at
// a time; a concurrent call returns ErrCycleRunning without doing anything.
// When every attempt fails nothing is recorded, posted or changed.
func (s *Service) RunCycle(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("quiz cycle skipped, previous cycle still running")
		return ErrCycleRunning
	}
	defer s.running.Store(false)

	if err := s.publisher.ResolveChat(ctx, s.cfg.ChatID); err != nil {
		s.logger.Error("quiz chat not found, skipping cycle", slog.Int64("chat_id", s.cfg.ChatID), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrNoChannel, err)
	}

	recent, err := s.store.RecentGrammarPoints(ctx, s.cfg.HistoryLimit)
	if err != nil {
		s.logger.Warn("could not load quiz history, generating without it", slog.Any("error", err))
		recent = nil
	}

	prompt, err := prompts.QuizGeneration(recent)
	if err != nil {
		return err
	}

	genCtx := ai.WithPurpose(ctx, "quiz")
	quiz, err := retry.Do(genCtx, s.retry, "generate quiz", func(ctx context.Context) (models.PendingQuiz, error) {
		text, err := s.provider.Generate(ctx, prompt)
		if err != nil {
			return models.PendingQuiz{}, err
		}
		return ParseQuestion(text)
	})
	if err != nil {
		s.logger.Error("quiz generation failed", slog.Any("error", err))
		return err
	}

	quiz.ID = s.newID()
	quiz.PostedAt = s.now()

	if err := s.store.Insert(ctx, quiz.HistoryRecord()); err != nil {
		s.logger.Error("failed to record quiz history", slog.String("grammar_point", quiz.GrammarPoint), slog.Any("error", err))
	}

	s.slot.Set(quiz)

	if err := s.publisher.Send(ctx, s.cfg.ChatID, FormatQuestion(quiz)); err != nil {
		s.slot.ClearIf(quiz.ID)
		s.logger.Error("failed to post quiz", slog.Any("error", err))
		return fmt.Errorf("post quiz: %w", err)
	}

	s.logger.Info("quiz posted", slog.String("quiz_id", quiz.ID), slog.String("grammar_point", quiz.GrammarPoint))
	return nil
}

// Grade asks the model to judge answer against quiz. On success the quiz is
// cleared if it is still the pending one; on failure it stays answerable.
func (s *Service) Grade(ctx context.Context, quiz models.PendingQuiz, answer string) (string, error) {
	prompt, err := prompts.QuizGrading(quiz, answer)
	if err != nil {
		return "", err
	}

	verdict, err := retry.Do(ai.WithPurpose(ctx, "grade"), s.retry, "grade answer", func(ctx context.Context) (string, error) {
		return s.provider.Generate(ctx, prompt)
	})
	if err != nil {
		return "", err
	}

	if !s.slot.ClearIf(quiz.ID) {
		s.logger.Info("quiz already answered or replaced", slog.String("quiz_id", quiz.ID))
	}
	return verdict, nil
}

// FormatQuestion renders the message posted to the quiz chat.
func FormatQuestion(q models.PendingQuiz) string {
	return fmt.Sprintf("📝 Quiz time!\n\n%s\n%s\n\nReply in this chat with the answer that fills the blank.",
		q.QuestionText, q.QuestionReading)
}
