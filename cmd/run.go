package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jimmyBizMobile/SensAI/internal/ai"
	"github.com/jimmyBizMobile/SensAI/internal/bot"
	"github.com/jimmyBizMobile/SensAI/internal/database"
	"github.com/jimmyBizMobile/SensAI/internal/keepalive"
	"github.com/jimmyBizMobile/SensAI/internal/quiz"
	"github.com/jimmyBizMobile/SensAI/internal/retry"
	"github.com/jimmyBizMobile/SensAI/internal/scheduler"
	"github.com/jimmyBizMobile/SensAI/pkg/logger"
	"github.com/spf13/cobra"
)

var getenv = os.Getenv

// chatClient is what run needs from the chat platform.
type chatClient interface {
	bot.Messenger
	bot.UpdateSource
	SelfID() int64
}

var connectChat = func(token string, logger *slog.Logger) (chatClient, error) {
	client, err := bot.Connect(token, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd)
	},
}

// runBot wires every component and blocks until SIGINT or SIGTERM.
func runBot(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Named("main")

	if err := cfg.Validate(); err != nil {
		log.Error("refusing to start", slog.Any("error", err))
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var history *database.QuizHistoryRepository
	if cfg.QuizEnabled() {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database unavailable, quiz feature disabled", slog.Any("error", err))
		} else {
			defer db.Close()
			history = database.NewQuizHistoryRepository(db)
		}
	} else {
		log.Warn("DATABASE_URL is not set, quiz feature disabled")
	}

	provider, err := ai.NewProvider(ctx, cfg.LLM, logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	log.Info("LLM provider ready", slog.String("provider", cfg.LLM.Provider), slog.String("model", provider.ModelID()))

	exec := retry.New(cfg.MaxRetries, cfg.RetryDelay, logger.Named("retry"))

	var wg sync.WaitGroup
	defer wg.Wait()

	if cfg.KeepAliveAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := keepalive.Serve(ctx, cfg.KeepAliveAddr, logger.Named("keepalive")); err != nil {
				log.Error("keep-alive server failed", slog.Any("error", err))
			}
		}()
	}

	client, err := connectChat(cfg.TelegramToken, logger.Named("telegram"))
	if err != nil {
		stop()
		return err
	}

	opts := []bot.RouterOption{bot.WithSelfID(client.SelfID())}

	if history != nil {
		svc := quiz.NewService(provider, exec, history, client, quiz.Config{
			ChatID:       cfg.QuizChatID,
			HistoryLimit: cfg.QuizHistoryLimit,
		}, logger.Named("quiz"))
		opts = append(opts, bot.WithQuiz(svc), bot.WithHistory(history))

		sched := scheduler.New(cfg.QuizInterval, cfg.QuizRunOnStart, logger.Named("scheduler"))
		if err := sched.Start(ctx, svc); err != nil {
			stop()
			return err
		}
		defer sched.Stop()
		log.Info("next quiz scheduled", slog.Time("at", sched.NextRun()))
	}

	router := bot.NewRouter(client, provider, exec, bot.ConfigFrom(cfg), logger.Named("bot"), opts...)

	log.Info("SensAI started, press Ctrl+C to stop")
	err = bot.New(client, router, logger.Named("bot")).Run(ctx)
	// Run may also end because the update stream closed; stop the rest too.
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("SensAI stopped")
	return nil
}
