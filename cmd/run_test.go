package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChat struct {
	mu       sync.Mutex
	sent     []string
	resolved int
	updates  chan tgbotapi.Update
}

func (s *stubChat) Send(_ context.Context, _ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return nil
}

func (s *stubChat) Reply(ctx context.Context, chatID int64, _ int, text string) error {
	return s.Send(ctx, chatID, text)
}

func (s *stubChat) React(context.Context, int64, int, string) error { return nil }

func (s *stubChat) SendEphemeral(context.Context, int64, string, time.Duration) error { return nil }

func (s *stubChat) Typing(context.Context, int64) error { return nil }

func (s *stubChat) ResolveChat(context.Context, int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved++
	return nil
}

func (s *stubChat) Updates() tgbotapi.UpdatesChannel { return s.updates }

func (s *stubChat) StopUpdates() {}

func (s *stubChat) SelfID() int64 { return 1 }

func (s *stubChat) snapshot() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...), s.resolved
}

func useStubChat(t *testing.T) *stubChat {
	t.Helper()
	stub := &stubChat{updates: make(chan tgbotapi.Update, 1)}
	prev := connectChat
	connectChat = func(string, *slog.Logger) (chatClient, error) { return stub, nil }
	t.Cleanup(func() { connectChat = prev })
	return stub
}

func setBotEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	env := map[string]string{
		"TELEGRAM_BOT_TOKEN": "test-token",
		"LLM_PROVIDER":       "mock",
		"COMMANDS_CHAT_ID":   "-1001",
		"QUIZ_CHAT_ID":       "-1002",
		"DATABASE_URL":       "",
		"KEEPALIVE_ADDR":     "off",
		"RETRY_DELAY":        "1ms",
		"LOG_LEVEL":          "error",
	}
	for k, v := range overrides {
		env[k] = v
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func startRun(ctx context.Context, t *testing.T) <-chan error {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", "--env-file", ""})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(withContext(ctx)) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
		return nil
	}
}

func TestRunKeepsCommandsWhenDatabaseIsUnreachable(t *testing.T) {
	setBotEnv(t, map[string]string{
		"DATABASE_URL": "postgres://u:p@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
	})
	stub := useStubChat(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startRun(ctx, t)

	stub.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 3,
		From:      &tgbotapi.User{ID: 7},
		Chat:      &tgbotapi.Chat{ID: -1001},
		Text:      "/check 猫が好きです",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}}

	require.Eventually(t, func() bool {
		sent, _ := stub.snapshot()
		return len(sent) > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, waitDone(t, done))

	sent, resolved := stub.snapshot()
	assert.True(t, strings.HasPrefix(sent[0], "[offline]"))
	assert.Zero(t, resolved, "quiz cycle must not run without a database")
}

func TestRunReturnsWhenUpdateStreamCloses(t *testing.T) {
	setBotEnv(t, map[string]string{"KEEPALIVE_ADDR": "127.0.0.1:0"})
	stub := useStubChat(t)

	done := startRun(context.Background(), t)
	close(stub.updates)

	assert.NoError(t, waitDone(t, done))
}
