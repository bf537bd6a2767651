package quiz

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jimmyBizMobile/SensAI/internal/ai"
	"github.com/jimmyBizMobile/SensAI/internal/retry"
	"github.com/jimmyBizMobile/SensAI/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quizChat int64 = -100200

type fakeStore struct {
	mu        sync.Mutex
	recent    []string
	err       error
	insertErr error
	inserted  []models.QuizHistoryRecord
	limits    []int
}

func (f *fakeStore) Insert(_ context.Context, rec *models.QuizHistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	rec.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *rec)
	return nil
}

func (f *fakeStore) RecentGrammarPoints(_ context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	return f.recent, f.err
}

type fakePublisher struct {
	mu         sync.Mutex
	resolveErr error
	sendErr    error
	sent       []string
}

func (f *fakePublisher) ResolveChat(_ context.Context, chatID int64) error {
	if chatID != quizChat {
		return errors.New("chat not found")
	}
	return f.resolveErr
}

func (f *fakePublisher) Send(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakePublisher) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newTestService(p ai.Provider, store *fakeStore, pub *fakePublisher) (*Service, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	exec := retry.New(3, 0, logger)
	s := NewService(p, exec, store, pub, Config{ChatID: quizChat, HistoryLimit: 30}, logger)
	s.newID = func() string { return "quiz-1" }
	return s, &buf
}

func TestRunCycle_Success(t *testing.T) {
	mock := ai.NewMockProvider(ai.MockResponse{Text: "雨（　）降る|雨(あめ)（　）降(ふ)る|が|〜が|Subject marker."})
	store := &fakeStore{recent: []string{"〜ように", "〜ばかり"}}
	pub := &fakePublisher{}
	s, _ := newTestService(mock, store, pub)

	require.NoError(t, s.RunCycle(context.Background()))

	require.Equal(t, 1, mock.CallCount())
	assert.Contains(t, mock.Calls()[0], "〜ように, 〜ばかり")
	assert.Equal(t, []int{30}, store.limits)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "〜が", store.inserted[0].GrammarPoint)
	assert.Equal(t, "雨（　）降る", store.inserted[0].QuestionText)
	assert.Equal(t, "が", store.inserted[0].CorrectAnswer)

	pending, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, "quiz-1", pending.ID)
	assert.Equal(t, "Subject marker.", pending.Explanation)

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "雨（　）降る")
	assert.Contains(t, msgs[0], "雨(あめ)（　）降(ふ)る")
}

func TestRunCycle_HistoryFailureFallsBackToNone(t *testing.T) {
	mock := ai.NewMockProvider(ai.MockResponse{Text: "Q|R|A|G|E"})
	store := &fakeStore{err: errors.New("db down")}
	s, logs := newTestService(mock, store, &fakePublisher{})

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Contains(t, mock.Calls()[0], "recently used grammar points:\nNone")
	assert.Contains(t, logs.String(), "could not load quiz history")
}

func TestRunCycle_ParseFailureUsesRetryBudget(t *testing.T) {
	mock := ai.NewMockProvider(
		ai.MockResponse{Text: "Q|R|A|G"},
		ai.MockResponse{Err: errors.New("timeout")},
		ai.MockResponse{Text: "Q|R|A|G|E"},
	)
	store := &fakeStore{}
	s, _ := newTestService(mock, store, &fakePublisher{})

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, 3, mock.CallCount())
	assert.Len(t, store.inserted, 1)
}

func TestRunCycle_ExhaustedLeavesEverythingUntouched(t *testing.T) {
	mock := ai.NewMockProvider()
	mock.Handler = func(context.Context, string) (string, error) { return "", errors.New("down") }
	store := &fakeStore{}
	pub := &fakePublisher{}
	s, _ := newTestService(mock, store, pub)

	previous := models.PendingQuiz{ID: "old", QuestionText: "old question"}
	s.slot.Set(previous)

	err := s.RunCycle(context.Background())
	require.ErrorIs(t, err, retry.ErrExhausted)

	assert.Equal(t, 3, mock.CallCount())
	assert.Empty(t, store.inserted)
	assert.Empty(t, pub.messages())
	got, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, previous, got)
}

func TestRunCycle_MissingChatSkips(t *testing.T) {
	mock := ai.NewMockProvider(ai.MockResponse{Text: "Q|R|A|G|E"})
	store := &fakeStore{}
	s, logs := newTestService(mock, store, &fakePublisher{})
	s.cfg.ChatID = 42

	err := s.RunCycle(context.Background())
	require.ErrorIs(t, err, ErrNoChannel)
	assert.Zero(t, mock.CallCount())
	assert.Empty(t, store.limits)
	assert.Contains(t, logs.String(), "quiz chat not found")
}

func TestRunCycle_InsertFailureStillPosts(t *testing.T) {
	mock := ai.NewMockProvider(ai.MockResponse{Text: "Q|R|A|G|E"})
	pub := &fakePublisher{}
	s, logs := newTestService(mock, &fakeStore{insertErr: errors.New("disk full")}, pub)

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Len(t, pub.messages(), 1)
	assert.Contains(t, logs.String(), "failed to record quiz history")
}

func TestRunCycle_PostFailureClearsQuiz(t *testing.T) {
	mock := ai.NewMockProvider(ai.MockResponse{Text: "Q|R|A|G|E"})
	s, _ := newTestService(mock, &fakeStore{}, &fakePublisher{sendErr: errors.New("forbidden")})

	require.Error(t, s.RunCycle(context.Background()))
	_, ok := s.Pending()
	assert.False(t, ok)
}

func TestRunCycle_NoOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	mock := ai.NewMockProvider()
	mock.Handler = func(ctx context.Context, _ string) (string, error) {
		started <- struct{}{}
		<-release
		return "Q|R|A|G|E", nil
	}
	store := &fakeStore{}
	s, _ := newTestService(mock, store, &fakePublisher{})

	first := make(chan error, 1)
	go func() { first <- s.RunCycle(context.Background()) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not start")
	}

	err := s.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleRunning)

	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, 1, mock.CallCount())
	assert.Len(t, store.inserted, 1)

	// the guard is released once the cycle finishes
	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, 2, mock.CallCount())
}

func TestGrade_SuccessClearsPending(t *testing.T) {
	mock := ai.NewMockProvider(ai.MockResponse{Text: "✅ Correct!"})
	s, _ := newTestService(mock, &fakeStore{}, &fakePublisher{})
	q := models.PendingQuiz{ID: "quiz-1", QuestionText: "Q", CorrectAnswer: "A", GrammarPoint: "G"}
	s.slot.Set(q)

	verdict, err := s.Grade(context.Background(), q, "A")
	require.NoError(t, err)
	assert.Equal(t, "✅ Correct!", verdict)

	_, ok := s.Pending()
	assert.False(t, ok)
	prompt := mock.Calls()[0]
	for _, want := range []string{"Q", "Correct answer: A", "Grammar point: G"} {
		assert.True(t, strings.Contains(prompt, want), want)
	}
}

func TestGrade_ExhaustedKeepsPending(t *testing.T) {
	mock := ai.NewMockProvider()
	s, _ := newTestService(mock, &fakeStore{}, &fakePublisher{})
	q := models.PendingQuiz{ID: "quiz-1"}
	s.slot.Set(q)

	_, err := s.Grade(context.Background(), q, "A")
	require.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 3, mock.CallCount())
	_, ok := s.Pending()
	assert.True(t, ok)
}

func TestGrade_StaleQuizDoesNotClearNewer(t *testing.T) {
	mock := ai.NewMockProvider(ai.MockResponse{Text: "ok"})
	s, _ := newTestService(mock, &fakeStore{}, &fakePublisher{})
	old := models.PendingQuiz{ID: "old"}
	s.slot.Set(models.PendingQuiz{ID: "new"})

	_, err := s.Grade(context.Background(), old, "A")
	require.NoError(t, err)
	got, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, "new", got.ID)
}
