package database

import (
	"context"
	"fmt"

	"github.com/jimmyBizMobile/SensAI/pkg/models"
	"github.com/jmoiron/sqlx"
)

// QuizHistoryRepository is the append-only log of asked quiz questions.
type QuizHistoryRepository struct {
	db *sqlx.DB
}

// NewQuizHistoryRepository creates a new repository instance
func NewQuizHistoryRepository(db *sqlx.DB) *QuizHistoryRepository {
	return &QuizHistoryRepository{db: db}
}

// Insert appends rec and fills in its generated ID and AskedAt.
func (r *QuizHistoryRepository) Insert(ctx context.Context, rec *models.QuizHistoryRecord) error {
	query := r.db.Rebind(`
		INSERT INTO quiz_history (grammar_point, question_text, correct_answer, explanation)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowxContext(ctx, query,
		rec.GrammarPoint,
		rec.QuestionText,
		rec.CorrectAnswer,
		rec.Explanation,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert quiz history: %w", err)
	}

	err = r.db.GetContext(ctx, &rec.AskedAt, r.db.Rebind("SELECT asked_at FROM quiz_history WHERE id = ?"), rec.ID)
	if err != nil {
		return fmt.Errorf("failed to read asked_at for quiz %d: %w", rec.ID, err)
	}
	return nil
}

// RecentGrammarPoints returns up to limit grammar point keys, newest first.
func (r *QuizHistoryRepository) RecentGrammarPoints(ctx context.Context, limit int) ([]string, error) {
	points := []string{}
	query := r.db.Rebind(`
		SELECT grammar_point
		FROM quiz_history
		ORDER BY asked_at DESC, id DESC
		LIMIT ?
	`)
	if err := r.db.SelectContext(ctx, &points, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent grammar points: %w", err)
	}
	return points, nil
}

// List returns up to limit records, newest first. A limit <= 0 returns all.
func (r *QuizHistoryRepository) List(ctx context.Context, limit int) ([]models.QuizHistoryRecord, error) {
	records := []models.QuizHistoryRecord{}
	query := `
		SELECT id, grammar_point, question_text, correct_answer, explanation, asked_at
		FROM quiz_history
		ORDER BY asked_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list quiz history: %w", err)
	}
	return records, nil
}

// Count returns the number of recorded quizzes.
func (r *QuizHistoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM quiz_history"); err != nil {
		return 0, fmt.Errorf("failed to count quiz history: %w", err)
	}
	return n, nil
}
