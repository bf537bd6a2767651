package models

import "time"

// PendingQuiz is the quiz question currently waiting for an answer.
// It only lives in memory.
type PendingQuiz struct {
	ID              string    `json:"id"`
	QuestionText    string    `json:"question_text"`
	QuestionReading string    `json:"question_reading"` // furigana, passed through verbatim
	CorrectAnswer   string    `json:"correct_answer"`
	GrammarPoint    string    `json:"grammar_point"`
	Explanation     string    `json:"explanation"`
	PostedAt        time.Time `json:"posted_at"`
}

// QuizHistoryRecord is one row of the append-only quiz history
type QuizHistoryRecord struct {
	ID            int64     `json:"id" db:"id"`
	GrammarPoint  string    `json:"grammar_point" db:"grammar_point"`
	QuestionText  string    `json:"question_text" db:"question_text"`
	CorrectAnswer string    `json:"correct_answer" db:"correct_answer"`
	Explanation   string    `json:"explanation" db:"explanation"`
	AskedAt       time.Time `json:"asked_at" db:"asked_at"`
}

// HistoryRecord builds the durable record for a quiz that was just asked.
func (q PendingQuiz) HistoryRecord() *QuizHistoryRecord {
	return &QuizHistoryRecord{
		GrammarPoint:  q.GrammarPoint,
		QuestionText:  q.QuestionText,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}
}
