package quiz

import (
	"fmt"
	"strings"

	"github.com/jimmyBizMobile/SensAI/pkg/models"
)

// FieldCount is the number of pipe separated fields in a generated question:
// questionText|questionReading|correctAnswer|grammarPoint|explanation
const FieldCount = 5

// ParseError reports a generated question that breaks the line contract.
type ParseError struct {
	Reason string
	Input  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed quiz response: %s", e.Reason)
}

// ParseQuestion parses a single generated quiz line. A surrounding Markdown
// code fence is tolerated; anything else that is not exactly one line of
// five non-empty fields is rejected.
func ParseQuestion(text string) (models.PendingQuiz, error) {
	line := stripFence(strings.TrimSpace(text))
	if line == "" {
		return models.PendingQuiz{}, &ParseError{Reason: "empty response", Input: text}
	}
	if strings.ContainsAny(line, "\r\n") {
		return models.PendingQuiz{}, &ParseError{Reason: "expected a single line", Input: text}
	}

	fields := strings.Split(line, "|")
	if len(fields) != FieldCount {
		return models.PendingQuiz{}, &ParseError{
			Reason: fmt.Sprintf("expected %d fields, got %d", FieldCount, len(fields)),
			Input:  text,
		}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
		if fields[i] == "" {
			return models.PendingQuiz{}, &ParseError{Reason: fmt.Sprintf("field %d is empty", i+1), Input: text}
		}
	}

	return models.PendingQuiz{
		QuestionText:    fields[0],
		QuestionReading: fields[1],
		CorrectAnswer:   fields[2],
		GrammarPoint:    fields[3],
		Explanation:     fields[4],
	}, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// drop an info string such as ```text
	if i := strings.IndexAny(s, "\r\n"); i >= 0 && !strings.Contains(s[:i], "|") {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
