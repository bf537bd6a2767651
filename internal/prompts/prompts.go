package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/jimmyBizMobile/SensAI/pkg/models"
	"github.com/samber/lo"
)

//go:embed templates/*.tmpl
var files embed.FS

var templates = template.Must(template.ParseFS(files, "templates/*.tmpl"))

// Tutor builds the sentence check prompt.
func Tutor(sentence string) (string, error) {
	return render("tutor.tmpl", struct{ Sentence string }{sentence})
}

// Grammar builds the grammar explanation prompt.
func Grammar(point string) (string, error) {
	return render("grammar.tmpl", struct{ Point string }{point})
}

// QuizGeneration builds the quiz prompt, listing recent grammar points so
// the model avoids repeating them.
func QuizGeneration(recent []string) (string, error) {
	return render("quiz_generate.tmpl", struct{ Recent string }{RecentTopics(recent)})
}

// QuizGrading builds the prompt that grades answer against quiz.
func QuizGrading(quiz models.PendingQuiz, answer string) (string, error) {
	return render("quiz_grade.tmpl", struct {
		Question      string
		CorrectAnswer string
		GrammarPoint  string
		Explanation   string
		Answer        string
	}{
		Question:      quiz.QuestionText,
		CorrectAnswer: quiz.CorrectAnswer,
		GrammarPoint:  quiz.GrammarPoint,
		Explanation:   quiz.Explanation,
		Answer:        answer,
	})
}

// RecentTopics formats grammar point keys for a prompt, newest first and
// without repeats. Empty means "None".
func RecentTopics(points []string) string {
	kept := lo.Uniq(lo.Compact(lo.Map(points, func(p string, _ int) string {
		return strings.TrimSpace(p)
	})))
	if len(kept) == 0 {
		return "None"
	}
	return strings.Join(kept, ", ")
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}
