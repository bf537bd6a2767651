package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jimmyBizMobile/SensAI/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []models.QuizHistoryRecord {
	asked := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return []models.QuizHistoryRecord{
		{ID: 2, GrammarPoint: "〜ばかり", QuestionText: "食べた（　）です。", CorrectAnswer: "ばかり", Explanation: "Just did.", AskedAt: asked.Add(time.Hour)},
		{ID: 1, GrammarPoint: "〜ように", QuestionText: "忘れない（　）メモする。", CorrectAnswer: "ように", Explanation: "So that.", AskedAt: asked},
	}
}

func TestExportHistoryExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "history.xlsx")
	require.NoError(t, ExportHistory(sampleRecords(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"2", "2024-05-01T10:30:00Z", "〜ばかり", "食べた（　）です。", "ばかり", "Just did."}, rows[1])
	assert.Equal(t, "〜ように", rows[2][2])
}

func TestExportHistoryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.CSV")
	require.NoError(t, ExportHistory(sampleRecords(), path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "1", rows[2][0])
	assert.Equal(t, "忘れない（　）メモする。", rows[2][3])
}

func TestExportHistoryEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, ExportHistory(nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID,Asked At,Grammar Point,Question,Correct Answer,Explanation\n", string(data))

	assert.Error(t, ExportHistory(nil, ""))
}
