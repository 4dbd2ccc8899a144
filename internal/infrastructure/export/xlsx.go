package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
)

const historySheet = "История писем"

var historyHeader = []any{
	"ID", "Дата получения", "Отправитель", "Email", "Стиль", "Срочность",
	"Срок ответа", "Статус", "Дата отправки", "Ответ",
}

// BuildHistoryWorkbook renders the processed letter history into a
// spreadsheet, one letter per row, ready for download.
func BuildHistoryWorkbook(letters []domain.Letter) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(historySheet, "A1", &historyHeader); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	for i, letter := range letters {
		row := []any{
			letter.ID,
			formatDate(letter.ReceivedDate),
			letter.SenderName,
			letter.SenderEmail,
			string(letter.LetterStyle),
			string(letter.Urgency),
			formatDate(letter.ReplyDeadline),
			string(letter.Status),
			formatOptionalDate(letter.SentDate),
			letter.AnswerToSend(),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write letter row %d: %w", i+1, err)
		}
	}
	return f, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006 15:04")
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
