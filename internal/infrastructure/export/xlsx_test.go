package export

import (
	"testing"
	"time"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
)

func TestBuildHistoryWorkbookWritesLetterRows(t *testing.T) {
	sent := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	letters := []domain.Letter{
		{
			ID:              "l1",
			ReceivedDate:    time.Date(2026, 2, 25, 9, 30, 0, 0, time.UTC),
			SenderName:      "Иванов Иван Иванович",
			SenderEmail:     "client@example.com",
			LetterStyle:     domain.StyleFormal,
			Urgency:         domain.UrgencyHigh,
			ReplyDeadline:   time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC),
			Status:          domain.StatusSent,
			GeneratedAnswer: "сгенерированный",
			EditedAnswer:    "правленый",
			SentDate:        &sent,
		},
		{
			ID:           "l2",
			ReceivedDate: time.Date(2026, 2, 26, 10, 0, 0, 0, time.UTC),
			Status:       domain.StatusPendingApproval,
		},
	}

	f, err := BuildHistoryWorkbook(letters)
	if err != nil {
		t.Fatalf("BuildHistoryWorkbook() error = %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue(historySheet, "A1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if header != "ID" {
		t.Errorf("header A1 = %q", header)
	}

	answer, _ := f.GetCellValue(historySheet, "J2")
	if answer != "правленый" {
		t.Errorf("answer cell = %q, edited answer must win", answer)
	}
	sentCell, _ := f.GetCellValue(historySheet, "I2")
	if sentCell != "01.03.2026 12:00" {
		t.Errorf("sent date cell = %q", sentCell)
	}
	emptySent, _ := f.GetCellValue(historySheet, "I3")
	if emptySent != "" {
		t.Errorf("unsent letter must have empty sent date, got %q", emptySent)
	}
}
