package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
)

// ProcessLetterUseCase runs the full understanding-and-reply pipeline for one
// inbound letter: extract fields, classify, draft a reply, persist the letter
// awaiting approval.
type ProcessLetterUseCase struct {
	repo       ports.LetterRepository
	extractor  ports.FieldExtractor
	classifier ports.LetterClassifier
	composer   *ReplyComposer
}

var _ ports.LetterProcessor = (*ProcessLetterUseCase)(nil)

func NewProcessLetterUseCase(
	repo ports.LetterRepository,
	extractor ports.FieldExtractor,
	classifier ports.LetterClassifier,
	composer *ReplyComposer,
) *ProcessLetterUseCase {
	return &ProcessLetterUseCase{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		composer:   composer,
	}
}

func (uc *ProcessLetterUseCase) Process(ctx context.Context, req ports.ProcessRequest) (*ports.ProcessResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process letter", errors.New("empty letter text"))
	}

	fields := uc.extractor.Extract(text)

	classification, err := uc.classifier.Classify(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("classify letter: %w", err)
	}
	fields.MergeHints(classification.Entities)

	answer, err := uc.composer.Compose(ctx, classification.Type, fields, text)
	if err != nil {
		return nil, fmt.Errorf("compose reply: %w", err)
	}

	letter := uc.buildLetter(req, text, classification, fields, answer)
	if err := uc.repo.Create(ctx, letter); err != nil {
		return nil, fmt.Errorf("persist letter: %w", err)
	}

	return &ports.ProcessResult{
		Letter:         letter,
		Classification: classification,
		Fields:         fields,
	}, nil
}

func (uc *ProcessLetterUseCase) buildLetter(
	req ports.ProcessRequest,
	text string,
	classification domain.ClassificationResult,
	fields domain.ExtractedFields,
	answer string,
) *domain.Letter {
	now := time.Now().UTC()

	senderName := strings.TrimSpace(req.SenderName)
	if senderName == "" {
		senderName = fields.SenderName
	}
	senderEmail := strings.TrimSpace(req.SenderEmail)
	if senderEmail == "" {
		senderEmail = fields.Email
	}

	return &domain.Letter{
		ID:              uuid.NewString(),
		ReceivedDate:    now,
		SenderName:      senderName,
		SenderEmail:     senderEmail,
		OriginalText:    text,
		LetterStyle:     classification.Type.Style(),
		Urgency:         classification.Urgency,
		ReplyDeadline:   now.AddDate(0, 0, classification.Type.ReplyDeadlineDays()),
		Status:          domain.StatusPendingApproval,
		GeneratedAnswer: answer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
