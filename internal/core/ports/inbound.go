package ports

import (
	"context"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
)

// ProcessRequest carries a raw inbound letter plus optional sender hints.
type ProcessRequest struct {
	Text        string
	SenderName  string
	SenderEmail string
}

// ProcessResult is everything the pipeline produced for one letter.
type ProcessResult struct {
	Letter         *domain.Letter
	Classification domain.ClassificationResult
	Fields         domain.ExtractedFields
}

// LetterProcessor is the inbound contract for the understanding-and-reply pipeline.
type LetterProcessor interface {
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
}

// LetterWorkflow is the inbound contract for the approval state machine.
type LetterWorkflow interface {
	Edit(ctx context.Context, id, editedAnswer string) (*domain.Letter, error)
	Approve(ctx context.Context, id string, approved bool, editedAnswer string) (*domain.Letter, error)
	Send(ctx context.Context, id string) (*domain.Letter, error)
}
