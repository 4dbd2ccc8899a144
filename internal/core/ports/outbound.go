package ports

import (
	"context"
	"io"
	"time"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
)

// LetterRepository persists and reads letter state. Individual status
// transitions must be applied atomically by the implementation.
type LetterRepository interface {
	Create(ctx context.Context, letter *domain.Letter) error
	GetByID(ctx context.Context, id string) (*domain.Letter, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Letter, int, error)
	SetEditedAnswer(ctx context.Context, id, editedAnswer string) error
	Approve(ctx context.Context, id, editedAnswer string) error
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
}

// ListFilter narrows and orders letter listings.
type ListFilter struct {
	Status    domain.LetterStatus
	Urgency   domain.LetterUrgency
	SortBy    string // urgency, received_date, deadline
	SortOrder string // asc, desc
	Limit     int
	Offset    int
}

// LetterClassifier predicts type, urgency and tone for raw letter text.
type LetterClassifier interface {
	Classify(ctx context.Context, text string) (domain.ClassificationResult, error)
}

// FieldExtractor recovers structured facts from raw (un-normalized) text.
type FieldExtractor interface {
	Extract(text string) domain.ExtractedFields
}

// ReplyGenerator is the generative-text backend.
type ReplyGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteStream(ctx context.Context, systemPrompt, userPrompt string, emit func(chunk string) error) error
}

// MailSender dispatches an approved reply to the original sender.
type MailSender interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) error
}

// LetterQueue carries inbound letters from ingestion to the worker.
type LetterQueue interface {
	PublishLetterReceived(ctx context.Context, letter InboundLetter) error
	SubscribeLetterReceived(ctx context.Context, handler func(context.Context, InboundLetter) error) error
}

// ObjectStorage archives the original uploaded letter files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// LetterFileExtractor recovers plain text from an uploaded letter file.
type LetterFileExtractor interface {
	ExtractText(filename string, data []byte) (string, error)
}

// InboundLetter is the queue envelope for a letter awaiting processing.
type InboundLetter struct {
	Text        string `json:"text"`
	SenderName  string `json:"sender_name,omitempty"`
	SenderEmail string `json:"sender_email,omitempty"`
}
