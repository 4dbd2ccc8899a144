package domain

import "time"

type LetterStatus string

const (
	StatusPendingApproval LetterStatus = "pending_approval"
	StatusApproved        LetterStatus = "approved"
	StatusSent            LetterStatus = "sent"
)

// ParseLetterStatus validates a status filter value coming from the outside.
func ParseLetterStatus(raw string) (LetterStatus, error) {
	switch LetterStatus(raw) {
	case StatusPendingApproval, StatusApproved, StatusSent:
		return LetterStatus(raw), nil
	default:
		return "", WrapError(ErrInvalidInput, "parse letter status", errUnknownValue(raw))
	}
}

type LetterStyle string

const (
	StyleFormal   LetterStyle = "formal"
	StyleBusiness LetterStyle = "business"
	StyleInformal LetterStyle = "informal"
	StyleCasual   LetterStyle = "casual"
)

type LetterUrgency string

const (
	UrgencyLow    LetterUrgency = "low"
	UrgencyMedium LetterUrgency = "medium"
	UrgencyHigh   LetterUrgency = "high"
)

func ParseLetterUrgency(raw string) (LetterUrgency, error) {
	switch LetterUrgency(raw) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return LetterUrgency(raw), nil
	default:
		return "", WrapError(ErrInvalidInput, "parse letter urgency", errUnknownValue(raw))
	}
}

// Rank orders urgencies for sorting, high first.
func (u LetterUrgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyLow:
		return 2
	default:
		return 999
	}
}

type Letter struct {
	ID              string        `json:"id"`
	ReceivedDate    time.Time     `json:"received_date"`
	SenderName      string        `json:"sender_name,omitempty"`
	SenderEmail     string        `json:"sender_email,omitempty"`
	OriginalText    string        `json:"original_text"`
	LetterStyle     LetterStyle   `json:"letter_style"`
	Urgency         LetterUrgency `json:"urgency"`
	ReplyDeadline   time.Time     `json:"reply_deadline"`
	Status          LetterStatus  `json:"status"`
	GeneratedAnswer string        `json:"generated_answer"`
	EditedAnswer    string        `json:"edited_answer,omitempty"`
	SentDate        *time.Time    `json:"sent_date,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// AnswerToSend is the reply body actually dispatched: the human-edited
// version wins over the generated draft. Decided only at send time.
func (l *Letter) AnswerToSend() string {
	if l.EditedAnswer != "" {
		return l.EditedAnswer
	}
	return l.GeneratedAnswer
}
