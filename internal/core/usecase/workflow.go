package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
)

const replySubject = "Ответ на Ваше обращение"

// ApprovalWorkflowUseCase drives the letter approval state machine:
// pending_approval -> approved -> sent. A sent letter is immutable.
type ApprovalWorkflowUseCase struct {
	repo   ports.LetterRepository
	mailer ports.MailSender
}

var _ ports.LetterWorkflow = (*ApprovalWorkflowUseCase)(nil)

func NewApprovalWorkflowUseCase(repo ports.LetterRepository, mailer ports.MailSender) *ApprovalWorkflowUseCase {
	return &ApprovalWorkflowUseCase{
		repo:   repo,
		mailer: mailer,
	}
}

func (uc *ApprovalWorkflowUseCase) Edit(ctx context.Context, id, editedAnswer string) (*domain.Letter, error) {
	editedAnswer = strings.TrimSpace(editedAnswer)
	if editedAnswer == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "edit reply", errors.New("empty edited answer"))
	}

	letter, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch letter by id: %w", err)
	}
	if letter.Status == domain.StatusSent {
		return nil, domain.WrapError(domain.ErrWorkflowViolation, "edit reply", errors.New("letter already sent"))
	}

	if err := uc.repo.SetEditedAnswer(ctx, id, editedAnswer); err != nil {
		return nil, fmt.Errorf("save edited answer: %w", err)
	}

	letter.EditedAnswer = editedAnswer
	letter.UpdatedAt = time.Now().UTC()
	return letter, nil
}

// Approve transitions the letter to approved. A rejection leaves the letter
// pending so the reply can be edited and re-reviewed. An optional edited
// answer override is applied atomically with the approval.
func (uc *ApprovalWorkflowUseCase) Approve(ctx context.Context, id string, approved bool, editedAnswer string) (*domain.Letter, error) {
	letter, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch letter by id: %w", err)
	}
	if letter.Status == domain.StatusSent {
		return nil, domain.WrapError(domain.ErrWorkflowViolation, "approve reply", errors.New("letter already sent"))
	}

	if !approved {
		return letter, nil
	}

	editedAnswer = strings.TrimSpace(editedAnswer)
	if err := uc.repo.Approve(ctx, id, editedAnswer); err != nil {
		return nil, fmt.Errorf("approve letter: %w", err)
	}

	letter.Status = domain.StatusApproved
	if editedAnswer != "" {
		letter.EditedAnswer = editedAnswer
	}
	letter.UpdatedAt = time.Now().UTC()
	return letter, nil
}

func (uc *ApprovalWorkflowUseCase) Send(ctx context.Context, id string) (*domain.Letter, error) {
	letter, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch letter by id: %w", err)
	}

	if letter.Status != domain.StatusApproved {
		return nil, domain.WrapError(domain.ErrWorkflowViolation, "send reply",
			fmt.Errorf("letter status is %s, send requires approval", letter.Status))
	}
	if strings.TrimSpace(letter.SenderEmail) == "" {
		return nil, domain.WrapError(domain.ErrWorkflowViolation, "send reply", errors.New("letter has no sender email"))
	}
	body := letter.AnswerToSend()
	if strings.TrimSpace(body) == "" {
		return nil, domain.WrapError(domain.ErrWorkflowViolation, "send reply", errors.New("letter has no reply body"))
	}

	if err := uc.mailer.Send(ctx, letter.SenderEmail, letter.SenderName, replySubject, body); err != nil {
		return nil, fmt.Errorf("send reply email: %w", err)
	}

	sentAt := time.Now().UTC()
	if err := uc.repo.MarkSent(ctx, id, sentAt); err != nil {
		return nil, fmt.Errorf("mark letter sent: %w", err)
	}

	letter.Status = domain.StatusSent
	letter.SentDate = &sentAt
	letter.UpdatedAt = sentAt
	return letter, nil
}
