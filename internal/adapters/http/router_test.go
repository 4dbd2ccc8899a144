package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
)

type processorFake struct {
	lastRequest ports.ProcessRequest
	result      *ports.ProcessResult
	err         error
}

func (f *processorFake) Process(_ context.Context, req ports.ProcessRequest) (*ports.ProcessResult, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type workflowFake struct {
	letter *domain.Letter
	err    error

	lastEdited   string
	lastApproved bool
}

func (f *workflowFake) Edit(_ context.Context, _, editedAnswer string) (*domain.Letter, error) {
	f.lastEdited = editedAnswer
	return f.letter, f.err
}

func (f *workflowFake) Approve(_ context.Context, _ string, approved bool, editedAnswer string) (*domain.Letter, error) {
	f.lastApproved = approved
	f.lastEdited = editedAnswer
	return f.letter, f.err
}

func (f *workflowFake) Send(_ context.Context, _ string) (*domain.Letter, error) {
	return f.letter, f.err
}

type repoFake struct {
	letters    []domain.Letter
	lastFilter ports.ListFilter
	getErr     error
}

func (f *repoFake) Create(context.Context, *domain.Letter) error { return nil }

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Letter, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.letters {
		if f.letters[i].ID == id {
			return &f.letters[i], nil
		}
	}
	return nil, domain.WrapError(domain.ErrLetterNotFound, "get letter", errors.New(id))
}

func (f *repoFake) List(_ context.Context, filter ports.ListFilter) ([]domain.Letter, int, error) {
	f.lastFilter = filter
	return f.letters, len(f.letters), nil
}

func (f *repoFake) SetEditedAnswer(context.Context, string, string) error { return nil }
func (f *repoFake) Approve(context.Context, string, string) error         { return nil }
func (f *repoFake) MarkSent(context.Context, string, time.Time) error     { return nil }

type queueFake struct {
	published []ports.InboundLetter
	err       error
}

func (f *queueFake) PublishLetterReceived(_ context.Context, letter ports.InboundLetter) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, letter)
	return nil
}

func (f *queueFake) SubscribeLetterReceived(context.Context, func(context.Context, ports.InboundLetter) error) error {
	return nil
}

type fileExtractorFake struct {
	text string
	err  error
}

func (f *fileExtractorFake) ExtractText(string, []byte) (string, error) {
	return f.text, f.err
}

type routerFixture struct {
	processor *processorFake
	workflow  *workflowFake
	repo      *repoFake
	queue     *queueFake
	files     *fileExtractorFake
	auth      *Authenticator
	handler   http.Handler
}

func sampleLetter() *domain.Letter {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return &domain.Letter{
		ID:              "letter-1",
		ReceivedDate:    now,
		SenderName:      "Иванов Иван",
		SenderEmail:     "ivanov@example.com",
		OriginalText:    "Прошу рассмотреть жалобу.",
		LetterStyle:     domain.StyleFormal,
		Urgency:         domain.UrgencyHigh,
		ReplyDeadline:   now.AddDate(0, 0, 3),
		Status:          domain.StatusPendingApproval,
		GeneratedAnswer: "Уважаемый Иван, ваше обращение принято.",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func newRouterFixture(t *testing.T, secret string) *routerFixture {
	t.Helper()

	letter := sampleLetter()
	fixture := &routerFixture{
		processor: &processorFake{
			result: &ports.ProcessResult{
				Letter: letter,
				Classification: domain.ClassificationResult{
					Type:       domain.TypeComplaint,
					Confidence: 0.92,
					Urgency:    domain.UrgencyHigh,
					Tone:       domain.StyleFormal,
				},
			},
		},
		workflow: &workflowFake{letter: letter},
		repo:     &repoFake{letters: []domain.Letter{*letter}},
		queue:    &queueFake{},
		files:    &fileExtractorFake{text: "извлеченный текст письма"},
		auth:     NewAuthenticator(secret, time.Hour, "admin", "secret-password"),
	}
	router := NewRouter(
		fixture.processor,
		fixture.workflow,
		fixture.repo,
		fixture.queue,
		nil,
		fixture.files,
		fixture.auth,
		nil,
		TrafficConfig{},
		nil,
	)
	fixture.handler = router.Handler()
	return fixture
}

func (f *routerFixture) token(t *testing.T) string {
	t.Helper()

	body := `{"username":"admin","password":"secret-password"}`
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func TestProcessLetterReturnsCreated(t *testing.T) {
	fixture := newRouterFixture(t, "")

	body := `{"text":"Прошу рассмотреть жалобу.","sender_name":"Иванов Иван"}`
	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/letters", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp processLetterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Letter == nil || resp.Letter.ID != "letter-1" {
		t.Fatalf("unexpected letter in response: %+v", resp.Letter)
	}
	if resp.Classification.Confidence != 0.92 {
		t.Fatalf("expected model confidence 0.92, got %v", resp.Classification.Confidence)
	}
	if fixture.processor.lastRequest.SenderName != "Иванов Иван" {
		t.Fatalf("sender name not passed through: %+v", fixture.processor.lastRequest)
	}
}

func TestProcessLetterDefaultsMissingConfidence(t *testing.T) {
	fixture := newRouterFixture(t, "")
	fixture.processor.result.Classification.UrgencyConfidence = 0
	fixture.processor.result.Classification.ToneConfidence = 0

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/letters", strings.NewReader(`{"text":"текст"}`)))

	var resp processLetterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Classification.UrgencyConfidence != apiDefaultConfidence {
		t.Fatalf("expected default urgency confidence, got %v", resp.Classification.UrgencyConfidence)
	}
	if resp.Classification.ToneConfidence != apiDefaultConfidence {
		t.Fatalf("expected default tone confidence, got %v", resp.Classification.ToneConfidence)
	}
}

func TestProcessLetterRejectsEmptyText(t *testing.T) {
	fixture := newRouterFixture(t, "")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/letters", strings.NewReader(`{"text":"   "}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProcessLetterAsyncQueues(t *testing.T) {
	fixture := newRouterFixture(t, "")

	body := `{"text":"Срочный вопрос","sender_email":"client@example.com","async":true}`
	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/letters", strings.NewReader(body)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(fixture.queue.published) != 1 {
		t.Fatalf("expected one queued letter, got %d", len(fixture.queue.published))
	}
	if fixture.queue.published[0].SenderEmail != "client@example.com" {
		t.Fatalf("unexpected queued envelope: %+v", fixture.queue.published[0])
	}
}

func TestProcessLetterMapsErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"generation failure", domain.WrapError(domain.ErrGenerationFailed, "compose", errors.New("model error")), http.StatusBadGateway},
		{"classifier down", domain.WrapError(domain.ErrClassifierUnavailable, "classify", errors.New("artifacts missing")), http.StatusServiceUnavailable},
		{"temporary outage", domain.WrapError(domain.ErrTemporary, "compose", errors.New("429")), http.StatusServiceUnavailable},
		{"unknown failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := newRouterFixture(t, "")
			fixture.processor.err = tc.err

			rec := httptest.NewRecorder()
			fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/letters", strings.NewReader(`{"text":"текст"}`)))

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestListLettersParsesFilter(t *testing.T) {
	fixture := newRouterFixture(t, "")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/letters?status=approved&urgency=high&sort_by=deadline&limit=10&offset=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	filter := fixture.repo.lastFilter
	if filter.Status != domain.StatusApproved || filter.Urgency != domain.UrgencyHigh {
		t.Fatalf("filter not applied: %+v", filter)
	}
	if filter.SortBy != "deadline" || filter.Limit != 10 || filter.Offset != 5 {
		t.Fatalf("paging not applied: %+v", filter)
	}
}

func TestListLettersRejectsUnknownStatus(t *testing.T) {
	fixture := newRouterFixture(t, "")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/letters?status=archived", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetLetterNotFound(t *testing.T) {
	fixture := newRouterFixture(t, "")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/letters/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUploadLetterExtractsAndProcesses(t *testing.T) {
	fixture := newRouterFixture(t, "")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "letter.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("Прошу предоставить выписку.")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.WriteField("sender_email", "upload@example.com"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/letters/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if fixture.processor.lastRequest.Text != "извлеченный текст письма" {
		t.Fatalf("extracted text not used: %q", fixture.processor.lastRequest.Text)
	}
	if fixture.processor.lastRequest.SenderEmail != "upload@example.com" {
		t.Fatalf("form sender not used: %+v", fixture.processor.lastRequest)
	}
}

func TestUploadLetterRejectsUnsupportedFile(t *testing.T) {
	fixture := newRouterFixture(t, "")
	fixture.files.err = domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("unsupported file type"))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "letter.docx")
	_, _ = part.Write([]byte("binary"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/letters/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEditRequiresToken(t *testing.T) {
	fixture := newRouterFixture(t, "test-secret")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/letters/letter-1/edit", strings.NewReader(`{"edited_answer":"новый текст"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestEditWithTokenUpdatesAnswer(t *testing.T) {
	fixture := newRouterFixture(t, "test-secret")
	token := fixture.token(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/letters/letter-1/edit", strings.NewReader(`{"edited_answer":"новый текст"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if fixture.workflow.lastEdited != "новый текст" {
		t.Fatalf("edited answer not forwarded: %q", fixture.workflow.lastEdited)
	}
}

func TestEditRejectsGarbageToken(t *testing.T) {
	fixture := newRouterFixture(t, "test-secret")

	req := httptest.NewRequest(http.MethodPut, "/v1/letters/letter-1/edit", strings.NewReader(`{"edited_answer":"текст"}`))
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}

func TestApproveForwardsDecision(t *testing.T) {
	fixture := newRouterFixture(t, "")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/letters/letter-1/approve", strings.NewReader(`{"approved":true,"edited_answer":"финальный текст"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !fixture.workflow.lastApproved || fixture.workflow.lastEdited != "финальный текст" {
		t.Fatalf("approval not forwarded: approved=%v edited=%q", fixture.workflow.lastApproved, fixture.workflow.lastEdited)
	}
}

func TestSendMapsWorkflowViolation(t *testing.T) {
	fixture := newRouterFixture(t, "")
	fixture.workflow.err = domain.WrapError(domain.ErrWorkflowViolation, "send letter", errors.New("letter is not approved"))
	fixture.workflow.letter = nil

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/letters/letter-1/send", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	fixture := newRouterFixture(t, "test-secret")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHistoryRequiresToken(t *testing.T) {
	fixture := newRouterFixture(t, "test-secret")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHistoryExportStreamsWorkbook(t *testing.T) {
	fixture := newRouterFixture(t, "test-secret")
	token := fixture.token(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/history/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != xlsxContentType {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("missing attachment disposition: %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected non-empty workbook body")
	}
}

func TestHealthz(t *testing.T) {
	fixture := newRouterFixture(t, "")

	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
