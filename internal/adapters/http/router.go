package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/export"
	"github.com/KiritoZik/psb-AI-backend/internal/observability/metrics"
)

const (
	serviceName = "api"

	maxUploadBytes     = 10 << 20
	historyExportLimit = 1000
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultListLimit   = 50
	maxListLimit       = 200
)

// TrafficConfig bounds the inbound request flow.
type TrafficConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	QueueTimeout   time.Duration
}

// Router wires the letter pipeline and approval workflow to the HTTP surface.
type Router struct {
	processor ports.LetterProcessor
	workflow  ports.LetterWorkflow
	repo      ports.LetterRepository
	queue     ports.LetterQueue
	storage   ports.ObjectStorage
	files     ports.LetterFileExtractor
	auth      *Authenticator
	metrics   *metrics.HTTPServerMetrics
	traffic   TrafficConfig
	logger    *slog.Logger
}

func NewRouter(
	processor ports.LetterProcessor,
	workflow ports.LetterWorkflow,
	repo ports.LetterRepository,
	queue ports.LetterQueue,
	storage ports.ObjectStorage,
	files ports.LetterFileExtractor,
	auth *Authenticator,
	httpMetrics *metrics.HTTPServerMetrics,
	traffic TrafficConfig,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		processor: processor,
		workflow:  workflow,
		repo:      repo,
		queue:     queue,
		storage:   storage,
		files:     files,
		auth:      auth,
		metrics:   httpMetrics,
		traffic:   traffic,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("/v1/auth/login", rt.auth.login)
	mux.HandleFunc("/v1/letters", rt.handleLetters)
	mux.HandleFunc("/v1/letters/upload", rt.handleUpload)
	mux.HandleFunc("/v1/letters/", rt.handleLetterSubtree)
	mux.Handle("/v1/history", rt.auth.middleware(http.HandlerFunc(rt.handleHistory)))
	mux.Handle("/v1/history/export", rt.auth.middleware(http.HandlerFunc(rt.handleHistoryExport)))

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.traffic.MaxConcurrent, rt.traffic.QueueTimeout)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) handleLetters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.handleProcess(w, r)
	case http.MethodGet:
		rt.handleList(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processLetterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "process letter", errors.New("text is required")))
		return
	}

	senderEmail := ""
	if req.SenderEmail != nil {
		senderEmail = string(*req.SenderEmail)
	}

	if req.Async {
		if rt.queue == nil {
			writeError(w, domain.WrapError(domain.ErrTemporary, "enqueue letter", errors.New("queue is not configured")))
			return
		}
		inbound := ports.InboundLetter{
			Text:        req.Text,
			SenderName:  req.SenderName,
			SenderEmail: senderEmail,
		}
		if err := rt.queue.PublishLetterReceived(r.Context(), inbound); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, queuedResponse{Status: "queued"})
		return
	}

	rt.process(w, r, ports.ProcessRequest{
		Text:        req.Text,
		SenderName:  req.SenderName,
		SenderEmail: senderEmail,
	})
}

func (rt *Router) process(w http.ResponseWriter, r *http.Request, req ports.ProcessRequest) {
	start := time.Now()
	result, err := rt.processor.Process(r.Context(), req)

	letterType := "unknown"
	if result != nil {
		letterType = string(result.Classification.Type)
	}
	if rt.metrics != nil {
		rt.metrics.RecordLetterProcessed(serviceName, letterType, time.Since(start), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, processLetterResponse{
		Letter:         result.Letter,
		Classification: newClassificationResponse(result.Classification),
		Fields:         result.Fields,
	})
}

func (rt *Router) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	letters, total, err := rt.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, letterListResponse{
		Letters: letters,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

func (rt *Router) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "upload letter", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "upload letter", errors.New("file is required")))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "upload letter", err))
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "upload letter", errors.New("file exceeds the size limit")))
		return
	}

	if rt.storage != nil {
		key := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
		if err := rt.storage.Save(r.Context(), key, bytes.NewReader(data)); err != nil {
			rt.logger.WarnContext(r.Context(), "failed to archive uploaded letter",
				"filename", header.Filename,
				"error", err,
			)
		}
	}

	text, err := rt.files.ExtractText(header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.process(w, r, ports.ProcessRequest{
		Text:        text,
		SenderName:  r.FormValue("sender_name"),
		SenderEmail: r.FormValue("sender_email"),
	})
}

func (rt *Router) handleLetterSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/letters/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	id := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		rt.handleGet(w, r, id)
		return
	}
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}

	var action http.HandlerFunc
	switch parts[1] {
	case "edit":
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		action = func(w http.ResponseWriter, r *http.Request) { rt.handleEdit(w, r, id) }
	case "approve":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		action = func(w http.ResponseWriter, r *http.Request) { rt.handleApprove(w, r, id) }
	case "send":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		action = func(w http.ResponseWriter, r *http.Request) { rt.handleSend(w, r, id) }
	default:
		http.NotFound(w, r)
		return
	}

	rt.auth.middleware(action).ServeHTTP(w, r)
}

func (rt *Router) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	letter, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, letter)
}

func (rt *Router) handleEdit(w http.ResponseWriter, r *http.Request, id string) {
	var req editReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	letter, err := rt.workflow.Edit(r.Context(), id, req.EditedAnswer)
	if rt.metrics != nil {
		rt.metrics.RecordWorkflowTransition(serviceName, "edit", err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, letter)
}

func (rt *Router) handleApprove(w http.ResponseWriter, r *http.Request, id string) {
	var req approveReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	letter, err := rt.workflow.Approve(r.Context(), id, req.Approved, req.EditedAnswer)
	if rt.metrics != nil {
		rt.metrics.RecordWorkflowTransition(serviceName, "approve", err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, letter)
}

func (rt *Router) handleSend(w http.ResponseWriter, r *http.Request, id string) {
	letter, err := rt.workflow.Send(r.Context(), id)
	if rt.metrics != nil {
		rt.metrics.RecordWorkflowTransition(serviceName, "send", err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, letter)
}

func (rt *Router) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	letters, total, err := rt.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, letterListResponse{
		Letters: letters,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

func (rt *Router) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	letters, _, err := rt.repo.List(r.Context(), ports.ListFilter{Limit: historyExportLimit})
	if err != nil {
		writeError(w, err)
		return
	}

	workbook, err := export.BuildHistoryWorkbook(letters)
	if err != nil {
		writeError(w, err)
		return
	}
	defer workbook.Close()

	filename := "letters_history_" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := workbook.WriteTo(w); err != nil {
		rt.logger.WarnContext(r.Context(), "failed to stream history export", "error", err)
	}
}

func parseListFilter(r *http.Request) (ports.ListFilter, error) {
	query := r.URL.Query()
	filter := ports.ListFilter{
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Limit:     defaultListLimit,
	}

	if raw := query.Get("status"); raw != "" {
		status, err := domain.ParseLetterStatus(raw)
		if err != nil {
			return ports.ListFilter{}, domain.WrapError(domain.ErrInvalidInput, "list letters", err)
		}
		filter.Status = status
	}
	if raw := query.Get("urgency"); raw != "" {
		urgency, err := domain.ParseLetterUrgency(raw)
		if err != nil {
			return ports.ListFilter{}, domain.WrapError(domain.ErrInvalidInput, "list letters", err)
		}
		filter.Urgency = urgency
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return ports.ListFilter{}, domain.WrapError(domain.ErrInvalidInput, "list letters", errors.New("limit must be a positive integer"))
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return ports.ListFilter{}, domain.WrapError(domain.ErrInvalidInput, "list letters", errors.New("offset must be a non-negative integer"))
		}
		filter.Offset = offset
	}

	return filter, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, err error) {
	statusCode := mapErrorToHTTPStatus(err)
	if statusCode >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, statusCode, map[string]string{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
