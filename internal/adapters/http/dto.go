package httpadapter

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
)

// apiDefaultConfidence is reported when a task model produced no usable
// confidence value.
const apiDefaultConfidence = 0.7

type processLetterRequest struct {
	Text        string               `json:"text"`
	SenderName  string               `json:"sender_name,omitempty"`
	SenderEmail *openapi_types.Email `json:"sender_email,omitempty"`
	Async       bool                 `json:"async,omitempty"`
}

type classificationResponse struct {
	Type              string  `json:"type"`
	Confidence        float64 `json:"confidence"`
	Urgency           string  `json:"urgency"`
	UrgencyConfidence float64 `json:"urgency_confidence"`
	Tone              string  `json:"tone"`
	ToneConfidence    float64 `json:"tone_confidence"`
}

type processLetterResponse struct {
	Letter         *domain.Letter         `json:"letter"`
	Classification classificationResponse `json:"classification"`
	Fields         domain.ExtractedFields `json:"extracted_fields"`
}

func newClassificationResponse(c domain.ClassificationResult) classificationResponse {
	return classificationResponse{
		Type:              string(c.Type),
		Confidence:        orDefaultConfidence(c.Confidence),
		Urgency:           string(c.Urgency),
		UrgencyConfidence: orDefaultConfidence(c.UrgencyConfidence),
		Tone:              string(c.Tone),
		ToneConfidence:    orDefaultConfidence(c.ToneConfidence),
	}
}

func orDefaultConfidence(v float64) float64 {
	if v <= 0 {
		return apiDefaultConfidence
	}
	return v
}

type editReplyRequest struct {
	EditedAnswer string `json:"edited_answer"`
}

type approveReplyRequest struct {
	Approved     bool   `json:"approved"`
	EditedAnswer string `json:"edited_answer,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type letterListResponse struct {
	Letters []domain.Letter `json:"letters"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type queuedResponse struct {
	Status string `json:"status"`
}
