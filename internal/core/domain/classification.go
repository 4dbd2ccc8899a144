package domain

// Entity categories used both for classifier hints and personal-data redaction.
const (
	EntityNames     = "names"
	EntityDates     = "dates"
	EntityContracts = "contract_numbers"
	EntityAccounts  = "account_numbers"
)

// ClassificationResult is the joint prediction of the three task models.
type ClassificationResult struct {
	Type              LetterType          `json:"type"`
	Confidence        float64             `json:"confidence"`
	Urgency           LetterUrgency       `json:"urgency"`
	UrgencyConfidence float64             `json:"urgency_confidence"`
	Tone              LetterStyle         `json:"tone"`
	ToneConfidence    float64             `json:"tone_confidence"`
	Entities          map[string][]string `json:"entities"`
}

// ExtractedFields holds the structured facts recovered from raw letter text.
type ExtractedFields struct {
	Names           []string `json:"names,omitempty"`
	Dates           []string `json:"dates"`
	ContractNumbers []string `json:"contract_numbers"`
	AccountNumbers  []string `json:"account_numbers,omitempty"`
	Amounts         []string `json:"amounts"`
	KeyPhrases      []string `json:"key_phrases"`
	SenderName      string   `json:"sender_name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
}

// IsEmpty reports whether extraction found nothing usable.
func (f ExtractedFields) IsEmpty() bool {
	return len(f.Names) == 0 &&
		len(f.Dates) == 0 &&
		len(f.ContractNumbers) == 0 &&
		len(f.AccountNumbers) == 0 &&
		len(f.Amounts) == 0 &&
		len(f.KeyPhrases) == 0 &&
		f.SenderName == "" &&
		f.Email == "" &&
		f.Phone == ""
}

// MergeHints fills gaps in the extracted fields from classifier entity hints.
// Existing values always win; hint values are appended in their own order.
func (f *ExtractedFields) MergeHints(entities map[string][]string) {
	f.Names = mergeUnique(f.Names, entities[EntityNames])
	f.Dates = mergeUnique(f.Dates, entities[EntityDates])
	f.ContractNumbers = mergeUnique(f.ContractNumbers, entities[EntityContracts])
	f.AccountNumbers = mergeUnique(f.AccountNumbers, entities[EntityAccounts])

	if f.SenderName == "" && len(f.Names) > 0 {
		f.SenderName = f.Names[0]
	}
}

func mergeUnique(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	out := base
	for _, v := range extra {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
