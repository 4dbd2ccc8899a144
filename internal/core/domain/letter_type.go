package domain

// LetterType values match the label set of the trained type model exactly.
type LetterType string

const (
	TypeComplaint        LetterType = "Official Complaint or Claim"
	TypeRegulatory       LetterType = "Regulatory Request"
	TypePartnership      LetterType = "Partnership Proposal"
	TypeDocumentRequest  LetterType = "Information/Document Request"
	TypeNotification     LetterType = "Notification or Information"
	TypeApprovalRequest  LetterType = "Approval Request"
)

// ParseLetterType converts a raw model label into a LetterType.
// Unknown labels fall back to the approval-request type.
func ParseLetterType(raw string) LetterType {
	switch LetterType(raw) {
	case TypeComplaint, TypeRegulatory, TypePartnership, TypeDocumentRequest, TypeNotification, TypeApprovalRequest:
		return LetterType(raw)
	default:
		return TypeApprovalRequest
	}
}

// ReplyDeadlineDays returns the number of days allowed for a reply.
// Complaints must be answered fast, partnership proposals can wait.
func (t LetterType) ReplyDeadlineDays() int {
	switch t {
	case TypeComplaint:
		return 3
	case TypeRegulatory:
		return 5
	case TypeDocumentRequest:
		return 7
	case TypePartnership:
		return 14
	case TypeNotification:
		return 1
	case TypeApprovalRequest:
		return 7
	default:
		return 7
	}
}

// Style maps a letter type to the reply style the drafted answer should use.
func (t LetterType) Style() LetterStyle {
	switch t {
	case TypeComplaint, TypeRegulatory:
		return StyleFormal
	default:
		return StyleBusiness
	}
}
