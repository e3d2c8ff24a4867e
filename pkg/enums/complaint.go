package enums

import "fmt"

// ComplaintStatus tracks a quality complaint through triage.
type ComplaintStatus string

const (
	ComplaintStatusPending       ComplaintStatus = "pending"
	ComplaintStatusInvestigating ComplaintStatus = "investigating"
	ComplaintStatusResolved      ComplaintStatus = "resolved"
	ComplaintStatusRejected      ComplaintStatus = "rejected"
)

var validComplaintStatuses = []ComplaintStatus{
	ComplaintStatusPending,
	ComplaintStatusInvestigating,
	ComplaintStatusResolved,
	ComplaintStatusRejected,
}

// String implements fmt.Stringer.
func (c ComplaintStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ComplaintStatus.
func (c ComplaintStatus) IsValid() bool {
	for _, candidate := range validComplaintStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// CountsTowardPenalty reports whether a complaint in this status is included
// when computing the escalating penalty for the next complaint.
func (c ComplaintStatus) CountsTowardPenalty() bool {
	return c == ComplaintStatusResolved || c == ComplaintStatusInvestigating
}

// ParseComplaintStatus converts raw input into a ComplaintStatus.
func ParseComplaintStatus(value string) (ComplaintStatus, error) {
	for _, candidate := range validComplaintStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid complaint status %q", value)
}

// ComplaintIssueType names the buyer-reported problem category.
type ComplaintIssueType string

const (
	ComplaintIssueQuality   ComplaintIssueType = "quality"
	ComplaintIssueQuantity  ComplaintIssueType = "quantity"
	ComplaintIssueFreshness ComplaintIssueType = "freshness"
	ComplaintIssuePackaging ComplaintIssueType = "packaging"
	ComplaintIssueWrongItem ComplaintIssueType = "wrong_item"
	ComplaintIssueOther     ComplaintIssueType = "other"
)

var validComplaintIssueTypes = []ComplaintIssueType{
	ComplaintIssueQuality,
	ComplaintIssueQuantity,
	ComplaintIssueFreshness,
	ComplaintIssuePackaging,
	ComplaintIssueWrongItem,
	ComplaintIssueOther,
}

// String implements fmt.Stringer.
func (c ComplaintIssueType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ComplaintIssueType.
func (c ComplaintIssueType) IsValid() bool {
	for _, candidate := range validComplaintIssueTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseComplaintIssueType converts raw input into a ComplaintIssueType.
func ParseComplaintIssueType(value string) (ComplaintIssueType, error) {
	for _, candidate := range validComplaintIssueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid complaint issue type %q", value)
}
