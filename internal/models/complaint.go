package models

import "time"

// ComplaintStatus tracks complaint resolution progress.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusInProgress ComplaintStatus = "in-progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

// Valid reports whether the status is one of the known values.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	default:
		return false
	}
}

// ComplaintCategoryFallback is assigned when the classifier is unavailable
// or returns an unknown label.
const ComplaintCategoryFallback = "other"

// ComplaintCategories is the allow-list accepted from the classifier.
var ComplaintCategories = []string{
	"cleaning",
	"maintenance",
	"food",
	"noise",
	"staff",
	"water",
	"electricity",
	"wifi issue",
	"room condition",
	"washroom issue",
	"laundry",
	"security",
	"pest control",
	"air conditioning",
	"fan or light not working",
	"bed or furniture damage",
	"mess timing",
	"power backup",
	"waste disposal",
	"drinking water",
	"plumbing",
	"other",
}

// IsComplaintCategory reports whether the label is in the allow-list.
func IsComplaintCategory(label string) bool {
	for _, c := range ComplaintCategories {
		if c == label {
			return true
		}
	}
	return false
}

// Complaint represents a persisted complaint row.
type Complaint struct {
	ID              string          `db:"id" json:"id"`
	Title           string          `db:"title" json:"title"`
	Description     string          `db:"description" json:"description"`
	Room            string          `db:"room" json:"room"`
	Category        string          `db:"category" json:"category"`
	Status          ComplaintStatus `db:"status" json:"status"`
	SubmittedBy     string          `db:"submitted_by" json:"submitted_by"`
	SubmittedByName string          `db:"submitted_by_name" json:"submitted_by_name"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// ComplaintFilter allows listing complaints.
type ComplaintFilter struct {
	SubmittedBy string
	Status      string
	Category    string
	Page        int
	PageSize    int
}
