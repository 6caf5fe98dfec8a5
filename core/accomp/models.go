package accomp

import (
	"time"
)

// Category is the fixed enumeration of accomplishment categories.
type Category string

const (
	CategoryPPAs          Category = "ppas"
	CategoryMeetings      Category = "meetings_assemblies"
	CategoryInstitutional Category = "institutional_involvement"
	CategoryExternal      Category = "external_activities"
	CategoryDocQuality    Category = "doc_quality"
)

var categoryLabels = map[Category]string{
	CategoryPPAs:          "PPAs",
	CategoryMeetings:      "Meetings & Assemblies",
	CategoryInstitutional: "Institutional Involvement",
	CategoryExternal:      "External Activities",
	CategoryDocQuality:    "Quality of Required Documents",
}

func (c Category) Label() string {
	return categoryLabels[c]
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// DocumentStatus is the display status of one uploaded supporting document.
type DocumentStatus string

const (
	DocumentPending           DocumentStatus = "pending"
	DocumentApproved          DocumentStatus = "approved"
	DocumentRevisionRequested DocumentStatus = "revision_requested"
	DocumentRejected          DocumentStatus = "rejected"
)

// Document is one uploaded supporting file attached to a SubAccomplishment.
type Document struct {
	Label    string         `json:"label"`
	FileName string         `json:"file_name"`
	Status   DocumentStatus `json:"status"`
}

const GradingStatusGraded = "graded"

// Grading is the review-cycle scoring record. Re-grading overwrites it.
type Grading struct {
	Breakdown   map[string]int `json:"breakdown"` // criterion name -> clamped points
	TotalPoints int            `json:"total_points"`
	MaxPoints   int            `json:"max_points"`
	Comments    string         `json:"comments,omitempty"`
	Status      string         `json:"status"`
	GradedBy    string         `json:"graded_by"`
	GradedAt    time.Time      `json:"graded_at"` // UTC
}

// SubAccomplishment is a single logged activity submitted for
// point-based grading. Once graded, AwardedPoints == Grading.TotalPoints.
type SubAccomplishment struct {
	ID            string     `json:"id"`
	OrgID         string     `json:"org_id"`
	Category      Category   `json:"category"`
	Title         string     `json:"title"`
	Documents     []Document `json:"documents"`
	Grading       *Grading   `json:"grading,omitempty"`
	AwardedPoints int        `json:"awarded_points"`
	CreatedAt     time.Time  `json:"created_at"` // UTC
	UpdatedAt     time.Time  `json:"updated_at"` // UTC
}

// Labels returns the labels of all uploaded documents.
func (s SubAccomplishment) Labels() []string {
	labels := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		labels = append(labels, d.Label)
	}
	return labels
}

// Accomplishment is the per-organization aggregate.
// GrandTotal == Σ(child.AwardedPoints) after any mutation; all updates
// go through the recompute, never through direct increments.
type Accomplishment struct {
	OrgID      string    `json:"org_id"`
	GrandTotal int       `json:"grand_total"`
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

type NewSubAccomplishment struct {
	OrgID    string   `json:"org_id"`
	Category Category `json:"category"`
	Title    string   `json:"title"`
}
