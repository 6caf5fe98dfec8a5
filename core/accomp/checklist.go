package accomp

import "strings"

type (
	// ChecklistDoc is one entry of a category's static document checklist.
	ChecklistDoc struct {
		Label    string `json:"label"`
		Required bool   `json:"required"`
	}

	// Completeness partitions a category checklist against the uploaded
	// document labels. It is derived on read, never stored.
	Completeness struct {
		MissingRequired       []ChecklistDoc `json:"missing_required"`
		MissingOptional       []ChecklistDoc `json:"missing_optional"`
		UploadedOptionalCount int            `json:"uploaded_optional_count"`
	}
)

var checklists = map[Category][]ChecklistDoc{
	CategoryPPAs: {
		{Label: "Activity Proposal", Required: true},
		{Label: "Narrative Report", Required: true},
		{Label: "Photo Documentation", Required: true},
		{Label: "Attendance Sheet", Required: false},
		{Label: "Evaluation Results", Required: false},
	},
	CategoryMeetings: {
		{Label: "Minutes of the Meeting", Required: true},
		{Label: "Attendance Sheet", Required: true},
		{Label: "Agenda", Required: false},
		{Label: "Photo Documentation", Required: false},
	},
	CategoryInstitutional: {
		{Label: "Certificate of Participation", Required: true},
		{Label: "Photo Documentation", Required: true},
		{Label: "Narrative Report", Required: false},
	},
	CategoryExternal: {
		{Label: "Official Invitation", Required: true},
		{Label: "Narrative Report", Required: true},
		{Label: "Photo Documentation", Required: true},
		{Label: "CMO 63 s. 2017 documents", Required: true},
		{Label: "Certificate of Participation", Required: false},
		{Label: "Travel Order", Required: false},
	},
	// graded across the other submissions; no checklist of its own
	CategoryDocQuality: {},
}

// ChecklistFor returns the static document checklist for a category.
// An unknown category has an empty checklist, not an error.
func ChecklistFor(c Category) []ChecklistDoc {
	return checklists[c]
}

// ComputeCompleteness compares the uploaded labels against the category
// checklist. Matching is case-insensitive and exact.
func ComputeCompleteness(category Category, uploadedLabels []string) Completeness {
	uploaded := make(map[string]struct{}, len(uploadedLabels))
	for _, l := range uploadedLabels {
		uploaded[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}

	cpl := Completeness{
		MissingRequired: make([]ChecklistDoc, 0),
		MissingOptional: make([]ChecklistDoc, 0),
	}
	for _, doc := range ChecklistFor(category) {
		_, ok := uploaded[strings.ToLower(doc.Label)]
		switch {
		case ok && !doc.Required:
			cpl.UploadedOptionalCount++
		case !ok && doc.Required:
			cpl.MissingRequired = append(cpl.MissingRequired, doc)
		case !ok:
			cpl.MissingOptional = append(cpl.MissingOptional, doc)
		}
	}
	return cpl
}
