package accomp

type (
	Criterion struct {
		Name      string `json:"name"`
		MaxPoints int    `json:"max_points"`
	}

	// Rubric is the static per-category scoring scheme. Criterion caps
	// always sum to MaxPoints.
	Rubric struct {
		MaxPoints int         `json:"max_points"`
		Criteria  []Criterion `json:"criteria"`
	}
)

func (r Rubric) Criterion(name string) (Criterion, bool) {
	for _, c := range r.Criteria {
		if c.Name == name {
			return c, true
		}
	}
	return Criterion{}, false
}

var rubrics = map[Category]Rubric{
	CategoryPPAs: {
		MaxPoints: 30,
		Criteria: []Criterion{
			{Name: "Relevance to Objectives", MaxPoints: 10},
			{Name: "Documentation Quality", MaxPoints: 10},
			{Name: "Impact & Outcomes", MaxPoints: 10},
		},
	},
	CategoryMeetings: {
		MaxPoints: 5,
		Criteria: []Criterion{
			{Name: "Meeting Documentation", MaxPoints: 3},
			{Name: "Participation & Engagement", MaxPoints: 2},
		},
	},
	CategoryInstitutional: {
		MaxPoints: 10,
		Criteria: []Criterion{
			{Name: "Attendance", MaxPoints: 5},
			{Name: "Level of Participation", MaxPoints: 5},
		},
	},
	CategoryExternal: {
		MaxPoints: 10,
		Criteria: []Criterion{
			{Name: "Relevance & Authorization", MaxPoints: 5},
			{Name: "Documentation", MaxPoints: 5},
		},
	},
	CategoryDocQuality: {
		MaxPoints: 5,
		Criteria: []Criterion{
			{Name: "Completeness", MaxPoints: 3},
			{Name: "Organization & Presentation", MaxPoints: 2},
		},
	},
}

// RubricFor returns the grading rubric for a category.
func RubricFor(c Category) (Rubric, bool) {
	r, ok := rubrics[c]
	return r, ok
}
