package domain

// EvidenceGrade rates the strength of the evidence behind a recommendation.
type EvidenceGrade string

// Evidence grades from strongest to weakest.
const (
	EvidenceGradeA EvidenceGrade = "A"
	EvidenceGradeB EvidenceGrade = "B"
	EvidenceGradeC EvidenceGrade = "C"
	EvidenceGradeD EvidenceGrade = "D"
)

const (
	minRCTsForStrong    = 2
	minCitationsLimited = 2
)

// Valid reports whether g is one of A, B, C or D.
func (g EvidenceGrade) Valid() bool {
	switch g {
	case EvidenceGradeA, EvidenceGradeB, EvidenceGradeC, EvidenceGradeD:
		return true
	default:
		return false
	}
}

// ComputeGrade derives the evidence grade from the study types of the
// attached citations. Citations without a study type only count towards
// the total.
func ComputeGrade(citations []SelectedCitation) EvidenceGrade {
	var rcts int

	for _, c := range citations {
		switch c.StudyType {
		case StudyTypeMetaAnalysis, StudyTypeSystematicReview:
			return EvidenceGradeA
		case StudyTypeRCT:
			rcts++
		}
	}

	switch {
	case rcts >= minRCTsForStrong:
		return EvidenceGradeA
	case rcts >= 1:
		return EvidenceGradeB
	case len(citations) >= minCitationsLimited:
		return EvidenceGradeC
	default:
		return EvidenceGradeD
	}
}
