package domain

import (
	"testing"
)

func citationsOf(types ...StudyType) []SelectedCitation {
	out := make([]SelectedCitation, 0, len(types))
	for _, t := range types {
		out = append(out, SelectedCitation{StudyType: t})
	}

	return out
}

func TestComputeGrade(t *testing.T) {
	tests := []struct {
		name      string
		citations []SelectedCitation
		want      EvidenceGrade
	}{
		{name: "no citations", citations: nil, want: EvidenceGradeD},
		{name: "single observational", citations: citationsOf(StudyTypeObservational), want: EvidenceGradeD},
		{name: "single rct", citations: citationsOf(StudyTypeRCT), want: EvidenceGradeB},
		{name: "rct with observational", citations: citationsOf(StudyTypeRCT, StudyTypeObservational), want: EvidenceGradeB},
		{name: "two rcts", citations: citationsOf(StudyTypeRCT, StudyTypeRCT), want: EvidenceGradeA},
		{name: "two observational", citations: citationsOf(StudyTypeObservational, StudyTypeCaseStudy), want: EvidenceGradeC},
		{name: "two untyped", citations: citationsOf("", ""), want: EvidenceGradeC},
		{name: "single meta-analysis", citations: citationsOf(StudyTypeMetaAnalysis), want: EvidenceGradeA},
		{name: "single systematic review", citations: citationsOf(StudyTypeSystematicReview), want: EvidenceGradeA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeGrade(tt.citations); got != tt.want {
				t.Errorf("ComputeGrade() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Any multiset containing a meta-analysis or systematic review grades A,
// regardless of what else it contains or where it sits.
func TestComputeGrade_StrongReviewAlwaysA(t *testing.T) {
	others := []StudyType{"", StudyTypeRCT, StudyTypeObservational, StudyTypeCaseStudy}
	strong := []StudyType{StudyTypeMetaAnalysis, StudyTypeSystematicReview}

	for _, s := range strong {
		for _, a := range others {
			for _, b := range others {
				for pos := 0; pos < 3; pos++ {
					types := []StudyType{a, b}
					types = append(types[:pos], append([]StudyType{s}, types[pos:]...)...)

					if got := ComputeGrade(citationsOf(types...)); got != EvidenceGradeA {
						t.Errorf("ComputeGrade(%v) = %q, want A", types, got)
					}
				}
			}
		}
	}
}
