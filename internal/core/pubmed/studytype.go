package pubmed

import (
	"regexp"
	"strings"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

var rctWordPattern = regexp.MustCompile(`\brcts?\b`)

// Publication types in precedence order.
var publicationTypeMap = []struct {
	name      string
	studyType domain.StudyType
}{
	{name: "meta-analysis", studyType: domain.StudyTypeMetaAnalysis},
	{name: "systematic review", studyType: domain.StudyTypeSystematicReview},
	{name: "randomized controlled trial", studyType: domain.StudyTypeRCT},
	{name: "case reports", studyType: domain.StudyTypeCaseStudy},
	{name: "observational study", studyType: domain.StudyTypeObservational},
}

// ClassifyStudyType picks a study type from the record's publication types,
// falling back to keywords in the title and abstract. Records with no
// signal are observational.
func ClassifyStudyType(publicationTypes []string, title, abstract string) domain.StudyType {
	for _, entry := range publicationTypeMap {
		for _, pt := range publicationTypes {
			if strings.EqualFold(strings.TrimSpace(pt), entry.name) {
				return entry.studyType
			}
		}
	}

	return classifyText(strings.ToLower(title + " " + abstract))
}

func classifyText(text string) domain.StudyType {
	switch {
	case strings.Contains(text, "randomized controlled trial"),
		strings.Contains(text, "randomised controlled trial"),
		rctWordPattern.MatchString(text):
		return domain.StudyTypeRCT
	case strings.Contains(text, "meta-analysis"), strings.Contains(text, "meta analysis"):
		return domain.StudyTypeMetaAnalysis
	case strings.Contains(text, "systematic review"):
		return domain.StudyTypeSystematicReview
	case strings.Contains(text, "case report"):
		return domain.StudyTypeCaseStudy
	default:
		return domain.StudyTypeObservational
	}
}
