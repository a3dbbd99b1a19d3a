package domain

// StudyType classifies the design of a cited study.
type StudyType string

// Study type values.
const (
	StudyTypeRCT              StudyType = "rct"
	StudyTypeMetaAnalysis     StudyType = "meta-analysis"
	StudyTypeSystematicReview StudyType = "systematic-review"
	StudyTypeObservational    StudyType = "observational"
	StudyTypeCaseStudy        StudyType = "case-study"
)

// Valid reports whether t is one of the known study types.
func (t StudyType) Valid() bool {
	switch t {
	case StudyTypeRCT, StudyTypeMetaAnalysis, StudyTypeSystematicReview, StudyTypeObservational, StudyTypeCaseStudy:
		return true
	default:
		return false
	}
}

// CandidateCitation is one parsed bibliographic record from the literature index.
type CandidateCitation struct {
	PMID      string    // Bibliographic identifier
	Title     string    // Article title, sub-tags stripped
	Journal   string    // Journal name or "Unknown Journal"
	Year      int       // Publication year
	Authors   string    // "Surname et al.", "Surname" or "Unknown"
	Abstract  string    // Abstract text, may be empty
	StudyType StudyType // Classified from publication types and text
}

// SelectedCitation is a candidate accepted by the relevance filter.
type SelectedCitation struct {
	PMID              string    `json:"pmid"`
	Title             string    `json:"title"`
	Authors           string    `json:"authors"`
	Journal           string    `json:"journal"`
	Year              int       `json:"year"`
	Summary           string    `json:"summary"`
	HighlightSentence string    `json:"highlightSentence,omitempty"`
	StudyType         StudyType `json:"studyType,omitempty"`
	Verified          bool      `json:"verified"`
}

// CitationSelection is the outcome of selecting citations for one
// ingredient, as stored in the citation cache.
type CitationSelection struct {
	Citations []SelectedCitation
	Fallback  bool // chosen by the deterministic fallback, not the relevance filter
}

// PMIDs returns the identifiers of the given citations in order.
func PMIDs(citations []SelectedCitation) []string {
	out := make([]string, 0, len(citations))
	for _, c := range citations {
		out = append(out, c.PMID)
	}

	return out
}
