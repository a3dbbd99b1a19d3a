package pubmed

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

const (
	parserExpectedCountFmt = "expected %d citations, got %d"
	parserFieldFmt         = "expected %s %q, got %q"
)

func record(pmid, title, journal, pubDate, authors, abstract, pubTypes string) string {
	return fmt.Sprintf(`<PubmedArticle>
  <MedlineCitation Status="MEDLINE" Owner="NLM">
    <PMID Version="1">%s</PMID>
    <Article PubModel="Print">
      <Journal>
        <JournalIssue CitedMedium="Internet"><PubDate>%s</PubDate></JournalIssue>
        <Title>%s</Title>
      </Journal>
      <ArticleTitle>%s</ArticleTitle>
      <Abstract>%s</Abstract>
      <AuthorList CompleteYN="Y">%s</AuthorList>
      <PublicationTypeList>%s</PublicationTypeList>
    </Article>
  </MedlineCitation>
</PubmedArticle>`, pmid, pubDate, journal, title, abstract, authors, pubTypes)
}

func author(last string) string {
	return "<Author ValidYN=\"Y\"><LastName>" + last + "</LastName><ForeName>A</ForeName></Author>"
}

func TestParse_ExtractsFieldsPerRecord(t *testing.T) {
	payload := `<?xml version="1.0" ?><PubmedArticleSet>` +
		record("111", "Magnesium and <i>sleep</i> quality", "Nutrients", "<Year>2021</Year><Month>Mar</Month>",
			author("Abbasi")+author("Nguyen"), `<AbstractText Label="BACKGROUND">Insomnia is common.</AbstractText><AbstractText Label="RESULTS">Magnesium improved sleep efficiency &amp; latency.</AbstractText>`,
			`<PublicationType UI="D016449">Randomized Controlled Trial</PublicationType>`) +
		record("222", "Zinc review", "Sleep Med Rev", "<MedlineDate>2019 Jan-Feb</MedlineDate>",
			author("Cherasse"), `<AbstractText>Zinc may help.</AbstractText>`,
			`<PublicationType>Review</PublicationType><PublicationType>Meta-Analysis</PublicationType>`) +
		`</PubmedArticleSet>`

	got := parseAt(payload, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if len(got) != 2 {
		t.Fatalf(parserExpectedCountFmt, 2, len(got))
	}

	want := []domain.CandidateCitation{
		{
			PMID:      "111",
			Title:     "Magnesium and sleep quality",
			Journal:   "Nutrients",
			Year:      2021,
			Authors:   "Abbasi et al.",
			Abstract:  "Insomnia is common. Magnesium improved sleep efficiency & latency.",
			StudyType: domain.StudyTypeRCT,
		},
		{
			PMID:      "222",
			Title:     "Zinc review",
			Journal:   "Sleep Med Rev",
			Year:      2019,
			Authors:   "Cherasse",
			Abstract:  "Zinc may help.",
			StudyType: domain.StudyTypeMetaAnalysis,
		},
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("citation %d:\n got %+v\nwant %+v", i, got[i], want[i])
		}
	}
}

func TestParse_MissingYearDefaultsToCurrentYear(t *testing.T) {
	payload := record("333", "Ashwagandha and stress", "Cureus", "<Month>Sep</Month>", author("Salve"), "<AbstractText>Stress fell.</AbstractText>", "")

	got := Parse(payload)
	if len(got) != 1 {
		t.Fatalf(parserExpectedCountFmt, 1, len(got))
	}

	if got[0].Year != time.Now().Year() {
		t.Errorf("expected current year %d, got %d", time.Now().Year(), got[0].Year)
	}
}

func TestParse_FieldDefaults(t *testing.T) {
	payload := `<PubmedArticle><MedlineCitation><PMID>444</PMID><Article><ArticleTitle>Bare record</ArticleTitle></Article></MedlineCitation></PubmedArticle>`

	got := parseAt(payload, time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC))
	if len(got) != 1 {
		t.Fatalf(parserExpectedCountFmt, 1, len(got))
	}

	c := got[0]

	if c.Journal != DefaultJournal {
		t.Errorf(parserFieldFmt, "journal", DefaultJournal, c.Journal)
	}

	if c.Authors != DefaultAuthors {
		t.Errorf(parserFieldFmt, "authors", DefaultAuthors, c.Authors)
	}

	if c.Abstract != "" {
		t.Errorf(parserFieldFmt, "abstract", "", c.Abstract)
	}

	if c.Year != 2030 {
		t.Errorf("expected year 2030, got %d", c.Year)
	}

	if c.StudyType != domain.StudyTypeObservational {
		t.Errorf("expected observational, got %q", c.StudyType)
	}
}

// A record missing a field must not shift metadata onto its neighbours.
func TestParse_NoCrossRecordMisattribution(t *testing.T) {
	payload := record("1", "First", "J1", "<Year>2020</Year>", "", "", "") +
		`<PubmedArticle><MedlineCitation><PMID>2</PMID></MedlineCitation></PubmedArticle>` +
		record("3", "Third", "J3", "<Year>2022</Year>", author("Ito"), "<AbstractText>Third abstract.</AbstractText>", "")

	got := Parse(payload)
	if len(got) != 2 {
		t.Fatalf(parserExpectedCountFmt, 2, len(got))
	}

	if got[0].PMID != "1" || got[0].Title != "First" || got[0].Authors != DefaultAuthors || got[0].Abstract != "" {
		t.Errorf("unexpected first citation: %+v", got[0])
	}

	if got[1].PMID != "3" || got[1].Title != "Third" || got[1].Journal != "J3" || got[1].Authors != "Ito" {
		t.Errorf("unexpected third citation: %+v", got[1])
	}
}

func TestParse_CollectiveAuthor(t *testing.T) {
	payload := record("5", "Consensus", "BMJ", "<Year>2018</Year>", "<Author><CollectiveName>Sleep Study Group</CollectiveName></Author>", "", "")

	got := Parse(payload)
	if len(got) != 1 {
		t.Fatalf(parserExpectedCountFmt, 1, len(got))
	}

	if got[0].Authors != "Sleep Study Group" {
		t.Errorf(parserFieldFmt, "authors", "Sleep Study Group", got[0].Authors)
	}
}

func TestParse_MalformedPayload(t *testing.T) {
	for _, payload := range []string{"", "not xml at all", "<PubmedArticleSet></PubmedArticleSet>", "<PubmedArticle><PMID>9"} {
		if got := Parse(payload); len(got) != 0 {
			t.Errorf("Parse(%q) = %d citations, want 0", payload, len(got))
		}
	}
}

func TestParse_DuplicateRecordsCollapsed(t *testing.T) {
	r := record("7", "Same", "J", "<Year>2020</Year>", "", "", "")

	if got := Parse(r + r); len(got) != 1 {
		t.Errorf(parserExpectedCountFmt, 1, len(got))
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  plain   text ", want: "plain text"},
		{in: "CO<sub>2</sub> levels", want: "CO2 levels"},
		{in: "A &lt; B &amp; C", want: "A < B & C"},
		{in: "line<br/>break", want: "line break"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyStudyType(t *testing.T) {
	tests := []struct {
		name     string
		types    []string
		text     string
		expected domain.StudyType
	}{
		{name: "publication type wins", types: []string{"Journal Article", "Systematic Review"}, text: "a randomized controlled trial", expected: domain.StudyTypeSystematicReview},
		{name: "rct keyword", text: "This randomized controlled trial enrolled 120 adults", expected: domain.StudyTypeRCT},
		{name: "rct abbreviation", text: "In this RCT participants", expected: domain.StudyTypeRCT},
		{name: "rct inside a word is ignored", text: "an arctic cohort", expected: domain.StudyTypeObservational},
		{name: "meta keyword", text: "A meta-analysis of 12 studies", expected: domain.StudyTypeMetaAnalysis},
		{name: "review keyword", text: "We performed a systematic review", expected: domain.StudyTypeSystematicReview},
		{name: "case report", types: []string{"Case Reports"}, expected: domain.StudyTypeCaseStudy},
		{name: "no signal", text: "cohort of nurses", expected: domain.StudyTypeObservational},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStudyType(tt.types, "", tt.text); got != tt.expected {
				t.Errorf("ClassifyStudyType() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildTerm(t *testing.T) {
	got := BuildTerm(" Magnesium  Glycinate ", "improve sleep", true)
	want := "Magnesium Glycinate improve sleep (randomized controlled trial OR systematic review OR meta-analysis)"

	if got != want {
		t.Errorf("BuildTerm() = %q, want %q", got, want)
	}

	if got := BuildTerm("Zinc", "", false); got != "Zinc" {
		t.Errorf("BuildTerm() = %q, want %q", got, "Zinc")
	}

	if strings.Contains(BuildTerm("Zinc", "immunity", false), "OR") {
		t.Error("expected no study type keywords")
	}
}
