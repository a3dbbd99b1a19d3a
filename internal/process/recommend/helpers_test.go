package recommend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	testQuery = "improve sleep"

	draftsJSON = "```json\n" + `[
  {
    "name": "Calm Night Magnesium",
    "description": "Chelated magnesium for restful sleep",
    "socialSentiment": 88,
    "evidenceLevel": "A",
    "keyBenefits": ["Falls asleep 17 minutes faster"],
    "warnings": ["May cause loose stools"],
    "ingredients": [{"name": "Magnesium Glycinate", "dosage": "400mg"}, "Vitamin B6"],
    "price": "$24.99",
    "scientificPapers": [{"title": "Magnesium and sleep", "authors": "Abbasi et al.", "journal": "J Res Med Sci", "year": 2012, "summary": "Improved sleep.", "studyType": "observational"}]
  },
  {
    "name": "Theanine Focus",
    "description": "Amino acid for relaxation",
    "socialSentiment": "82%",
    "evidenceLevel": "B",
    "keyBenefits": ["Calmer evenings"],
    "warnings": ["Avoid with sedatives"],
    "ingredients": ["L-Theanine 200mg"],
    "price": "$19.99",
    "scientificPapers": [{"title": "Theanine review", "authors": "Hidese", "journal": "Nutrients", "year": "2019", "summary": "Less stress.", "studyType": "RCT"}]
  },
  {
    "name": "Melatonin Low Dose",
    "description": "Chronobiotic support",
    "socialSentiment": 120,
    "evidenceLevel": "Z",
    "keyBenefits": ["Shifts sleep onset"],
    "warnings": ["Morning grogginess"],
    "ingredients": [{"name": "Melatonin", "dosage": "0.5mg"}],
    "scientificPapers": []
  }
]` + "\n```"

	magnesium = "Magnesium Glycinate"
	theanine  = "L-Theanine 200mg"
	melatonin = "Melatonin"
)

func longAbstract(id string) string {
	return fmt.Sprintf("Record %s enrolled adults with insomnia. Supplementation improved the Pittsburgh Sleep Quality Index relative to placebo over eight weeks, "+
		"and participants reported fewer awakenings and better daytime function at follow up.", id)
}

func articleXML(ids []string) string {
	var sb strings.Builder

	sb.WriteString("<PubmedArticleSet>")

	for _, id := range ids {
		fmt.Fprintf(&sb, "<PubmedArticle><MedlineCitation><PMID Version=\"1\">%s</PMID><Article>"+
			"<Journal><JournalIssue><PubDate><Year>2020</Year></PubDate></JournalIssue><Title>Sleep Medicine</Title></Journal>"+
			"<ArticleTitle>Trial %s</ArticleTitle><Abstract><AbstractText>%s</AbstractText></Abstract>"+
			"<AuthorList><Author><LastName>Kim</LastName></Author><Author><LastName>Park</LastName></Author></AuthorList>"+
			"<PublicationTypeList><PublicationType>Randomized Controlled Trial</PublicationType></PublicationTypeList>"+
			"</Article></MedlineCitation></PubmedArticle>", id, id, longAbstract(id))
	}

	sb.WriteString("</PubmedArticleSet>")

	return sb.String()
}

func idRange(from, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("%d", from+i))
	}

	return out
}

type searchCall struct {
	term  string
	start time.Time
}

// fakeIndex returns ids for terms that mention a configured ingredient.
type fakeIndex struct {
	mu    sync.Mutex
	ids   map[string][]string
	all   []string // returned for every term when set
	err   error
	calls []searchCall
}

func (f *fakeIndex) Search(_ context.Context, term string, _ int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, searchCall{term: term, start: time.Now()})

	if f.err != nil {
		return nil, f.err
	}

	if f.all != nil {
		return f.all, nil
	}

	for ingredient, ids := range f.ids {
		if strings.Contains(term, ingredient) {
			return ids, nil
		}
	}

	return nil, nil
}

func (f *fakeIndex) Fetch(_ context.Context, ids []string) (string, error) {
	return articleXML(ids), nil
}

func (f *fakeIndex) searchCalls() []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]searchCall(nil), f.calls...)
}
