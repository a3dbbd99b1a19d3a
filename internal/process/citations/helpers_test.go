package citations

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

func abstractFor(i int) string {
	return fmt.Sprintf("Background sentence %d about sleep. Magnesium glycinate supplementation improved sleep quality in trial %d over eight weeks, with participants reporting shorter sleep latency and fewer night awakenings compared with placebo.", i, i)
}

func testCandidates(n int) []domain.CandidateCitation {
	out := make([]domain.CandidateCitation, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.CandidateCitation{
			PMID:      fmt.Sprintf("%d", 1000+i),
			Title:     fmt.Sprintf("Study %d", i),
			Journal:   "Nutrients",
			Year:      2015 + i,
			Authors:   "Smith et al.",
			Abstract:  abstractFor(i),
			StudyType: domain.StudyTypeRCT,
		})
	}

	return out
}

func payloadFor(ids []string) string {
	var sb strings.Builder

	sb.WriteString("<PubmedArticleSet>")

	for _, id := range ids {
		fmt.Fprintf(&sb, "<PubmedArticle><MedlineCitation><PMID Version=\"1\">%s</PMID><Article><Journal><Title>Nutrients</Title></Journal>"+
			"<ArticleTitle>Study %s</ArticleTitle><Abstract><AbstractText>Magnesium helped record %s.</AbstractText></Abstract>"+
			"<AuthorList><Author><LastName>Lee</LastName></Author></AuthorList></Article></MedlineCitation></PubmedArticle>", id, id, id)
	}

	sb.WriteString("</PubmedArticleSet>")

	return sb.String()
}

type stubSearcher struct {
	mu       sync.Mutex
	results  map[string][]string // keyed by whether the term carries study keywords
	err      error
	fetchErr error
	payload  func(ids []string) string
	terms    []string
	fetches  int
}

func (s *stubSearcher) Search(_ context.Context, term string, _ int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.terms = append(s.terms, term)

	if s.err != nil {
		return nil, s.err
	}

	if strings.Contains(term, " OR ") {
		return s.results["stage1"], nil
	}

	return s.results["stage2"], nil
}

func (s *stubSearcher) Fetch(_ context.Context, ids []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetches++

	if s.fetchErr != nil {
		return "", s.fetchErr
	}

	if s.payload != nil {
		return s.payload(ids), nil
	}

	return payloadFor(ids), nil
}

type stubFilterer struct {
	selected []domain.SelectedCitation
	err      error
	calls    int
	got      []domain.CandidateCitation
}

func (f *stubFilterer) Filter(_ context.Context, candidates []domain.CandidateCitation, _, _ string) ([]domain.SelectedCitation, error) {
	f.calls++
	f.got = candidates

	if f.err != nil {
		return nil, f.err
	}

	if f.selected != nil {
		return f.selected, nil
	}

	return Fallback(candidates), nil
}
