package citations

import (
	"fmt"
	"strings"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

const relevanceSystemPrompt = `You are a clinical research librarian selecting evidence for a dietary supplement recommendation.
You receive a numbered list of PubMed records. Select exactly 3 records, ranked by:
1. Direct relevance to the specific ingredient and health goal pairing.
2. Clarity of the abstract's findings.
3. Recency, preferring the last 15 years (a preference, not a hard filter).
Observational studies, reviews and case studies are eligible when they are relevant.

For each selection return:
- pmid: copied exactly from the record
- summary: one or two plain-language sentences restating the key finding, using only facts stated in the abstract
- highlightSentence: one sentence quoted verbatim, character for character, from that record's abstract that names the ingredient. Do not quote sentences that only describe background or methods. Use an empty string if no such sentence exists.
- studyType: one of rct, meta-analysis, systematic-review, observational, case-study

Never invent titles, authors, journals, years or identifiers.
Return ONLY JSON of the form {"papers":[{"pmid":"...","summary":"...","highlightSentence":"...","studyType":"..."}]} with no markdown.`

const relevanceUserFormat = "Ingredient: %s\nHealth goal: %s\n\nRecords:\n%s"

func buildRelevancePrompt(candidates []domain.CandidateCitation, ingredient, goal string, maxAbstract int) string {
	var sb strings.Builder

	for i, c := range candidates {
		fmt.Fprintf(&sb, "[%d] PMID: %s\nTitle: %s\nJournal: %s (%d)\nAbstract: %s\n\n",
			i+1, c.PMID, c.Title, c.Journal, c.Year, truncateRunes(c.Abstract, maxAbstract))
	}

	if goal == "" {
		goal = "general health"
	}

	return fmt.Sprintf(relevanceUserFormat, ingredient, goal, strings.TrimSpace(sb.String()))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
