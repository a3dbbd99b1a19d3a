package recommend

import (
	"fmt"
	"strings"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

const draftSystemPrompt = `You are a supplement recommendation AI that analyzes health goals and recommends evidence-based supplements.

For each health goal, provide exactly 3 supplement recommendations in JSON format. The three recommendations must not share a primary active ingredient. Each recommendation should include:
- name: Product name
- description: Brief product description (max 100 chars)
- socialSentiment: Score from 60-95 representing user satisfaction percentage
- evidenceLevel: "A" (strong clinical evidence), "B" (moderate evidence), "C" (limited evidence), or "D" (insufficient)
- keyBenefits: Array of 3-4 specific benefits with percentages/timeframes
- warnings: Array of 2-3 important safety warnings or contraindications
- ingredients: Array of 3-5 key active ingredients as {"name", "dosage"}; list the primary active ingredient first
- price: Price range like "$24.99" or "$28-32"
- personalizedReason: One sentence on why this suits the user, when a profile is given
- recommendedDose: Daily dose and timing
- scientificPapers: Array of up to 3 studies as {"title", "authors", "journal", "year", "summary", "studyType"}

Return ONLY valid JSON array with no markdown formatting or explanation.`

// buildDraftPrompt renders the user instruction for draft generation.
func buildDraftPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate 3 supplement recommendations for this health goal: %q\n\n", req.Query)
	sb.WriteString("Focus on supplements that have real scientific backing and user reviews. ")
	sb.WriteString("Be specific with dosages, timeframes, and warnings. ")
	sb.WriteString("Make sure the recommendations are relevant to the specific health goal.\n")

	if req.Profile != nil && !req.Profile.Empty() {
		sb.WriteString("\nUser profile:\n")
		sb.WriteString(req.Profile.Describe())
		sb.WriteString("Respect dietary restrictions and allergies, and avoid ingredients that conflict with them.\n")
	}

	if answers := domain.DescribeAnswers(req.Answers); answers != "" {
		sb.WriteString("\nQuestionnaire answers:\n")
		sb.WriteString(answers)
	}

	return sb.String()
}
