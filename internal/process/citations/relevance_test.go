package citations

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/core/llm"
)

const (
	testIngredient = "Magnesium Glycinate"
	testGoal       = "improve sleep"
)

func picksJSON(t *testing.T, picks ...relevancePick) string {
	t.Helper()

	body, err := json.Marshal(map[string]any{"papers": picks})
	require.NoError(t, err)

	return string(body)
}

func quoteOf(c domain.CandidateCitation) string {
	start := strings.Index(c.Abstract, "Magnesium")
	end := strings.Index(c.Abstract, "weeks,") + len("weeks")

	return c.Abstract[start:end]
}

func TestRelevanceFilter_ValidSelection(t *testing.T) {
	pool := testCandidates(5)
	mock := llm.NewMockClient().On(llm.TaskRelevance, "```json\n"+picksJSON(t,
		relevancePick{PMID: pool[3].PMID, Summary: "Improved sleep.", HighlightSentence: quoteOf(pool[3]), StudyType: "rct"},
		relevancePick{PMID: pool[0].PMID, Summary: "Shorter latency.", HighlightSentence: quoteOf(pool[0])},
		relevancePick{PMID: pool[2].PMID, Summary: "Fewer awakenings."},
	)+"\n```", nil)

	got, err := NewRelevanceFilter(mock, 0, nil).Filter(context.Background(), pool, testIngredient, testGoal)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{pool[3].PMID, pool[0].PMID, pool[2].PMID}, domain.PMIDs(got))
	assert.Equal(t, "Improved sleep.", got[0].Summary)
	assert.Equal(t, quoteOf(pool[3]), got[0].HighlightSentence)
	assert.Empty(t, got[2].HighlightSentence)

	for i, c := range got {
		assert.True(t, c.Verified, "citation %d", i)
	}

	reqs := mock.Requests(llm.TaskRelevance)
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].User, "Ingredient: "+testIngredient)
	assert.Contains(t, reqs[0].User, "Health goal: "+testGoal)
	assert.Contains(t, reqs[0].User, "PMID: "+pool[4].PMID)
}

func TestRelevanceFilter_MetadataCopiedFromPool(t *testing.T) {
	pool := testCandidates(3)

	raw := `[{"pmid":"` + pool[1].PMID + `","summary":"s","title":"Invented Title","journal":"Fake Journal","year":1901}]`
	mock := llm.NewMockClient().On(llm.TaskRelevance, raw, nil)

	got, err := NewRelevanceFilter(mock, 0, nil).Filter(context.Background(), pool, testIngredient, testGoal)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Equal(t, pool[1].Title, got[0].Title)
	assert.Equal(t, pool[1].Journal, got[0].Journal)
	assert.Equal(t, pool[1].Year, got[0].Year)
	assert.Equal(t, pool[1].Authors, got[0].Authors)
}

// Every highlight that survives verification is a verbatim abstract substring.
func TestRelevanceFilter_QuoteFidelity(t *testing.T) {
	pool := testCandidates(4)
	byID := make(map[string]domain.CandidateCitation, len(pool))

	for _, c := range pool {
		byID[c.PMID] = c
	}

	mock := llm.NewMockClient().On(llm.TaskRelevance, picksJSON(t,
		relevancePick{PMID: pool[0].PMID, HighlightSentence: quoteOf(pool[0])},
		relevancePick{PMID: pool[1].PMID, HighlightSentence: "Magnesium cured insomnia in everyone."},
		relevancePick{PMID: pool[2].PMID, HighlightSentence: strings.ToUpper(quoteOf(pool[2]))},
	), nil)

	got, err := NewRelevanceFilter(mock, 0, nil).Filter(context.Background(), pool, testIngredient, testGoal)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for _, c := range got {
		if c.HighlightSentence == "" {
			continue
		}

		assert.Contains(t, byID[c.PMID].Abstract, c.HighlightSentence)
	}

	assert.NotEmpty(t, got[0].HighlightSentence)
	assert.Empty(t, got[1].HighlightSentence)
	assert.Empty(t, got[2].HighlightSentence)
}

func TestRelevanceFilter_HighlightMustNameIngredient(t *testing.T) {
	pool := testCandidates(2)
	mock := llm.NewMockClient().On(llm.TaskRelevance, picksJSON(t,
		relevancePick{PMID: pool[0].PMID, HighlightSentence: "Background sentence 1 about sleep."},
		relevancePick{PMID: pool[1].PMID, HighlightSentence: quoteOf(pool[1])},
	), nil)

	got, err := NewRelevanceFilter(mock, 0, nil).Filter(context.Background(), pool, testIngredient, testGoal)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Empty(t, got[0].HighlightSentence)
	assert.Equal(t, quoteOf(pool[1]), got[1].HighlightSentence)
}

func TestIngredientBaseName(t *testing.T) {
	tests := []struct {
		ingredient string
		want       string
	}{
		{"Magnesium Glycinate", "magnesium"},
		{"L-Theanine 200mg", "theanine"},
		{"Vitamin D3 (cholecalciferol)", "vitamin d"},
		{"  Ashwagandha,  KSM-66 ", "ashwagandha"},
		{"Vitamin", "vitamin"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ingredient, func(t *testing.T) {
			assert.Equal(t, tt.want, ingredientBaseName(tt.ingredient))
		})
	}
}

func TestRelevanceFilter_DropsForeignAndDuplicateIDs(t *testing.T) {
	pool := testCandidates(4)
	mock := llm.NewMockClient().On(llm.TaskRelevance, picksJSON(t,
		relevancePick{PMID: "99999999"},
		relevancePick{PMID: pool[2].PMID},
		relevancePick{PMID: pool[2].PMID},
	), nil)

	got, err := NewRelevanceFilter(mock, 0, nil).Filter(context.Background(), pool, testIngredient, testGoal)
	require.NoError(t, err)

	// One verified pick, topped up from the pool in input order.
	assert.Equal(t, []string{pool[2].PMID, pool[0].PMID, pool[1].PMID}, domain.PMIDs(got))
	assert.Equal(t, truncateRunes(pool[0].Abstract, FallbackSummaryRunes), got[1].Summary)
}

func TestRelevanceFilter_Failures(t *testing.T) {
	pool := testCandidates(3)

	tests := []struct {
		name    string
		content string
		err     error
	}{
		{name: "gateway error", err: errors.New("502 bad gateway")},
		{name: "unparseable output", content: "I could not decide."},
		{name: "only foreign ids", content: `{"papers":[{"pmid":"1"},{"pmid":"2"}]}`},
		{name: "empty selection", content: `{"papers":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockClient().On(llm.TaskRelevance, tt.content, tt.err)

			_, err := NewRelevanceFilter(mock, 0, nil).Filter(context.Background(), pool, testIngredient, testGoal)
			assert.True(t, errors.Is(err, apperrors.ErrFilterFailure), "got %v", err)
		})
	}
}

func TestRelevanceFilter_EmptyPool(t *testing.T) {
	mock := llm.NewMockClient()

	got, err := NewRelevanceFilter(mock, 0, nil).Filter(context.Background(), nil, testIngredient, testGoal)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, mock.Requests(llm.TaskRelevance))
}

func TestBuildRelevancePrompt_TruncatesAbstracts(t *testing.T) {
	pool := testCandidates(1)
	pool[0].Abstract = strings.Repeat("a", 50)

	prompt := buildRelevancePrompt(pool, testIngredient, "", 10)

	assert.Contains(t, prompt, "Abstract: "+strings.Repeat("a", 10)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("a", 11))
	assert.Contains(t, prompt, "Health goal: general health")
}
