package progress

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/core/llm"
)

const (
	testGoal       = "joint pain"
	testSupplement = "Glucosamine"
)

func TestQuestions(t *testing.T) {
	client := llm.NewMockClient().On(llm.TaskProgress,
		"```json\n"+`{"questions": ["How stiff were your knees this morning?", " ", "Any stomach upset today?", "q3", "q4", "q5", "q6"]}`+"\n```", nil)

	got, err := New(client, "", 0, nil).Questions(context.Background(), Request{HealthGoal: testGoal, SupplementName: testSupplement})
	require.NoError(t, err)

	assert.Len(t, got, MaxQuestions)
	assert.Equal(t, "How stiff were your knees this morning?", got[0])
	assert.Equal(t, "Any stomach upset today?", got[1])

	reqs := client.Requests(llm.TaskProgress)
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].System)
	assert.Contains(t, reqs[0].User, `"Glucosamine"`)
	assert.Contains(t, reqs[0].User, `"joint pain"`)
	assert.InDelta(t, 0.6, reqs[0].Temperature, 1e-6)
}

func TestQuestions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		content string
		err     error
		want    error
	}{
		{name: "missing goal", req: Request{SupplementName: testSupplement}, want: apperrors.ErrInvalidRequest},
		{name: "missing supplement", req: Request{HealthGoal: testGoal}, want: apperrors.ErrInvalidRequest},
		{name: "missing key", req: Request{HealthGoal: testGoal, SupplementName: testSupplement}, err: fmt.Errorf("%w: key", apperrors.ErrUpstreamConfiguration), want: apperrors.ErrUpstreamConfiguration},
		{name: "no questions array", req: Request{HealthGoal: testGoal, SupplementName: testSupplement}, content: `{"items": []}`, want: apperrors.ErrDraftGeneration},
		{name: "garbage", req: Request{HealthGoal: testGoal, SupplementName: testSupplement}, content: "sure!", want: apperrors.ErrDraftGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewMockClient().On(llm.TaskProgress, tt.content, tt.err)

			_, err := New(client, "", 0, nil).Questions(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
