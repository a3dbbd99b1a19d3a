package llm

import "context"

// Task names a kind of generation, used for metrics and logging.
type Task string

// Generation tasks.
const (
	TaskDrafts    Task = "drafts"
	TaskRelevance Task = "relevance"
	TaskCoaching  Task = "coaching"
	TaskProgress  Task = "progress"
)

// Request is one chat completion with a system and a user instruction.
type Request struct {
	Task        Task
	System      string
	User        string
	Model       string  // empty selects the configured model
	Temperature float32 // zero selects the configured temperature
}

// Client produces free text for a chat request. Implementations return
// errors wrapping apperrors.ErrUpstreamConfiguration when credentials are
// absent.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
