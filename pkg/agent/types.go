package agent

import "context"

// Transcript entry roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Task is the GitHub issue handed to the agent. It is built once by the
// caller and never mutated.
type Task struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	RepoOwner   string   `json:"repo_owner"`
	RepoName    string   `json:"repo_name"`
	IssueNumber int      `json:"issue_number"`
	Labels      []string `json:"labels"`
	Creator     string   `json:"creator_name"`
	Status      string   `json:"status"`
	URL         string   `json:"url"`
}

// ToolCall is a provider-issued request to invoke a named tool. Arguments is
// the raw JSON string exactly as the provider produced it; parsing happens in
// the orchestrator so that malformed arguments poison only the one call.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one transcript entry. Exactly one shape is populated per role:
// system/user carry Content only, assistant carries Content and/or ToolCalls,
// tool carries Content plus the ToolCallID/ToolName it answers.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// RunStatus is the terminal status of a run
type RunStatus string

const (
	StatusCompleted       RunStatus = "completed"
	StatusEmptyResponse   RunStatus = "empty_response"
	StatusAPIError        RunStatus = "api_error"
	StatusUnexpectedError RunStatus = "unexpected_error"
	StatusMaxIterations   RunStatus = "max_iterations_reached"
)

// RunResult is the terminal value of a run. Response carries the final answer
// for StatusCompleted and the last transcript content for
// StatusMaxIterations; Detail carries the failure description for the error
// statuses.
type RunResult struct {
	Status     RunStatus `json:"status"`
	Response   string    `json:"response,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Iterations int       `json:"iterations"`
	Transcript []Message `json:"transcript"`
}

// ToolSchema is a tool advertisement passed to the provider: the tool name,
// a human-readable description and a JSON-Schema object for its parameters.
type ToolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// PublishFunc receives human-readable progress lines. Implementations must
// not block the loop; delivery is fire-and-forget.
type PublishFunc func(line string)

// ToolDispatcher resolves tool calls for the orchestrator. Dispatch never
// returns an error: every failure is encoded into the returned string as a
// JSON {"error": ...} payload.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]interface{}) string
	Schemas() []ToolSchema
}
