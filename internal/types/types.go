// Package types holds the shared domain types for the BrandOS core:
// conversation turns, citations, tenant profiles, and the tool-call
// shapes the orchestration layer is written against.
package types

// Role identifies the author of a conversation turn.
// The values match the Gemini wire roles so histories can be threaded
// into requests without translation.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Citation is a web source reference attached to a grounded answer.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ConversationTurn is a single entry in a tenant's chat history.
type ConversationTurn struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
}

// Offering describes one product or service from the onboarding profile.
type Offering struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"` // "Product" or "Service"
	Description    string   `json:"description"`
	Audience       string   `json:"audience,omitempty"`
	Features       []string `json:"features,omitempty"`
	Differentiator string   `json:"differentiator,omitempty"`
}

// Profile is the tenant's onboarding profile. Any field may be empty;
// the knowledge context builder emits only populated fields.
type Profile struct {
	CompanyName string     `json:"companyName"`
	Industry    string     `json:"industry"`
	BrandVoice  string     `json:"brandVoice,omitempty"`
	Mission     string     `json:"mission,omitempty"`
	Tagline     string     `json:"tagline,omitempty"`
	ValueProps  []string   `json:"valueProps,omitempty"`
	Offerings   []Offering `json:"offerings,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
}

// ToolDefinition describes a callable tool declared to the model.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// ToolResult carries the caller-computed result for a requested tool call.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error"`
}

// LLMToolResponse is the model's reply to a tool-bearing request: free
// text, zero or more tool calls, and any grounding citations.
type LLMToolResponse struct {
	Text       string
	ToolCalls  []ToolCall
	Citations  []Citation
	StopReason string
}
