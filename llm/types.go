package llm

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user turn.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// CompletionRequest is a provider-neutral chat completion request.
type CompletionRequest struct {
	Model    string
	Messages []Message
	// SystemPrompt is sent as a leading system message when set.
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	// Extra carries provider-specific top-level fields, merged into the body
	// as-is.
	Extra map[string]any
}

// CompletionResponse is the normalized reply.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
