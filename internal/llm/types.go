package llm

// Chat roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model overrides the client's default model when set.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature controls the randomness of the output.
	Temperature float32
}

// DefaultChatParams returns the low-temperature settings used for grounded answers.
func DefaultChatParams() ChatParams {
	return ChatParams{
		MaxTokens:   1000,
		Temperature: 0.1,
	}
}
