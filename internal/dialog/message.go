package dialog

// Roles of completion API messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in a completion request.
type Message struct {
	Role    string
	Content string
}

// Turn is one completed user/assistant exchange. Turns are owned by the
// caller and read-only here; Tokens must reflect the tokenizer at the time
// the turn was produced. A turn is an atomic unit: it is included in an
// assembled context whole or not at all.
type Turn struct {
	User   string
	Bot    string
	Tokens int
}

// SamplingOptions is the sampling-parameter record handed to the completion
// API together with the assembled messages.
type SamplingOptions struct {
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
}

func defaultSampling() SamplingOptions {
	return SamplingOptions{
		Temperature: 0.7,
		TopP:        1,
		MaxTokens:   1000,
	}
}
