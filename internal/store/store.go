package store

import "context"

// Backend is a minimal key/value store used by the persistence gateway.
// Keys are opaque file-name-like strings derived from the user id.
type Backend interface {
	// Read returns the record stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores the record under key, replacing any previous value.
	Write(ctx context.Context, key string, data []byte) error

	// Close releases backend resources.
	Close() error
}

// Snapshot is the mutable per-user metadata record. Field order matches the
// on-disk layout, which is human-editable and must stay stable.
type Snapshot struct {
	UserID   string `yaml:"user_id"`
	Model    string `yaml:"model"`
	ChatMode string `yaml:"chat_mode"`

	Temperature      float64 `yaml:"temperature"`
	TopP             float64 `yaml:"top_p"`
	MaxTokens        int     `yaml:"max_tokens"`
	FrequencyPenalty float64 `yaml:"frequency_penalty"`
	PresencePenalty  float64 `yaml:"presence_penalty"`

	SystemMessages        []string `yaml:"system_messages"`
	ImportantMessages     []string `yaml:"important_messages"`
	RequestSummaryMessage string   `yaml:"request_summary_message"`
}

// TurnRecord is one user/assistant exchange in the transcript log.
type TurnRecord struct {
	User string `yaml:"user"`
	Bot  string `yaml:"bot"`
}

// transcript is the daily append log: one record per day per user.
type transcript struct {
	Dialog []TurnRecord `yaml:"dialog"`
}

func metadataKey(userID string) string {
	return userID + ".yml"
}

func transcriptKey(userID, day string) string {
	return userID + "__" + day + ".yml"
}
