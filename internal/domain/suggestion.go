package domain

const (
	StatusAnswered = "answered"
	StatusAbsent   = "absent"
)

// SuggestionRecord is the persisted audit trail for a single suggestion request.
type SuggestionRecord struct {
	RequestID  string
	Prompt     string
	Suggestion string
	Provider   string
	Status     string
	Attempts   []ProviderAttempt
	CreatedAt  string
	TTL        int64
}

// ProviderAttempt is one provider call made while resolving a request.
type ProviderAttempt struct {
	Provider string
	OK       bool
	Error    string
}
