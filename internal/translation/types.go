package translation

import "github.com/PlumyCat/trad-bot-src/internal/state"

// StatusPayload is the raw status document returned by the batch
// translation service for one operation.
type StatusPayload struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	CreatedAt   string        `json:"createdDateTimeUtc"`
	LastUpdated string        `json:"lastActionDateTimeUtc"`
	Summary     *Summary      `json:"summary,omitempty"`
	Error       *PayloadError `json:"error,omitempty"`
}

// Summary aggregates per-document counters for a batch operation.
type Summary struct {
	Total      int `json:"total"`
	Failed     int `json:"failed"`
	Success    int `json:"success"`
	InProgress int `json:"inProgress"`
}

// PayloadError is the error object the service attaches to failed
// operations.
type PayloadError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusReport is the resolved view of an operation: the external vocabulary
// mapped onto the internal lifecycle plus progress and error details.
type StatusReport struct {
	Status         state.Status `json:"status"`
	OriginalStatus string       `json:"original_status,omitempty"`
	Progress       string       `json:"progress,omitempty"`
	CreatedAt      string       `json:"created_at,omitempty"`
	LastUpdated    string       `json:"last_updated,omitempty"`
	Error          string       `json:"error,omitempty"`
	Summary        *Summary     `json:"summary,omitempty"`
}
