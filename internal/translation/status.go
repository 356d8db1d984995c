package translation

import (
	"fmt"

	"github.com/PlumyCat/trad-bot-src/internal/state"
)

const (
	failedSummaryMessage  = "Translation failed. Check the document format and the target language."
	unknownFailureMessage = "Translation failed for an unknown reason."
)

// statusMapping translates the service's status vocabulary into the internal
// lifecycle. The table is total: every known external value maps to exactly
// one internal value, and anything else resolves to StatusUnknown.
var statusMapping = map[string]state.Status{
	"NotStarted": state.StatusPending,
	"Running":    state.StatusInProgress,
	"Cancelling": state.StatusInProgress,
	"Succeeded":  state.StatusSucceeded,
	"Failed":     state.StatusFailed,
	"Cancelled":  state.StatusFailed,
}

// ResolveStatus maps a raw status payload onto the internal lifecycle and
// fills in progress text and, for failures, an error message. The error is
// never empty when the resolved status is Failed.
func ResolveStatus(payload StatusPayload) StatusReport {
	resolved, known := statusMapping[payload.Status]
	if !known {
		resolved = state.StatusUnknown
	}

	report := StatusReport{
		Status:         resolved,
		OriginalStatus: payload.Status,
		Progress:       progressText(payload),
		CreatedAt:      payload.CreatedAt,
		LastUpdated:    payload.LastUpdated,
		Summary:        payload.Summary,
	}

	if resolved == state.StatusFailed {
		report.Error = errorText(payload)
	}

	return report
}

func progressText(payload StatusPayload) string {
	if payload.Summary != nil && payload.Summary.Total > 0 {
		completed := payload.Summary.Success + payload.Summary.Failed
		percentage := float64(completed) / float64(payload.Summary.Total) * 100
		return fmt.Sprintf("%d/%d (%.1f%%)", completed, payload.Summary.Total, percentage)
	}
	return payload.Status
}

func errorText(payload StatusPayload) string {
	if payload.Summary != nil && payload.Summary.Failed > 0 {
		return failedSummaryMessage
	}
	if payload.Error != nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return unknownFailureMessage
}
