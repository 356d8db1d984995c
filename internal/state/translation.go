// Package state tracks in-flight translation jobs in process memory.
// The registry is bookkeeping only: the translation service remains the
// system of record for job progress, and nothing here survives a restart.
package state

import "time"

// Status is the internal job lifecycle.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusSucceeded  Status = "Succeeded"
	StatusFailed     Status = "Failed"
	// StatusUnknown marks an external status outside the known vocabulary.
	// It is diagnostic, treated like a failure by callers, and is never
	// promoted to Succeeded.
	StatusUnknown Status = "Unknown"
)

// Terminal reports whether no further transition is expected. The cancel
// path may still force-write StatusFailed over a terminal record.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Permission scopes a locator to reads or reads and writes.
type Permission string

const (
	PermissionRead      Permission = "read"
	PermissionReadWrite Permission = "read-write"
)

// Locator is a scoped, time-limited URL for one artifact.
type Locator struct {
	URL        string     `json:"url"`
	Permission Permission `json:"permission"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// LocatorPair names the input/output artifacts and carries their locators.
// The output name is derived deterministically from the input name and
// target language, never generated randomly.
type LocatorPair struct {
	InputName  string  `json:"input_name"`
	OutputName string  `json:"output_name"`
	Input      Locator `json:"input"`
	Output     Locator `json:"output"`
}

// Translation is one tracked job. The internal ID is assigned once at
// creation; the external handle is immutable once captured.
type Translation struct {
	ID          string      `json:"translation_id"`
	Handle      string      `json:"external_handle"`
	FileName    string      `json:"file_name"`
	TargetLang  string      `json:"target_language"`
	SourceLang  string      `json:"source_language,omitempty"`
	OwnerID     string      `json:"owner_id"`
	Locators    LocatorPair `json:"locators"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	ErrorDetail string      `json:"error,omitempty"`
}
