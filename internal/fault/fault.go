// Package fault defines the error taxonomy shared by the workflow core and
// its thin adapters. Validation and not-found errors are terminal for the
// caller; upstream errors carry the external status verbatim for diagnosis
// and are never retried by the core.
package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports bad or missing input. The caller must correct and
// resubmit; nothing was attempted against any external system.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validation builds a single-field validation error.
func Validation(field, problem string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: problem}}
}

// NotFoundError reports an absent job or artifact.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	if e == nil || e.Resource == "" {
		return "not found"
	}
	return e.Resource + " not found"
}

func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// UpstreamError reports a non-success answer or transport failure from an
// external system. Status is the upstream HTTP status, zero when the call
// never completed.
type UpstreamError struct {
	System string
	Status int
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "upstream error"
	}
	msg := fmt.Sprintf("%s upstream error", e.System)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InternalError reports an unexpected local fault. The full detail is for
// logs; adapters surface only a generic message.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	if e == nil {
		return "internal error"
	}
	if e.Err == nil {
		return "internal error: " + e.Op
	}
	return fmt.Sprintf("internal error: %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}
