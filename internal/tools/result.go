// Package tools defines the actions the reasoning engine may dispatch and the
// uniform result contract they all share. Every action is registered in a
// Registry and executed through Dispatch, which converts panics to error
// results and mirrors each invocation to the external action log.
package tools

import (
	"encoding/json"
	"fmt"
)

// Result statuses. Status is always present; an error result always carries a
// non-empty message.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the uniform shape every action returns: a status, an optional
// message, and any action-specific fields. It is serialized to JSON before
// being handed back to the reasoning engine as tool output.
type Result map[string]any

// Success returns a success result carrying the given extra fields.
func Success(fields map[string]any) Result {
	r := Result{"status": StatusSuccess}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

// Errorf returns an error result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{
		"status":  StatusError,
		"message": fmt.Sprintf(format, args...),
	}
}

// Status returns the result status, or empty string if absent.
func (r Result) Status() string {
	s, _ := r["status"].(string)
	return s
}

// Message returns the result message, or empty string if absent.
func (r Result) Message() string {
	m, _ := r["message"].(string)
	return m
}

// IsError reports whether the result carries an error status.
func (r Result) IsError() bool {
	return r.Status() == StatusError
}

// JSON renders the result for the reasoning engine. A marshal failure is
// itself reported as an error result so the engine always receives valid
// JSON.
func (r Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"status":%q,"message":"failed to encode tool result: %v"}`, StatusError, err)
	}
	return string(data)
}
