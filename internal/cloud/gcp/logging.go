// Package gcp provides the structured cycle logger and Secret Manager access.
// Both are optional: the agent runs with local logs and environment-variable
// secrets when GCP is unavailable.
package gcp

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Severity levels for structured logs, matching Cloud Logging severities.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Entry is one structured log record. On GCP hosts the logging agent picks
// structured JSON off stderr and forwards it to Cloud Logging with proper
// severity and labels.
type Entry struct {
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Wallet    string            `json:"wallet"`
	CycleID   string            `json:"cycle_id,omitempty"`
	Cycle     int               `json:"cycle"`
	Labels    map[string]string `json:"labels,omitempty"`
	Fields    map[string]any    `json:"fields,omitempty"`
}

// CycleLogger writes structured per-cycle records. A nil *CycleLogger is
// valid and discards everything, so call sites never need nil checks.
type CycleLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	wallet  string
	cycleID string
	cycle   int
	labels  map[string]string
}

// CycleLoggerOption configures a CycleLogger.
type CycleLoggerOption func(*CycleLogger)

// WithWriter sets a custom writer for log output.
func WithWriter(w io.Writer) CycleLoggerOption {
	return func(cl *CycleLogger) {
		cl.writer = w
	}
}

// WithLabels adds custom labels to all entries.
func WithLabels(labels map[string]string) CycleLoggerOption {
	return func(cl *CycleLogger) {
		for k, v := range labels {
			cl.labels[k] = v
		}
	}
}

// NewCycleLogger creates a structured logger labeled with the agent's wallet
// address.
func NewCycleLogger(wallet string, opts ...CycleLoggerOption) *CycleLogger {
	cl := &CycleLogger{
		writer: os.Stderr,
		wallet: wallet,
		labels: map[string]string{
			"component": "vesperd",
			"wallet":    wallet,
		},
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// StartCycle stamps subsequent entries with the given cycle id and number.
func (cl *CycleLogger) StartCycle(id string, n int) {
	if cl == nil {
		return
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.cycleID = id
	cl.cycle = n
}

// Log writes one structured entry.
func (cl *CycleLogger) Log(severity Severity, message string, fields map[string]any) {
	if cl == nil {
		return
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()

	entry := Entry{
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Wallet:    cl.wallet,
		CycleID:   cl.cycleID,
		Cycle:     cl.cycle,
		Labels:    cl.labels,
		Fields:    fields,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(cl.writer, `{"severity":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	fmt.Fprintf(cl.writer, "%s\n", data)
}

// Info writes an INFO entry.
func (cl *CycleLogger) Info(message string, fields map[string]any) {
	cl.Log(SeverityInfo, message, fields)
}

// Warning writes a WARNING entry.
func (cl *CycleLogger) Warning(message string, fields map[string]any) {
	cl.Log(SeverityWarning, message, fields)
}

// Error writes an ERROR entry.
func (cl *CycleLogger) Error(message string, fields map[string]any) {
	cl.Log(SeverityError, message, fields)
}
