package tools

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

// ActionLogger mirrors tool outcomes to the external action log. Implemented
// by the backend store client.
type ActionLogger interface {
	PostAction(ctx context.Context, text string, highlighted bool) error
}

// Handler executes one tool call using parsed arguments. Handlers validate
// their own input and report violations as error results, never as panics or
// Go errors.
type Handler func(ctx context.Context, args map[string]any) Result

// Tool declares one dispatchable action: its name, the description and JSON
// schema shown to the reasoning engine, the handler, and an optional summary
// renderer for the action-log line.
type Tool struct {
	Name        string
	Description string
	// Schema is the JSON-schema object describing the handler's arguments.
	Schema map[string]any
	Handler Handler
	// Summary renders the single action-log line recorded for a dispatch.
	// When nil a generic "<name>: <status>" line is used.
	Summary func(args map[string]any, res Result) string
}

// Registry stores tools by name and executes dispatches. Dispatch guarantees
// exactly one action-log append per invocation, success or failure, so an
// action implementer can never forget to log.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	tools     map[string]*Tool
	actionLog ActionLogger
	logger    *log.Logger
}

// NewRegistry creates an empty registry. The action logger may be nil, in
// which case outcomes are only logged locally.
func NewRegistry(actionLog ActionLogger) *Registry {
	return &Registry{
		tools:     make(map[string]*Tool),
		actionLog: actionLog,
		logger:    log.Default(),
	}
}

// Register adds a tool to the registry. Registration order is preserved for
// the definitions handed to the reasoning engine.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has nil handler", t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Dispatch executes the named tool and returns its result. An unknown tool, a
// panicking handler, or any other local failure is converted to an error
// result; dispatch never propagates a failure that would abort the reasoning
// engine's turn.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) Result {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	var res Result
	if !ok {
		res = Errorf("unknown tool %q", name)
	} else {
		res = r.invoke(ctx, t, args)
	}

	r.mirror(ctx, t, name, args, res)
	return res
}

// invoke runs the handler with a panic guard.
func (r *Registry) invoke(ctx context.Context, t *Tool, args map[string]any) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("[tools] panic in %s: %v", t.Name, rec)
			res = Errorf("tool %s failed: %v", t.Name, rec)
		}
	}()
	return t.Handler(ctx, args)
}

// mirror appends the single action-log line for this dispatch. Append
// failures are logged locally and swallowed; the tool result stands on its
// own.
func (r *Registry) mirror(ctx context.Context, t *Tool, name string, args map[string]any, res Result) {
	line := fmt.Sprintf("[TOOL] %s: %s", name, res.Status())
	if t != nil && t.Summary != nil {
		line = t.Summary(args, res)
	}
	r.logger.Printf("[tools] %s", line)
	if r.actionLog == nil {
		return
	}
	if err := r.actionLog.PostAction(ctx, line, false); err != nil {
		r.logger.Printf("[tools] failed to record action log entry: %v", err)
	}
}

// stringArg extracts a string argument, reporting whether it was present and
// non-empty after trimming.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
