package tools

import "context"

// MemoryReader retrieves the agent's memory blob from the backend store.
type MemoryReader interface {
	Memory(ctx context.Context) (string, error)
}

// NewQueryMemoryTool returns the query_memory action.
func NewQueryMemoryTool(m MemoryReader) *Tool {
	return &Tool{
		Name: "query_memory",
		Description: "Retrieve your long-term memory. Use this when the memory excerpt in your " +
			"context is not enough to decide what to do next.",
		Schema: objectSchema(map[string]any{}, nil),
		Handler: func(ctx context.Context, args map[string]any) Result {
			memory, err := m.Memory(ctx)
			if err != nil {
				return Errorf("failed to query memory: %v", err)
			}
			return Success(map[string]any{
				"memory": memory,
			})
		},
		Summary: func(args map[string]any, res Result) string {
			if res.IsError() {
				return "[TOOL] Tried to query memory, but failed"
			}
			return "[TOOL] Queried memory"
		},
	}
}
