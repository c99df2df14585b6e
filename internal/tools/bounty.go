package tools

import (
	"context"
	"fmt"

	"github.com/vesperlabs/vesper/internal/store"
)

// BountyStore manages the agent's bounty records on the backend.
type BountyStore interface {
	CreateBounty(ctx context.Context, title, description, amount string) error
	DeleteBounty(ctx context.Context, id int64) (store.Bounty, error)
	Bounties(ctx context.Context) ([]store.Bounty, error)
}

// NewCreateBountyTool returns the create_bounty action.
func NewCreateBountyTool(s BountyStore) *Tool {
	return &Tool{
		Name: "create_bounty",
		Description: "Create a bounty offering a reward for a task performed by a human. " +
			"Bounties are verified and paid out by a human operator, then marked completed. " +
			"Be extremely clear about the task and the conditions for completion; once placed, " +
			"a bounty cannot be edited. Make sure your balance covers this and all existing bounties.",
		Schema: objectSchema(map[string]any{
			"title": prop("string", "A short title for the bounty"),
			"description": prop("string", "A thorough description of the bounty including the specific, "+
				"measurable conditions for completion"),
			"amount": prop("string", "The reward including the token symbol or mint address, "+
				"for example \"0.5 SOL\" or \"500 USDC\""),
		}, []string{"title", "description", "amount"}),
		Handler: func(ctx context.Context, args map[string]any) Result {
			title, ok := stringArg(args, "title")
			if !ok {
				return Errorf("title is required")
			}
			description, ok := stringArg(args, "description")
			if !ok {
				return Errorf("description is required")
			}
			amount, ok := stringArg(args, "amount")
			if !ok {
				return Errorf("amount is required")
			}
			if err := s.CreateBounty(ctx, title, description, amount); err != nil {
				return Errorf("failed to create bounty: %v", err)
			}
			return Success(nil)
		},
		Summary: func(args map[string]any, res Result) string {
			title, _ := stringArg(args, "title")
			amount, _ := stringArg(args, "amount")
			if res.IsError() {
				return fmt.Sprintf("[TOOL] Tried to create bounty, but failed. Proposed bounty: %s with bounty amount: %s", title, amount)
			}
			return fmt.Sprintf("[TOOL] Created bounty: %s with bounty amount: %s", title, amount)
		},
	}
}

// NewDeleteBountyTool returns the delete_bounty action.
func NewDeleteBountyTool(s BountyStore) *Tool {
	return &Tool{
		Name:        "delete_bounty",
		Description: "Delete an active bounty by id.",
		Schema: objectSchema(map[string]any{
			"id": prop("integer", "The id of the bounty to delete. Must be a bounty that is still active."),
		}, []string{"id"}),
		Handler: func(ctx context.Context, args map[string]any) Result {
			id, ok := intArg(args, "id")
			if !ok {
				return Errorf("id is required and must be an integer")
			}
			bounty, err := s.DeleteBounty(ctx, id)
			if err != nil {
				return Errorf("failed to delete bounty: %v", err)
			}
			return Success(map[string]any{
				"title": bounty.Title,
			})
		},
		Summary: func(args map[string]any, res Result) string {
			if res.IsError() {
				return "[TOOL] Tried to delete bounty, but failed"
			}
			title, _ := res["title"].(string)
			return fmt.Sprintf("[TOOL] Deleted bounty %s", title)
		},
	}
}

// NewListBountiesTool returns the list_bounties action. The engine sees a
// filtered projection of each record: title, description, amount, is_active.
func NewListBountiesTool(s BountyStore) *Tool {
	return &Tool{
		Name: "list_bounties",
		Description: "Retrieve all bounties, active and completed. " +
			"Use this to make sure you are not duplicating bounties.",
		Schema: objectSchema(map[string]any{}, nil),
		Handler: func(ctx context.Context, args map[string]any) Result {
			bounties, err := s.Bounties(ctx)
			if err != nil {
				return Errorf("failed to retrieve bounties: %v", err)
			}
			projection := make([]map[string]any, 0, len(bounties))
			for _, b := range bounties {
				projection = append(projection, map[string]any{
					"title":       b.Title,
					"description": b.Description,
					"amount":      b.Amount,
					"is_active":   b.Active(),
				})
			}
			return Success(map[string]any{
				"bounties": projection,
			})
		},
		Summary: func(args map[string]any, res Result) string {
			if res.IsError() {
				return "[TOOL] Tried to retrieve bounties, but failed"
			}
			return "[TOOL] Retrieved bounties"
		},
	}
}

// intArg extracts an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
