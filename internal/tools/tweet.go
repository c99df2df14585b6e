package tools

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/vesperlabs/vesper/internal/social"
)

// Publisher posts to the agent's public social account.
type Publisher interface {
	PostTweet(ctx context.Context, text string) (social.Post, error)
}

// NewPostTweetTool returns the post_tweet action. The platform length limit
// is enforced here so the engine gets a structured error instead of a failed
// network call.
func NewPostTweetTool(p Publisher) *Tool {
	return &Tool{
		Name:        "post_tweet",
		Description: "Post a tweet on Twitter/X from your public account.",
		Schema: objectSchema(map[string]any{
			"text": prop("string", fmt.Sprintf("The text content of the tweet (max %d characters)", social.MaxPostLength)),
		}, []string{"text"}),
		Handler: func(ctx context.Context, args map[string]any) Result {
			text, ok := stringArg(args, "text")
			if !ok {
				return Errorf("text is required")
			}
			if n := utf8.RuneCountInString(text); n > social.MaxPostLength {
				return Errorf("tweet text is %d characters, limit is %d", n, social.MaxPostLength)
			}
			post, err := p.PostTweet(ctx, text)
			if err != nil {
				return Errorf("failed to post tweet: %v", err)
			}
			return Success(map[string]any{
				"tweet_id": post.ID,
				"text":     post.Text,
				"url":      post.URL,
			})
		},
		Summary: func(args map[string]any, res Result) string {
			if res.IsError() {
				return "[TOOL] Tried to post tweet, but failed"
			}
			url, _ := res["url"].(string)
			return "[TOOL] Posted tweet: " + url
		},
	}
}
