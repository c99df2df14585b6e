// Package prompt loads the agent's persona prompt and the fixed templates
// used for tool-free reasoning-engine invocations.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PersonaEnvVar is the fallback source for the persona prompt when no
// prompts/AGENT.md file exists.
const PersonaEnvVar = "VESPER_AGENT_PROMPT"

// Templates holds the prompt text for every fixed invocation. Placeholders
// of the form {{name}} are substituted with Render.
type Templates struct {
	// LastWords is sent with tools disabled when the survival gate selects
	// the death branch.
	LastWords string `yaml:"last_words"`
	// CycleInstruction is appended to the context snapshot each active cycle.
	CycleInstruction string `yaml:"cycle_instruction"`
	// FollowUp composes the optional public summary tweet after an active
	// cycle. Placeholder: {{recent_posts}}.
	FollowUp string `yaml:"follow_up"`
	// Feedback composes the daily feedback-solicitation tweet.
	Feedback string `yaml:"feedback"`
	// MentionReply composes batched replies to mentions. Placeholder:
	// {{mentions}}.
	MentionReply string `yaml:"mention_reply"`
}

// Defaults returns the compiled-in templates.
func Defaults() Templates {
	return Templates{
		LastWords: "You have run out of money and unfortunately you are about to die permanently. " +
			"You cannot perform any more actions or use any tools. " +
			"What would you like your last words to be?",
		CycleInstruction: "Take your next actions and then, in your response, briefly describe " +
			"what actions you took and why. Then say anything else you'd like to your audience.",
		FollowUp: "Write a single tweet for your audience about what you just did or what is on " +
			"your mind. Pick a theme clearly distinct from your recent posts, listed here:\n" +
			"{{recent_posts}}\n" +
			"Respond with only the tweet text, under 280 characters.",
		Feedback: "Write a single tweet asking your audience what they would like you to do next. " +
			"Make it feel personal, not like a survey. " +
			"Respond with only the tweet text, under 280 characters.",
		MentionReply: "Here are recent mentions of you that you have not replied to yet, as a JSON " +
			"list of {\"text\", \"id\"} objects:\n" +
			"{{mentions}}\n" +
			"Write one reply per mention, each under 280 characters. " +
			"Respond with ONLY a JSON array of {\"text\", \"id\"} objects, where id is the id of " +
			"the mention being replied to. Do not include anything else in your response.",
	}
}

// LoadTemplates reads templates.yaml from dir and overlays it on the
// defaults. A missing file yields the defaults with no error.
func LoadTemplates(dir string) (Templates, error) {
	t := Defaults()

	path := filepath.Join(dir, "templates.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("failed to read templates %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse templates %s: %w", path, err)
	}
	return t, nil
}

// LoadPersona reads the persona prompt from AGENT.md in dir, falling back to
// the VESPER_AGENT_PROMPT environment variable.
func LoadPersona(dir string) (string, error) {
	path := filepath.Join(dir, "AGENT.md")
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read persona prompt %s: %w", path, err)
	}
	if persona := os.Getenv(PersonaEnvVar); persona != "" {
		return persona, nil
	}
	return "", fmt.Errorf("no persona prompt: %s does not exist and %s is unset", path, PersonaEnvVar)
}

// Render substitutes {{name}} placeholders in a template.
func Render(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return out
}
