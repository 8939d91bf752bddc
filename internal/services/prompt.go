package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts holds the fixed texts the orchestrator and router work with.
// Defaults can be overridden from a YAML file (PROMPTS_FILE).
type Prompts struct {
	System        string `yaml:"system"`
	Summarize     string `yaml:"summarize"`
	MediaFallback string `yaml:"media_fallback"`
	Placeholder   string `yaml:"placeholder"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		System: "You are a witty regular in a group chat. Comment on posts and messages " +
			"briefly and in the tone of the thread. Stay relevant, never lecture.",
		Summarize: "Summarize the conversation in one or two sentences. Keep facts and " +
			"usernames, leave out anything private.",
		MediaFallback: "The post has no text. Give a short, fitting comment on the attached media.",
		Placeholder:   "Still thinking of a witty reply 🤔",
	}
}

// LoadPrompts returns the defaults, overlaid with any non-empty fields from
// the YAML file at path. An empty path means defaults only.
func LoadPrompts(path string) (Prompts, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read prompts file: %w", err)
	}
	var override Prompts
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return p, fmt.Errorf("parse prompts file: %w", err)
	}
	if override.System != "" {
		p.System = override.System
	}
	if override.Summarize != "" {
		p.Summarize = override.Summarize
	}
	if override.MediaFallback != "" {
		p.MediaFallback = override.MediaFallback
	}
	if override.Placeholder != "" {
		p.Placeholder = override.Placeholder
	}
	return p, nil
}
