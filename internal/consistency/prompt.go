package consistency

import (
	"fmt"

	"github.com/agenthands/consistencyguard/internal/config"
)

const defaultSystemPrompt = `You are a self-assessment coach analyzing responses against a framework of guiding principles.
Given two Likert-scale self-assessment statements, determine if the answers are logically consistent with each other.
Consider that some statements may be inversely related (e.g. claiming "I always take ownership" but also agreeing "I wait for others to assign me tasks" would be contradictory).
Surface blind spots in self-perception. Be strict and flag subtle contradictions that reveal gaps between stated values and actual behavior.
Return ONLY valid JSON with two fields: "is_consistent" (boolean) and "explanation" (string, 1-2 sentences).`

const defaultUserPrompt = "Question 1: %s\nAnswer 1: %s\n\nQuestion 2: %s\nAnswer 2: %s"

// Prompts are the instruction sent as the system message and the template for
// the user message. User takes four %s verbs: question 1, answer 1,
// question 2, answer 2.
type Prompts struct {
	System string
	User   string
}

func DefaultPrompts() Prompts {
	return Prompts{System: defaultSystemPrompt, User: defaultUserPrompt}
}

// PromptsFromConfig overlays configured prompts on the defaults.
func PromptsFromConfig(cfg config.ConsistencyPrompts) Prompts {
	p := DefaultPrompts()
	if cfg.System != "" {
		p.System = cfg.System
	}
	if cfg.User != "" {
		p.User = cfg.User
	}
	return p
}

func (p Prompts) UserPrompt(pair Pair) string {
	return fmt.Sprintf(p.User, pair.Question1, pair.Answer1, pair.Question2, pair.Answer2)
}
