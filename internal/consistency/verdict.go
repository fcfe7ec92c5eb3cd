// Package consistency judges whether two self-assessment answers contradict
// each other by asking a reasoning model.
package consistency

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	NoProviderExplanation  = "No API key configured - skipping consistency check"
	NoExplanation          = "No explanation provided"
	fallbackExplanationFmt = "Error checking consistency: %s"
)

// Pair is the new answer (1) and the prior answer (2) being compared.
type Pair struct {
	Question1 string `json:"question_text"`
	Answer1   string `json:"question_answer"`
	Question2 string `json:"compare_text"`
	Answer2   string `json:"compare_answer"`
}

type Verdict struct {
	IsConsistent bool   `json:"is_consistent"`
	Explanation  string `json:"explanation"`
}

// Fallback is the verdict reported when the provider could not judge the pair.
func Fallback(err error) Verdict {
	return Verdict{IsConsistent: true, Explanation: fmt.Sprintf(fallbackExplanationFmt, err)}
}

type rawVerdict struct {
	IsConsistent *bool   `json:"is_consistent"`
	Explanation  *string `json:"explanation"`
}

var errNoJSON = errors.New("no JSON object in response")

// ParseVerdict decodes a model reply. A surrounding ``` fence is stripped,
// and when the reply still is not pure JSON the outermost {...} is used.
// Missing fields default to consistent / NoExplanation.
func ParseVerdict(reply string) (Verdict, error) {
	text := stripFence(reply)

	var raw rawVerdict
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		obj, ok := outermostObject(text)
		if !ok {
			return Verdict{}, fmt.Errorf("%w: %q", errNoJSON, truncate(text, 80))
		}
		if err := json.Unmarshal([]byte(obj), &raw); err != nil {
			return Verdict{}, fmt.Errorf("failed to unmarshal verdict: %w", err)
		}
	}

	v := Verdict{IsConsistent: true, Explanation: NoExplanation}
	if raw.IsConsistent != nil {
		v.IsConsistent = *raw.IsConsistent
	}
	if raw.Explanation != nil {
		v.Explanation = *raw.Explanation
	}
	return v, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening fence line, including any language tag
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = s[3:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
