package framework

import "strings"

// LikertScale maps the five agreement levels to their scores.
var LikertScale = map[string]int{
	"Strongly Disagree": 1,
	"Disagree":          2,
	"Neutral":           3,
	"Agree":             4,
	"Strongly Agree":    5,
}

var likertOrder = []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"}

// LikertScore returns the score of a label, matched case-insensitively.
func LikertScore(label string) (int, bool) {
	label = strings.TrimSpace(label)
	for _, l := range likertOrder {
		if strings.EqualFold(l, label) {
			return LikertScale[l], true
		}
	}
	return 0, false
}

// LikertLabel is the inverse of LikertScore.
func LikertLabel(score int) (string, bool) {
	if score < 1 || score > len(likertOrder) {
		return "", false
	}
	return likertOrder[score-1], true
}
