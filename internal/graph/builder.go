// Package graph lays out answers and consistency edges for the web client:
// one hub per principle on an outer circle, answers ringed around their hub.
package graph

import (
	"math"
	"strings"

	"github.com/agenthands/consistencyguard/internal/framework"
	"github.com/agenthands/consistencyguard/internal/model"
)

const (
	CenterX        = 900.0
	CenterY        = 900.0
	HubRadius      = 700.0
	QuestionRadius = 180.0
	LabelMaxLen    = 50

	NodeTypeCategory = "category"
	NodeTypeQuestion = "question"
	EdgeType         = "consistency"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data"`
}

type EdgeStyle struct {
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"strokeWidth"`
}

type Edge struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Style  EdgeStyle      `json:"style"`
	Data   map[string]any `json:"data"`
	Type   string         `json:"type"`
}

type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// HubID is the node id of a principle hub.
func HubID(principle string) string {
	return "cat-" + strings.ReplaceAll(strings.ToLower(principle), " ", "-")
}

// Build lays out fw's principles and the answers categorized under them.
// Answers outside fw are left out, and so are edges touching them.
func Build(fw framework.Framework, answers []model.Answer, edges []model.Edge) Data {
	data := Data{Nodes: []Node{}, Edges: []Edge{}}

	hubs := make(map[string]Position, len(fw.Principles))
	for i, p := range fw.Principles {
		pos := onCircle(CenterX, CenterY, HubRadius, i, len(fw.Principles))
		hubs[p.Name] = pos
		data.Nodes = append(data.Nodes, Node{
			ID:       HubID(p.Name),
			Type:     NodeTypeCategory,
			Position: pos,
			Data:     map[string]any{"label": p.Name, "color": p.Color},
		})
	}

	grouped := make(map[string][]model.Answer, len(fw.Principles))
	for _, a := range answers {
		if _, ok := hubs[a.Category]; ok {
			grouped[a.Category] = append(grouped[a.Category], a)
		}
	}

	placed := make(map[string]bool, len(answers))
	for _, p := range fw.Principles {
		group := grouped[p.Name]
		hub := hubs[p.Name]
		for j, a := range group {
			placed[a.ID] = true
			data.Nodes = append(data.Nodes, Node{
				ID:       a.ID,
				Type:     NodeTypeQuestion,
				Position: onCircle(hub.X, hub.Y, QuestionRadius, j, len(group)),
				Data: map[string]any{
					"label":     Label(a.Text),
					"full_text": a.Text,
					"answer":    a.Answer,
					"category":  a.Category,
				},
			})
		}
	}

	for _, e := range edges {
		if !placed[e.SourceID] || !placed[e.TargetID] {
			continue
		}
		data.Edges = append(data.Edges, Edge{
			ID:     e.ID,
			Source: e.SourceID,
			Target: e.TargetID,
			Style:  EdgeStyle{Stroke: model.VerdictColor(e.IsConsistent), StrokeWidth: 2},
			Data: map[string]any{
				"is_consistent": e.IsConsistent,
				"explanation":   e.Explanation,
			},
			Type: EdgeType,
		})
	}
	return data
}

// Label truncates text to LabelMaxLen runes, marking the cut with "...".
func Label(text string) string {
	r := []rune(text)
	if len(r) <= LabelMaxLen {
		return text
	}
	return string(r[:LabelMaxLen]) + "..."
}

// onCircle places item i of n evenly on a circle, starting at the top.
func onCircle(cx, cy, radius float64, i, n int) Position {
	angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
	return Position{X: cx + radius*math.Cos(angle), Y: cy + radius*math.Sin(angle)}
}
