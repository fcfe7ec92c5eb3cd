package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/consistencyguard/internal/driver"
	"github.com/agenthands/consistencyguard/internal/model"
)

// GraphStore keeps answers as :Answer nodes and edges as :CONSISTENCY
// relationships in Memgraph.
type GraphStore struct {
	driver driver.GraphDriver
}

func NewGraphStore(d driver.GraphDriver) *GraphStore {
	return &GraphStore{driver: d}
}

func (g *GraphStore) SaveAnswer(ctx context.Context, a model.Answer) error {
	_, err := g.driver.ExecuteQuery(ctx, driver.SaveAnswerQuery, map[string]interface{}{
		"id":         a.ID,
		"text":       a.Text,
		"answer":     a.Answer,
		"category":   a.Category,
		"session_id": sessionOrDefault(a.SessionID),
		"created_at": a.CreatedAt.UTC().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to save answer %s: %w", a.ID, err)
	}
	return nil
}

func (g *GraphStore) GetAnswer(ctx context.Context, id string) (*model.Answer, error) {
	res, err := g.driver.ExecuteQuery(ctx, driver.GetAnswerQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get answer %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	a := answerFromRecord(res.Records[0])
	return &a, nil
}

func (g *GraphStore) ListAnswers(ctx context.Context, sessionID string) ([]model.Answer, error) {
	res, err := g.driver.ExecuteQuery(ctx, driver.ListAnswersQuery, map[string]interface{}{
		"session_id": sessionOrDefault(sessionID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	out := make([]model.Answer, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, answerFromRecord(rec))
	}
	return out, nil
}

func (g *GraphStore) DeleteAnswer(ctx context.Context, id string) error {
	res, err := g.driver.ExecuteQuery(ctx, driver.DeleteAnswerQuery, map[string]interface{}{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete answer %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	return nil
}

func (g *GraphStore) SaveEdge(ctx context.Context, e model.Edge) error {
	res, err := g.driver.ExecuteQuery(ctx, driver.SaveEdgeQuery, map[string]interface{}{
		"id":            e.ID,
		"source_id":     e.SourceID,
		"target_id":     e.TargetID,
		"is_consistent": e.IsConsistent,
		"explanation":   e.Explanation,
		"session_id":    sessionOrDefault(e.SessionID),
		"created_at":    e.CreatedAt.UTC().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to save edge %s: %w", e.ID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("edge %s endpoints: %w", e.ID, ErrNotFound)
	}
	return nil
}

func (g *GraphStore) ListEdges(ctx context.Context, sessionID string) ([]model.Edge, error) {
	res, err := g.driver.ExecuteQuery(ctx, driver.ListEdgesQuery, map[string]interface{}{
		"session_id": sessionOrDefault(sessionID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	out := make([]model.Edge, 0, len(res.Records))
	for _, rec := range res.Records {
		isConsistent, _ := recordValue(rec, "is_consistent").(bool)
		out = append(out, model.Edge{
			ID:           recordString(rec, "id"),
			SourceID:     recordString(rec, "source_id"),
			TargetID:     recordString(rec, "target_id"),
			IsConsistent: isConsistent,
			Explanation:  recordString(rec, "explanation"),
			SessionID:    recordString(rec, "session_id"),
			CreatedAt:    recordTime(rec, "created_at"),
		})
	}
	return out, nil
}

func (g *GraphStore) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func answerFromRecord(rec *neo4j.Record) model.Answer {
	return model.Answer{
		ID:        recordString(rec, "id"),
		Text:      recordString(rec, "text"),
		Answer:    recordString(rec, "answer"),
		Category:  recordString(rec, "category"),
		SessionID: recordString(rec, "session_id"),
		CreatedAt: recordTime(rec, "created_at"),
	}
}

func recordValue(rec *neo4j.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}

func recordString(rec *neo4j.Record, key string) string {
	s, _ := recordValue(rec, key).(string)
	return s
}

func recordTime(rec *neo4j.Record, key string) time.Time {
	n, _ := recordValue(rec, key).(int64)
	return time.Unix(0, n).UTC()
}
