// Package ingest runs the answer pipeline: categorize, persist, index, find
// same-category neighbours and record a consistency verdict against each.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/consistencyguard/internal/consistency"
	"github.com/agenthands/consistencyguard/internal/embedding"
	"github.com/agenthands/consistencyguard/internal/logging"
	"github.com/agenthands/consistencyguard/internal/model"
	"github.com/agenthands/consistencyguard/internal/store"
	"github.com/agenthands/consistencyguard/internal/vectorindex"
)

const DefaultTopK = 5

// Categorizer picks a category for text from allowed (nil means all).
type Categorizer interface {
	Categorize(ctx context.Context, text string, allowed []string) (string, error)
}

// Oracle judges a pair and always returns a verdict.
type Oracle interface {
	Check(ctx context.Context, pair consistency.Pair) consistency.Verdict
}

type Request struct {
	Question  string
	Answer    string
	SessionID string
	// Categories restricts classification; nil uses the full curated set.
	Categories []string
}

// EdgeResult is a stored edge plus its display colour.
type EdgeResult struct {
	model.Edge
	Color string `json:"color"`
}

type Result struct {
	Answer model.Answer `json:"question"`
	Edges  []EdgeResult `json:"consistency"`
	// Degraded is set when the vector index could not be used and neighbour
	// retrieval was skipped.
	Degraded bool `json:"degraded,omitempty"`
}

type Service struct {
	categorizer Categorizer
	embedder    embedding.Provider
	index       vectorindex.Index
	store       store.Store
	oracle      Oracle
	logger      *zap.Logger

	TopK  int
	NewID func() string
	Now   func() time.Time
}

func NewService(c Categorizer, e embedding.Provider, idx vectorindex.Index, s store.Store, o Oracle, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	return &Service{
		categorizer: c,
		embedder:    e,
		index:       idx,
		store:       s,
		oracle:      o,
		logger:      logger,
		TopK:        DefaultTopK,
		NewID:       func() string { return uuid.New().String() },
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	session := req.SessionID
	if session == "" {
		session = model.DefaultSession
	}

	id := s.NewID()
	category, err := s.categorizer.Categorize(ctx, req.Question, req.Categories)
	if err != nil {
		return nil, fmt.Errorf("categorize: %w", err)
	}

	ans := model.Answer{
		ID:        id,
		Text:      req.Question,
		Answer:    req.Answer,
		Category:  category,
		CreatedAt: s.Now(),
		SessionID: session,
	}
	if err := s.store.SaveAnswer(ctx, ans); err != nil {
		return nil, fmt.Errorf("store answer: %w", err)
	}

	log := s.logger.With(zap.String("id", id), zap.String("category", category), zap.String("session", session))
	result := &Result{Answer: ans, Edges: []EdgeResult{}}

	neighbors, err := s.neighbors(ctx, ans)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("Vector index unavailable, skipping consistency checks", zap.Error(err))
		result.Degraded = true
		return result, nil
	}

	for _, n := range neighbors {
		if n.ID == id || n.Category != category {
			continue
		}

		prior, err := s.store.GetAnswer(ctx, n.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Debug("Neighbour missing from store", zap.String("neighbor", n.ID))
				continue
			}
			return result, fmt.Errorf("load neighbour %s: %w", n.ID, err)
		}
		if prior.SessionID != session {
			continue
		}

		verdict := s.oracle.Check(ctx, consistency.Pair{
			Question1: ans.Text,
			Answer1:   ans.Answer,
			Question2: prior.Text,
			Answer2:   prior.Answer,
		})

		edge := model.Edge{
			ID:           s.NewID(),
			SourceID:     id,
			TargetID:     prior.ID,
			IsConsistent: verdict.IsConsistent,
			Explanation:  verdict.Explanation,
			SessionID:    session,
			CreatedAt:    s.Now(),
		}
		if err := s.store.SaveEdge(ctx, edge); err != nil {
			return result, fmt.Errorf("store edge: %w", err)
		}
		result.Edges = append(result.Edges, EdgeResult{Edge: edge, Color: model.VerdictColor(edge.IsConsistent)})
	}

	log.Info("Ingested answer", zap.Int("edges", len(result.Edges)))
	return result, nil
}

// neighbors indexes ans and returns its nearest entries within the same
// session, self included.
func (s *Service) neighbors(ctx context.Context, ans model.Answer) ([]vectorindex.Neighbor, error) {
	vec, err := s.embedder.Encode(ctx, ans.Text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := s.index.Upsert(ctx, vectorindex.Entry{
		ID:        ans.ID,
		Text:      ans.Text,
		Category:  ans.Category,
		SessionID: ans.SessionID,
		Vector:    vec,
	}); err != nil {
		return nil, fmt.Errorf("upsert: %w", err)
	}
	k := s.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	n, err := s.index.QueryNearest(ctx, vec, k, vectorindex.Filter{SessionID: ans.SessionID})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return n, nil
}

// Check runs the oracle directly on a caller-supplied pair.
func (s *Service) Check(ctx context.Context, pair consistency.Pair) consistency.Verdict {
	return s.oracle.Check(ctx, pair)
}

// Delete removes the answer and its edges, then drops it from the index. The
// index delete is best-effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAnswer(ctx, id); err != nil {
		return err
	}
	if err := s.index.Delete(ctx, id); err != nil {
		s.logger.Warn("Failed to delete vector", zap.String("id", id), zap.Error(err))
	}
	return nil
}

func (s *Service) Answers(ctx context.Context, sessionID string) ([]model.Answer, error) {
	return s.store.ListAnswers(ctx, sessionOrDefault(sessionID))
}

func (s *Service) Edges(ctx context.Context, sessionID string) ([]model.Edge, error) {
	return s.store.ListEdges(ctx, sessionOrDefault(sessionID))
}

func sessionOrDefault(id string) string {
	if id == "" {
		return model.DefaultSession
	}
	return id
}
