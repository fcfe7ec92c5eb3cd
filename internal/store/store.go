// Package store persists answers and consistency edges, partitioned by session.
package store

import (
	"context"
	"errors"

	"github.com/agenthands/consistencyguard/internal/model"
)

var ErrNotFound = errors.New("not found")

// Store is the record boundary. Implementations serialize their own writes.
type Store interface {
	SaveAnswer(ctx context.Context, a model.Answer) error
	// GetAnswer returns ErrNotFound when id is unknown.
	GetAnswer(ctx context.Context, id string) (*model.Answer, error)
	// ListAnswers returns the session's answers, oldest first.
	ListAnswers(ctx context.Context, sessionID string) ([]model.Answer, error)
	// DeleteAnswer removes the answer and every edge that references it.
	// It returns ErrNotFound when id is unknown.
	DeleteAnswer(ctx context.Context, id string) error
	SaveEdge(ctx context.Context, e model.Edge) error
	ListEdges(ctx context.Context, sessionID string) ([]model.Edge, error)
	Close(ctx context.Context) error
}
