package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/agenthands/consistencyguard/internal/consistency"
	"github.com/agenthands/consistencyguard/internal/model"
	"github.com/agenthands/consistencyguard/internal/store"
	"github.com/agenthands/consistencyguard/internal/vectorindex"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	svc    *Service
	cat    *MockCategorizer
	emb    *MockEmbedder
	index  *vectorindex.MemoryIndex
	store  *store.SQLiteStore
	oracle *MockOracle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })

	f := &fixture{
		cat:    &MockCategorizer{Categories: map[string]string{}, Default: "X"},
		emb:    &MockEmbedder{Vectors: map[string][]float32{}},
		index:  vectorindex.NewMemoryIndex(),
		store:  st,
		oracle: &MockOracle{},
	}
	f.svc = NewService(f.cat, f.emb, f.index, f.store, f.oracle, zap.NewNop())
	f.svc.NewID = sequentialIDs()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return f
}

func TestIngest_FirstAnswerHasNoEdges(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Ingest(context.Background(), Request{Question: "Do you take initiative?", Answer: "Yes, always"})
	require.NoError(t, err)

	assert.Equal(t, "id-1", res.Answer.ID)
	assert.Equal(t, "X", res.Answer.Category)
	assert.Equal(t, model.DefaultSession, res.Answer.SessionID)
	assert.Empty(t, res.Edges)
	assert.False(t, res.Degraded)
	assert.Empty(t, f.oracle.Pairs)
	assert.Equal(t, 1, f.index.Len())
}

func TestIngest_InconsistentPairCreatesOneEdgeNewToOld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Ingest(ctx, Request{Question: "Do you take initiative?", Answer: "Yes, always"})
	require.NoError(t, err)

	f.oracle.Verdicts = []consistency.Verdict{{IsConsistent: false, Explanation: "Waiting contradicts initiative."}}
	b, err := f.svc.Ingest(ctx, Request{Question: "Do you wait for assignments?", Answer: "Yes, I wait"})
	require.NoError(t, err)

	require.Len(t, b.Edges, 1)
	e := b.Edges[0]
	assert.Equal(t, b.Answer.ID, e.SourceID)
	assert.Equal(t, a.Answer.ID, e.TargetID)
	assert.False(t, e.IsConsistent)
	assert.Equal(t, "#ef4444", e.Color)

	require.Len(t, f.oracle.Pairs, 1)
	assert.Equal(t, consistency.Pair{
		Question1: "Do you wait for assignments?",
		Answer1:   "Yes, I wait",
		Question2: "Do you take initiative?",
		Answer2:   "Yes, always",
	}, f.oracle.Pairs[0])

	stored, err := f.store.ListEdges(ctx, model.DefaultSession)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, e.ID, stored[0].ID)
	assert.False(t, stored[0].IsConsistent)
	assert.Equal(t, "Waiting contradicts initiative.", stored[0].Explanation)
	assert.True(t, e.CreatedAt.Equal(stored[0].CreatedAt))
}

func TestIngest_OtherCategoryYieldsNoEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cat.Categories["q1"] = "X"
	f.cat.Categories["q2"] = "Y"

	_, err := f.svc.Ingest(ctx, Request{Question: "q1", Answer: "a"})
	require.NoError(t, err)
	res, err := f.svc.Ingest(ctx, Request{Question: "q2", Answer: "b"})
	require.NoError(t, err)

	assert.Empty(t, res.Edges)
	assert.Empty(t, f.oracle.Pairs)
}

func TestIngest_ConsistentEdgeColor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, Request{Question: "q1", Answer: "a"})
	require.NoError(t, err)
	res, err := f.svc.Ingest(ctx, Request{Question: "q2", Answer: "b"})
	require.NoError(t, err)

	require.Len(t, res.Edges, 1)
	assert.True(t, res.Edges[0].IsConsistent)
	assert.Equal(t, "#22c55e", res.Edges[0].Color)
}

func TestIngest_TopKBoundsChecks(t *testing.T) {
	f := newFixture(t)
	f.svc.TopK = 3
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Ingest(ctx, Request{Question: "q", Answer: "a"})
		require.NoError(t, err)
	}
	f.oracle.Pairs = nil

	res, err := f.svc.Ingest(ctx, Request{Question: "q", Answer: "a"})
	require.NoError(t, err)
	// equal distances keep insertion order, so the three oldest answers win
	assert.Len(t, res.Edges, 3)
	assert.Len(t, f.oracle.Pairs, 3)
}

func TestIngest_SkipsOtherSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, Request{Question: "q1", Answer: "a", SessionID: "alice"})
	require.NoError(t, err)
	res, err := f.svc.Ingest(ctx, Request{Question: "q2", Answer: "b", SessionID: "bob"})
	require.NoError(t, err)

	assert.Empty(t, res.Edges)
	assert.Equal(t, "bob", res.Answer.SessionID)
}

func TestIngest_OtherSessionsDoNotCrowdOutOwnHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.emb.Vectors["Do you take initiative?"] = []float32{1, 0, 0}
	f.emb.Vectors["Do you wait for assignments?"] = []float32{0.9, 0.1, 0}

	first, err := f.svc.Ingest(ctx, Request{Question: "Do you take initiative?", Answer: "Yes, always", SessionID: "alice"})
	require.NoError(t, err)
	for _, sess := range []string{"s1", "s2", "s3", "s4", "s5"} {
		_, err := f.svc.Ingest(ctx, Request{Question: "Do you wait for assignments?", Answer: "Yes", SessionID: sess})
		require.NoError(t, err)
	}
	require.Empty(t, f.oracle.Pairs)

	f.oracle.Verdicts = []consistency.Verdict{{IsConsistent: false, Explanation: "Waiting contradicts initiative."}}
	res, err := f.svc.Ingest(ctx, Request{Question: "Do you wait for assignments?", Answer: "Yes, I wait", SessionID: "alice"})
	require.NoError(t, err)

	require.Len(t, res.Edges, 1)
	assert.Equal(t, first.Answer.ID, res.Edges[0].TargetID)
	assert.False(t, res.Edges[0].IsConsistent)
	assert.Equal(t, "alice", res.Edges[0].SessionID)
}

func TestIngest_SkipsNeighbourMissingFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.index.Upsert(ctx, vectorindex.Entry{ID: "ghost", Text: "q", Category: "X", SessionID: model.DefaultSession, Vector: []float32{1, 1, 1}}))

	res, err := f.svc.Ingest(ctx, Request{Question: "q", Answer: "a"})
	require.NoError(t, err)
	assert.Empty(t, res.Edges)
}

func TestIngest_PassesCategories(t *testing.T) {
	f := newFixture(t)
	allowed := []string{"Courage", "Wisdom"}

	_, err := f.svc.Ingest(context.Background(), Request{Question: "q", Answer: "a", Categories: allowed})
	require.NoError(t, err)
	assert.Equal(t, allowed, f.cat.LastAllowed)
}

func TestIngest_ClassificationFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	f.cat.Err = errBoom

	_, err := f.svc.Ingest(context.Background(), Request{Question: "q", Answer: "a"})
	assert.ErrorIs(t, err, errBoom)

	answers, err := f.store.ListAnswers(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, answers)
	assert.Equal(t, 0, f.index.Len())
}

func TestIngest_StoreFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.NewID = func() string { return "dup" }

	_, err := f.svc.Ingest(ctx, Request{Question: "q", Answer: "a"})
	require.NoError(t, err)
	_, err = f.svc.Ingest(ctx, Request{Question: "q", Answer: "a"})
	assert.ErrorContains(t, err, "store answer")
}

func TestIngest_IndexFailuresDegrade(t *testing.T) {
	cases := map[string]*FailingIndex{
		"upsert": {UpsertErr: errBoom},
		"query":  {QueryErr: errBoom},
	}
	for name, idx := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			idx.Index = f.index
			f.svc.index = idx
			ctx := context.Background()

			_, err := f.svc.Ingest(ctx, Request{Question: "q1", Answer: "a"})
			require.NoError(t, err)
			res, err := f.svc.Ingest(ctx, Request{Question: "q2", Answer: "b"})
			require.NoError(t, err)

			assert.True(t, res.Degraded)
			assert.Empty(t, res.Edges)
			answers, err := f.store.ListAnswers(ctx, "")
			require.NoError(t, err)
			assert.Len(t, answers, 2)
		})
	}
}

func TestIngest_EmbeddingFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.emb.Err = errBoom

	res, err := f.svc.Ingest(context.Background(), Request{Question: "q", Answer: "a"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
}

func TestIngest_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Ingest(ctx, Request{Question: "q", Answer: "a"})
	assert.Error(t, err)
}

func TestDelete_CascadesAndRemovesVector(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Ingest(ctx, Request{Question: "q1", Answer: "a"})
	require.NoError(t, err)
	b, err := f.svc.Ingest(ctx, Request{Question: "q2", Answer: "b"})
	require.NoError(t, err)
	require.Len(t, b.Edges, 1)

	require.NoError(t, f.svc.Delete(ctx, a.Answer.ID))

	edges, err := f.svc.Edges(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, edges)
	answers, err := f.svc.Answers(ctx, "")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, b.Answer.ID, answers[0].ID)
	assert.Equal(t, 1, f.index.Len())

	assert.ErrorIs(t, f.svc.Delete(ctx, a.Answer.ID), store.ErrNotFound)
}

func TestDelete_IndexFailureIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.index = &FailingIndex{Index: f.index, DeleteErr: errBoom}

	a, err := f.svc.Ingest(ctx, Request{Question: "q", Answer: "a"})
	require.NoError(t, err)
	assert.NoError(t, f.svc.Delete(ctx, a.Answer.ID))
}

func TestCheck_DelegatesToOracle(t *testing.T) {
	f := newFixture(t)
	f.oracle.Verdicts = []consistency.Verdict{{IsConsistent: false, Explanation: "no"}}

	v := f.svc.Check(context.Background(), consistency.Pair{Question1: "a", Answer1: "b", Question2: "c", Answer2: "d"})
	assert.False(t, v.IsConsistent)
	assert.Len(t, f.oracle.Pairs, 1)
}
