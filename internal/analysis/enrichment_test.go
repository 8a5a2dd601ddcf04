package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liedetect/internal/logger"
	"liedetect/internal/model"
	"liedetect/internal/store"
)

type stubWeights struct {
	weights map[string]float64
	calls   int
}

func (s *stubWeights) EmotionWeights(_ context.Context, _ string, _ string) (map[string]float64, error) {
	s.calls++
	return s.weights, nil
}

func newEnrichmentFixture(t *testing.T, weights map[string]float64) (*EnrichmentService, *store.SessionStore, *stubWeights) {
	t.Helper()
	sessions, err := store.NewSessionStore(t.TempDir())
	require.NoError(t, err)
	provider := &stubWeights{weights: weights}
	return NewEnrichmentService(sessions, provider, logger.NewLogger(true)), sessions, provider
}

func TestEnrich_NoSummaryIsNoOp(t *testing.T) {
	svc, sessions, provider := newEnrichmentFixture(t, map[string]float64{"angry": 0.5})
	require.NoError(t, sessions.SetTranscript("s1", "some transcript"))

	summary, err := svc.Enrich(context.Background(), "s1", "some transcript")
	require.NoError(t, err)
	assert.Nil(t, summary)
	assert.Zero(t, provider.calls, "no LLM call without a prior summary")
}

func TestEnrich_UnknownSessionIsNoOp(t *testing.T) {
	svc, _, _ := newEnrichmentFixture(t, nil)
	summary, err := svc.Enrich(context.Background(), "missing", "text")
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestEnrich_AdjustsLieProbability(t *testing.T) {
	svc, sessions, _ := newEnrichmentFixture(t, map[string]float64{"angry": 0.5})

	prior := model.Summary{
		LieProbability:      0.4875,
		FusedLieProbability: 0.4875,
		MicroScore:          0.6,
		ComparisonVector:    []float64{1, 0, 0, 0, 0, 0, 0, 0},
	}
	require.NoError(t, sessions.SetSummary("s1", prior))

	summary, err := svc.Enrich(context.Background(), "s1", "transcript")
	require.NoError(t, err)
	require.NotNil(t, summary)

	// comparison vector and weighting are perfectly aligned: cosine = 1,
	// mismatch = 0, final = (0 + 0.6) / 2
	require.NotNil(t, summary.AlignmentScore)
	assert.Equal(t, 1.0, *summary.AlignmentScore)
	assert.Equal(t, 0.3, summary.LieProbability)
	assert.Equal(t, 0.4875, summary.FusedLieProbability, "original fused score is preserved")
	assert.Equal(t, map[string]float64{"angry": 0.5}, summary.LLMVector)

	session, err := sessions.Get("s1")
	require.NoError(t, err)
	require.NotNil(t, session.Summary)
	assert.Equal(t, 0.3, session.Summary.LieProbability)
}

func TestEnrich_Idempotent(t *testing.T) {
	svc, sessions, _ := newEnrichmentFixture(t, map[string]float64{"angry": 0.3, "calm": 0.1})

	prior := model.Summary{
		LieProbability:      0.5,
		FusedLieProbability: 0.5,
		MicroScore:          0.4,
		ComparisonVector:    []float64{0.2, 0.4, 0.1, 0.0, 0.3, 0.5, 0.2, 0.1},
	}
	require.NoError(t, sessions.SetSummary("s1", prior))

	first, err := svc.Enrich(context.Background(), "s1", "transcript")
	require.NoError(t, err)
	second, err := svc.Enrich(context.Background(), "s1", "transcript")
	require.NoError(t, err)

	assert.Equal(t, *first.AlignmentScore, *second.AlignmentScore)
	assert.Equal(t, first.LieProbability, second.LieProbability)
	assert.Equal(t, first.FusedLieProbability, second.FusedLieProbability)
}
