package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liedetect/internal/config"
	"liedetect/internal/emotion"
	"liedetect/internal/logger"
	"liedetect/internal/model"
	"liedetect/internal/store"
)

type stubInvoker struct {
	mu       sync.Mutex
	results  map[string]*model.InferenceResult
	errs     map[string]error
	payloads map[string]model.InvokePayload
}

func (s *stubInvoker) Invoke(_ context.Context, endpointName string, payload model.InvokePayload) (*model.InferenceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payloads == nil {
		s.payloads = make(map[string]model.InvokePayload)
	}
	s.payloads[endpointName] = payload
	if err, ok := s.errs[endpointName]; ok {
		return nil, err
	}
	result, ok := s.results[endpointName]
	if !ok {
		return nil, errors.New("unexpected endpoint: " + endpointName)
	}
	return result, nil
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newFixture(t *testing.T, cfg *config.Config, invoker *stubInvoker) (*AnalysisService, *store.SessionStore) {
	t.Helper()
	sessions, err := store.NewSessionStore(t.TempDir())
	require.NoError(t, err)
	if cfg.ScoringTimeout == 0 {
		cfg.ScoringTimeout = time.Second
	}
	return NewAnalysisService(cfg, sessions, invoker, logger.NewLogger(true)), sessions
}

func addMedia(t *testing.T, sessions *store.SessionStore, sessionID, role string) {
	t.Helper()
	require.NoError(t, sessions.UpdateMedia(sessionID, role, model.MediaRecord{
		SessionID:   sessionID,
		Role:        role,
		Key:         "sessions/" + sessionID + "/" + role + ".mp4",
		Bucket:      "interviews",
		ContentType: "video/mp4",
	}))
}

func TestRun_UnknownSession(t *testing.T) {
	svc, _ := newFixture(t, &config.Config{}, &stubInvoker{})
	_, err := svc.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestRun_NoMediaUploaded(t *testing.T) {
	svc, sessions := newFixture(t, &config.Config{}, &stubInvoker{})
	require.NoError(t, sessions.SetTranscript("s1", "text only"))

	_, err := svc.Run(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoMediaUploaded)
}

func TestRun_AllEndpointsUnconfigured(t *testing.T) {
	invoker := &stubInvoker{}
	svc, sessions := newFixture(t, &config.Config{}, invoker)
	addMedia(t, sessions, "s1", model.RoleAnswerer)

	summary, err := svc.Run(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.LieProbability)
	assert.Equal(t, repeat(0, emotion.Count), summary.ComparisonVector)
	assert.Empty(t, invoker.payloads, "unconfigured endpoints must not be called")
}

func TestRun_FusesBackendResults(t *testing.T) {
	invoker := &stubInvoker{
		results: map[string]*model.InferenceResult{
			"audio-e": {EmotionVector: repeat(0.2, 8), LieScore: 0.5},
			"macro-e": {EmotionVector: repeat(0.4, 8), LieScore: 0.25},
			"micro-e": {LieScore: 0.75},
		},
	}
	cfg := &config.Config{AudioEndpoint: "audio-e", MacroEndpoint: "macro-e", MicroEndpoint: "micro-e"}
	svc, sessions := newFixture(t, cfg, invoker)
	addMedia(t, sessions, "s1", model.RoleQuestioner)
	addMedia(t, sessions, "s1", model.RoleAnswerer)

	summary, err := svc.Run(context.Background(), "s1")
	require.NoError(t, err)

	// 0.35*0.5 + 0.35*0.25 + 0.30*0.75
	assert.Equal(t, 0.4875, summary.LieProbability)
	assert.Equal(t, 0.4875, summary.FusedLieProbability)
	assert.Equal(t, repeat(0.3, 8), summary.ComparisonVector)
	assert.Equal(t, 0.5, summary.AudioScore)
	assert.Equal(t, 0.25, summary.MacroScore)
	assert.Equal(t, 0.75, summary.MicroScore)

	// answerer media wins over questioner when both exist
	assert.Equal(t, model.RoleAnswerer, invoker.payloads["audio-e"].Role)
	assert.Equal(t, "sessions/s1/answerer.mp4", invoker.payloads["audio-e"].VideoKey)

	// summary is persisted
	session, err := sessions.Get("s1")
	require.NoError(t, err)
	require.NotNil(t, session.Summary)
	assert.Equal(t, 0.4875, session.Summary.LieProbability)
}

func TestRun_FailingBackendDegradesToZero(t *testing.T) {
	invoker := &stubInvoker{
		results: map[string]*model.InferenceResult{
			"audio-e": {EmotionVector: repeat(0.2, 8), LieScore: 0.5},
			"micro-e": {LieScore: 0.75},
		},
		errs: map[string]error{"macro-e": errors.New("model container crashed")},
	}
	cfg := &config.Config{AudioEndpoint: "audio-e", MacroEndpoint: "macro-e", MicroEndpoint: "micro-e"}
	svc, sessions := newFixture(t, cfg, invoker)
	addMedia(t, sessions, "s1", model.RoleAnswerer)

	summary, err := svc.Run(context.Background(), "s1")
	require.NoError(t, err)

	// 0.35*0.5 + 0.35*0 + 0.30*0.75
	assert.Equal(t, 0.4, summary.LieProbability)
	assert.Equal(t, 0.0, summary.MacroScore)
	assert.Equal(t, repeat(0, emotion.Count), summary.MacroVector)
	// audio vector still contributes to the comparison average
	assert.Equal(t, repeat(0.1, 8), summary.ComparisonVector)
}
