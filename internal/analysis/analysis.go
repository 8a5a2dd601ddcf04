package analysis

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"liedetect/internal/config"
	"liedetect/internal/emotion"
	"liedetect/internal/gateway"
	"liedetect/internal/logger"
	"liedetect/internal/model"
	"liedetect/internal/store"
	"liedetect/internal/vectormath"
)

// ErrUnknownSession means no session document exists for the id.
var ErrUnknownSession = errors.New("unknown session")

// ErrNoMediaUploaded means the session exists but has no media to score.
var ErrNoMediaUploaded = errors.New("session has no uploaded media")

// AnalysisService orchestrates one analysis run: it fans out to the three
// scoring backends, fuses their outputs and persists the resulting summary.
type AnalysisService struct {
	cfg      *config.Config
	sessions *store.SessionStore
	invoker  gateway.Invoker
	log      *logger.Logger
}

// NewAnalysisService wires the orchestrator to its collaborators.
func NewAnalysisService(cfg *config.Config, sessions *store.SessionStore, invoker gateway.Invoker, log *logger.Logger) *AnalysisService {
	return &AnalysisService{cfg: cfg, sessions: sessions, invoker: invoker, log: log}
}

// Run scores the session's media through the audio, macro and micro backends
// and writes the fused summary back to the store.
//
// The three calls are independent and run concurrently, each under its own
// timeout. A backend whose endpoint name is unconfigured contributes a
// zero-score, empty-vector result without any network wait; a configured
// backend that fails at call time is logged and degraded to the same zero
// default, so one broken model does not reject the whole request.
func (s *AnalysisService) Run(ctx context.Context, sessionID string) (*model.Summary, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownSession
		}
		return nil, err
	}

	role := model.RoleAnswerer
	record, ok := session.Media[role]
	if !ok {
		role = model.RoleQuestioner
		record, ok = session.Media[role]
	}
	if !ok {
		return nil, ErrNoMediaUploaded
	}

	payload := model.InvokePayload{
		SessionID: sessionID,
		VideoKey:  record.Key,
		Bucket:    record.Bucket,
		Role:      role,
	}

	var audioResult, macroResult, microResult *model.InferenceResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		audioResult = s.invokeEndpoint(gctx, s.cfg.AudioEndpoint, payload)
		return nil
	})
	g.Go(func() error {
		macroResult = s.invokeEndpoint(gctx, s.cfg.MacroEndpoint, payload)
		return nil
	})
	g.Go(func() error {
		microResult = s.invokeEndpoint(gctx, s.cfg.MicroEndpoint, payload)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	audioVector := defaultVector(audioResult.EmotionVector)
	macroVector := defaultVector(macroResult.EmotionVector)

	comparisonVector, err := vectormath.AverageVectors([][]float64{audioVector, macroVector})
	if err != nil {
		return nil, err
	}

	fused := vectormath.FuseLieScores(audioResult.LieScore, macroResult.LieScore, microResult.LieScore)

	summary := model.Summary{
		LieProbability:      fused,
		FusedLieProbability: fused,
		AudioScore:          audioResult.LieScore,
		MacroScore:          macroResult.LieScore,
		MicroScore:          microResult.LieScore,
		ComparisonVector:    comparisonVector,
		AudioVector:         audioVector,
		MacroVector:         macroVector,
	}

	if err := s.sessions.SetSummary(sessionID, summary); err != nil {
		return nil, err
	}

	s.log.Info("analysis complete", map[string]interface{}{
		"session_id":      sessionID,
		"role":            role,
		"lie_probability": fused,
	})
	return &summary, nil
}

// invokeEndpoint applies the soft-default policy: an unconfigured endpoint
// short-circuits without a network call, and a failing backend degrades to
// the same zero contribution with a warning instead of aborting the run.
func (s *AnalysisService) invokeEndpoint(ctx context.Context, endpointName string, payload model.InvokePayload) *model.InferenceResult {
	if endpointName == "" {
		return &model.InferenceResult{LieScore: 0.0}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ScoringTimeout)
	defer cancel()

	result, err := s.invoker.Invoke(callCtx, endpointName, payload)
	if err != nil {
		s.log.Warn("scoring backend failed, using zero default", map[string]interface{}{
			"session_id": payload.SessionID,
			"endpoint":   endpointName,
			"error":      err.Error(),
		})
		return &model.InferenceResult{LieScore: 0.0}
	}
	return result
}

func defaultVector(vec []float64) []float64 {
	if len(vec) == 0 {
		return emotion.ZeroVector()
	}
	return vec
}
