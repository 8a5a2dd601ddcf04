package analysis

import (
	"context"
	"errors"

	"liedetect/internal/logger"
	"liedetect/internal/model"
	"liedetect/internal/store"
	"liedetect/internal/vectormath"
)

// WeightsProvider derives a sparse emotion→weight mapping from a transcript.
type WeightsProvider interface {
	EmotionWeights(ctx context.Context, transcript, sessionID string) (map[string]float64, error)
}

// EnrichmentService folds a transcript-derived emotion weighting into an
// existing summary: it scores how well the transcript's implied emotion
// aligns with the fused audio/macro vector and revises the lie probability.
type EnrichmentService struct {
	sessions *store.SessionStore
	weights  WeightsProvider
	log      *logger.Logger
}

// NewEnrichmentService wires the enrichment flow to its collaborators.
func NewEnrichmentService(sessions *store.SessionStore, weights WeightsProvider, log *logger.Logger) *EnrichmentService {
	return &EnrichmentService{sessions: sessions, weights: weights, log: log}
}

// Enrich updates the session's summary with the transcript alignment signal.
// When no summary exists yet this is a no-op returning nil; enrichment never
// fabricates a summary. LieProbability is replaced by the alignment-adjusted
// score while FusedLieProbability keeps the original blend.
func (s *EnrichmentService) Enrich(ctx context.Context, sessionID, transcript string) (*model.Summary, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.Summary == nil {
		return nil, nil
	}
	summary := *session.Summary

	llmVector, err := s.weights.EmotionWeights(ctx, transcript, sessionID)
	if err != nil {
		return nil, err
	}

	alignment, err := vectormath.LLMAlignmentScore(summary.ComparisonVector, llmVector)
	if err != nil {
		return nil, err
	}
	finalScore := vectormath.FinalLieScore(summary.MicroScore, alignment)

	summary.LLMVector = llmVector
	summary.AlignmentScore = &alignment
	summary.LieProbability = finalScore

	if err := s.sessions.SetSummary(sessionID, summary); err != nil {
		return nil, err
	}

	s.log.Info("summary enriched", map[string]interface{}{
		"session_id":      sessionID,
		"alignment":       alignment,
		"lie_probability": finalScore,
	})
	return &summary, nil
}
