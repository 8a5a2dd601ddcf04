package vectormath

import (
	"fmt"
	"math"

	"liedetect/internal/emotion"
)

// DimensionMismatchError reports a vector whose length does not match the
// canonical emotion schema. It signals a contract violation between
// components, not a recoverable input problem.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector length %d does not match canonical emotion schema (%d)", e.Got, e.Want)
}

// DefaultWeights is the audio/macro/micro blend used by FuseLieScores when
// the caller does not supply its own. Audio and macro count equally, micro
// slightly less.
var DefaultWeights = [3]float64{0.35, 0.35, 0.30}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// AverageVectors returns the component-wise arithmetic mean of the given
// canonical-length vectors, rounded to 4 decimals. An empty input yields the
// zero vector.
func AverageVectors(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return emotion.ZeroVector(), nil
	}
	totals := emotion.ZeroVector()
	for _, vec := range vectors {
		if len(vec) != emotion.Count {
			return nil, &DimensionMismatchError{Want: emotion.Count, Got: len(vec)}
		}
		for i, v := range vec {
			totals[i] += v
		}
	}
	count := float64(len(vectors))
	for i := range totals {
		totals[i] = round4(totals[i] / count)
	}
	return totals, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, rounded
// to 4 decimals. A zero-norm vector yields 0.0 rather than NaN.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Want: len(a), Got: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0, nil
	}
	return round4(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// FuseLieScores blends the three backend lie scores into one probability.
// The weights are normalized to sum to 1 before blending, so callers passing
// an unnormalized triple still get a convex combination.
func FuseLieScores(audio, macro, micro float64, weights ...[3]float64) float64 {
	w := DefaultWeights
	if len(weights) > 0 {
		w = weights[0]
	}
	total := w[0] + w[1] + w[2]
	fused := audio*(w[0]/total) + macro*(w[1]/total) + micro*(w[2]/total)
	return round4(fused)
}

// LLMAlignmentScore densifies the sparse emotion→weight mapping into
// canonical order (missing emotions contribute 0) and returns its cosine
// similarity against the fused comparison vector.
func LLMAlignmentScore(comparison []float64, llmWeights map[string]float64) (float64, error) {
	dense := emotion.ZeroVector()
	for i, name := range emotion.Canonical {
		dense[i] = llmWeights[name]
	}
	return CosineSimilarity(comparison, dense)
}

// FinalLieScore averages the transcript mismatch with the micro-expression
// model's own estimate. Alignment is clamped below at 0 first, so a strongly
// anti-aligned transcript counts the same as an unaligned one.
func FinalLieScore(microScore, alignmentScore float64) float64 {
	mismatch := 1 - math.Max(alignmentScore, 0)
	return round4((mismatch + microScore) / 2)
}
