package gateway

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"

	"liedetect/internal/emotion"
	"liedetect/internal/model"
)

// MockGateway stands in for SageMaker during local development. The PRNG is
// seeded from the endpoint name, so repeated calls against the same endpoint
// return the same vector and score.
type MockGateway struct{}

// NewMockGateway returns a deterministic mock invoker.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Invoke generates a reproducible pseudo-random canonical vector for the
// endpoint; the lie score is the mean of the vector's components.
func (g *MockGateway) Invoke(_ context.Context, endpointName string, _ model.InvokePayload) (*model.InferenceResult, error) {
	if endpointName == "" {
		return nil, ErrEndpointRequired
	}

	h := fnv.New64a()
	h.Write([]byte(endpointName))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vector := emotion.ZeroVector()
	var total float64
	for i := range vector {
		vector[i] = math.Round(rng.Float64()*1000) / 1000
		total += vector[i]
	}
	lieScore := math.Round(total/float64(len(vector))*1000) / 1000

	return &model.InferenceResult{
		EmotionVector: vector,
		LieScore:      lieScore,
	}, nil
}
