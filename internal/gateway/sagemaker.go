package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	"liedetect/internal/model"
)

// SageMakerGateway invokes scoring models deployed as SageMaker endpoints.
type SageMakerGateway struct {
	runtime *sagemakerruntime.Client
}

// NewSageMakerGateway builds a gateway for the given region using the default
// AWS credential chain.
func NewSageMakerGateway(ctx context.Context, region string) (*SageMakerGateway, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SageMakerGateway{runtime: sagemakerruntime.NewFromConfig(cfg)}, nil
}

// Invoke posts the payload as JSON to the named endpoint and decodes the
// inference result from the response body.
func (g *SageMakerGateway) Invoke(ctx context.Context, endpointName string, payload model.InvokePayload) (*model.InferenceResult, error) {
	if endpointName == "" {
		return nil, ErrEndpointRequired
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", endpointName, err)
	}

	out, err := g.runtime.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(endpointName),
		ContentType:  aws.String("application/json"),
		Body:         body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke endpoint %s: %w", endpointName, err)
	}

	if len(out.Body) == 0 {
		return nil, ErrEmptyResponse
	}

	var result model.InferenceResult
	if err := json.Unmarshal(out.Body, &result); err != nil {
		return nil, &ProtocolError{Endpoint: endpointName, Err: err}
	}
	return &result, nil
}
