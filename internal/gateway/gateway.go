package gateway

import (
	"context"
	"errors"
	"fmt"

	"liedetect/internal/model"
)

// ErrEndpointRequired means the caller passed an empty endpoint name. The
// orchestrator treats "not configured" as a soft default before ever calling
// the gateway, so seeing this error indicates a caller bug.
var ErrEndpointRequired = errors.New("endpoint name is required")

// ErrEmptyResponse means the backend answered without a body.
var ErrEmptyResponse = errors.New("empty response from scoring endpoint")

// ProtocolError means the backend's response body could not be parsed as an
// inference result.
type ProtocolError struct {
	Endpoint string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed response from endpoint %s: %v", e.Endpoint, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Invoker calls a named scoring backend with a session payload and returns
// its emotion vector and lie score.
type Invoker interface {
	Invoke(ctx context.Context, endpointName string, payload model.InvokePayload) (*model.InferenceResult, error)
}
