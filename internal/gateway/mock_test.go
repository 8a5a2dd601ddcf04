package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liedetect/internal/emotion"
	"liedetect/internal/model"
)

func TestMockGateway_Deterministic(t *testing.T) {
	g := NewMockGateway()
	payload := model.InvokePayload{SessionID: "s1", VideoKey: "k", Role: model.RoleAnswerer}

	first, err := g.Invoke(context.Background(), "audio-endpoint", payload)
	require.NoError(t, err)
	second, err := g.Invoke(context.Background(), "audio-endpoint", payload)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.EmotionVector, emotion.Count)
}

func TestMockGateway_VariesByEndpoint(t *testing.T) {
	g := NewMockGateway()
	payload := model.InvokePayload{SessionID: "s1"}

	audio, err := g.Invoke(context.Background(), "audio-endpoint", payload)
	require.NoError(t, err)
	macro, err := g.Invoke(context.Background(), "macro-endpoint", payload)
	require.NoError(t, err)

	assert.NotEqual(t, audio.EmotionVector, macro.EmotionVector)
}

func TestMockGateway_EmptyEndpoint(t *testing.T) {
	g := NewMockGateway()
	_, err := g.Invoke(context.Background(), "", model.InvokePayload{})
	assert.ErrorIs(t, err, ErrEndpointRequired)
}
