package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"liedetect/internal/config"
	"liedetect/internal/logger"
	"liedetect/internal/store"
)

const systemPrompt = "You analyze transcripts for deceptive cues. Return a JSON object with emotion weights " +
	"for angry, calm, disgust, fearful, happy, neutral, sad, surprised between 0 and 1."

// EmotionWeightsService derives a sparse emotion→weight mapping from a
// transcript via a chat completion, or a fixed table in mock mode.
type EmotionWeightsService struct {
	cfg      *config.Config
	sessions *store.SessionStore
	log      *logger.Logger
	client   *openai.Client
}

// NewEmotionWeightsService builds the service. Without an API key the
// service always answers with the mock table.
func NewEmotionWeightsService(cfg *config.Config, sessions *store.SessionStore, log *logger.Logger) *EmotionWeightsService {
	svc := &EmotionWeightsService{cfg: cfg, sessions: sessions, log: log}
	if cfg.OpenAIKey != "" {
		svc.client = openai.NewClient(cfg.OpenAIKey)
	}
	return svc
}

// EmotionWeights returns the weighting for the transcript and persists it as
// the session's llmVector.
func (s *EmotionWeightsService) EmotionWeights(ctx context.Context, transcript, sessionID string) (map[string]float64, error) {
	var weights map[string]float64
	var err error
	if s.cfg.UseMockServices || s.client == nil {
		weights = mockWeights()
	} else {
		weights, err = s.invokeModel(ctx, transcript)
		if err != nil {
			return nil, err
		}
	}

	if err := s.sessions.SetLLMVector(sessionID, weights); err != nil {
		return nil, err
	}
	return weights, nil
}

func (s *EmotionWeightsService) invokeModel(ctx context.Context, transcript string) (map[string]float64, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.LieLLMModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("emotion weighting request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("emotion weighting returned no choices")
	}

	content := resp.Choices[0].Message.Content
	var weights map[string]float64
	if err := json.Unmarshal([]byte(content), &weights); err != nil {
		// Some models still wrap the object in a markdown code block.
		if err := json.Unmarshal([]byte(stripMarkdownFence(content)), &weights); err != nil {
			return nil, fmt.Errorf("failed to parse emotion weights: %w", err)
		}
	}
	return weights, nil
}

func stripMarkdownFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

func mockWeights() map[string]float64 {
	return map[string]float64{
		"angry":     0.1,
		"calm":      0.2,
		"disgust":   0.1,
		"fearful":   0.1,
		"happy":     0.2,
		"neutral":   0.2,
		"sad":       0.05,
		"surprised": 0.05,
	}
}
