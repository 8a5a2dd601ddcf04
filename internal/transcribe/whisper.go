package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"liedetect/internal/config"
	"liedetect/internal/logger"
	"liedetect/internal/model"
	"liedetect/internal/storage"
	"liedetect/internal/store"
)

// ErrNoMedia means the session has no uploaded media to transcribe.
var ErrNoMedia = errors.New("no media available for transcription")

// WhisperService transcribes a session's media through the OpenAI
// transcription API, or returns a fast placeholder in mock mode.
type WhisperService struct {
	cfg      *config.Config
	sessions *store.SessionStore
	media    *storage.MediaStorage
	log      *logger.Logger
	client   *openai.Client
}

// NewWhisperService builds the transcription service. The OpenAI client is
// nil when no API key is configured; transcription then falls back to the
// mock placeholder.
func NewWhisperService(cfg *config.Config, sessions *store.SessionStore, media *storage.MediaStorage, log *logger.Logger) *WhisperService {
	svc := &WhisperService{cfg: cfg, sessions: sessions, media: media, log: log}
	if cfg.OpenAIKey != "" {
		svc.client = openai.NewClient(cfg.OpenAIKey)
	}
	return svc
}

// Transcribe produces and stores the transcript for a session. Questioner
// media is preferred over answerer media when both were uploaded.
func (s *WhisperService) Transcribe(ctx context.Context, sessionID string) (string, error) {
	record, err := s.selectMedia(sessionID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", ErrNoMedia
	}

	var transcript string
	if s.cfg.UseMockServices || s.client == nil {
		transcript = fmt.Sprintf("[mock transcript for %s using %s]", sessionID, record.Role)
	} else {
		transcript, err = s.callWhisper(ctx, record)
		if err != nil {
			return "", err
		}
	}

	if err := s.sessions.SetTranscript(sessionID, transcript); err != nil {
		return "", err
	}

	s.log.Info("transcript generated", map[string]interface{}{
		"session_id": sessionID,
		"role":       record.Role,
		"length":     len(transcript),
	})
	return transcript, nil
}

func (s *WhisperService) selectMedia(sessionID string) (*model.MediaRecord, error) {
	for _, role := range []string{model.RoleQuestioner, model.RoleAnswerer} {
		record, err := s.sessions.GetMediaRecord(sessionID, role)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNoMedia
			}
			return nil, err
		}
		if record != nil {
			return record, nil
		}
	}
	return nil, nil
}

func (s *WhisperService) callWhisper(ctx context.Context, record *model.MediaRecord) (string, error) {
	localPath, err := s.media.EnsureLocalPath(ctx, record)
	if err != nil {
		return "", err
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.cfg.WhisperModel,
		FilePath: localPath,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
