package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"liedetect/internal/model"
)

// ErrNotFound is returned by Get when no session document exists for the id.
var ErrNotFound = errors.New("session not found")

// SessionStore persists one JSON document per session id under root.
//
// Every mutation runs as a load-merge-store cycle inside a per-session
// critical section, so two concurrent mutations on different fields of the
// same session cannot lose each other's writes. Sessions are independent;
// there is no cross-session locking.
type SessionStore struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionStore creates the store, making root if needed.
func NewSessionStore(root string) (*SessionStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session store root: %w", err)
	}
	return &SessionStore{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *SessionStore) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

func (s *SessionStore) path(sessionID string) string {
	return filepath.Join(s.root, sessionID+".json")
}

// load reads the session document, synthesizing a fresh unsaved shell when
// none exists yet. Callers hold the session lock.
func (s *SessionStore) load(sessionID string) (*model.Session, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return &model.Session{
			SessionID: sessionID,
			Media:     make(map[string]model.MediaRecord),
			CreatedAt: time.Now().UTC(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	if session.Media == nil {
		session.Media = make(map[string]model.MediaRecord)
	}
	return &session, nil
}

func (s *SessionStore) save(session *model.Session) error {
	session.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.SessionID, err)
	}
	if err := os.WriteFile(s.path(session.SessionID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write session %s: %w", session.SessionID, err)
	}
	return nil
}

// update is the single mutation primitive: lock, load, mutate, save.
func (s *SessionStore) update(sessionID string, mutate func(*model.Session)) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.load(sessionID)
	if err != nil {
		return err
	}
	mutate(session)
	return s.save(session)
}

// Get returns the stored session, or ErrNotFound if it was never mutated.
func (s *SessionStore) Get(sessionID string) (*model.Session, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(s.path(sessionID)); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return s.load(sessionID)
}

// UpdateMedia upserts the media record for a role, replacing any previous
// record for that role wholesale.
func (s *SessionStore) UpdateMedia(sessionID, role string, record model.MediaRecord) error {
	return s.update(sessionID, func(session *model.Session) {
		session.Media[role] = record
	})
}

// UpdateMediaPath patches only the localPath of the role's existing record,
// after a lazy cache download. Other fields are left untouched.
func (s *SessionStore) UpdateMediaPath(record model.MediaRecord) error {
	return s.update(record.SessionID, func(session *model.Session) {
		entry, ok := session.Media[record.Role]
		if !ok {
			entry = model.MediaRecord{SessionID: record.SessionID, Role: record.Role}
		}
		entry.LocalPath = record.LocalPath
		session.Media[record.Role] = entry
	})
}

// SetTranscript replaces the session transcript.
func (s *SessionStore) SetTranscript(sessionID, transcript string) error {
	return s.update(sessionID, func(session *model.Session) {
		session.Transcript = transcript
	})
}

// SetSummary replaces the session summary.
func (s *SessionStore) SetSummary(sessionID string, summary model.Summary) error {
	return s.update(sessionID, func(session *model.Session) {
		session.Summary = &summary
	})
}

// SetLLMVector replaces the transcript-derived emotion weighting.
func (s *SessionStore) SetLLMVector(sessionID string, vector map[string]float64) error {
	return s.update(sessionID, func(session *model.Session) {
		session.LLMVector = vector
	})
}

// GetMediaRecord returns the media record for a role, or (nil, nil) when the
// session exists without that role. Unknown sessions yield ErrNotFound.
func (s *SessionStore) GetMediaRecord(sessionID, role string) (*model.MediaRecord, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	entry, ok := session.Media[role]
	if !ok {
		return nil, nil
	}
	if entry.SessionID == "" {
		entry.SessionID = sessionID
	}
	if entry.Role == "" {
		entry.Role = role
	}
	if entry.ContentType == "" {
		entry.ContentType = "video/mp4"
	}
	return &entry, nil
}
