package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/cyber-shield/backend/internal/model/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/service/dialogue"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
)

// Engine is the dialogue capability the service drives.
type Engine interface {
	StartSession(userName string) *chat.Session
	Process(ctx context.Context, session *chat.Session, raw string) (dialogue.Reply, error)
}

// entry serializes turns on one session; the engine itself never sees concurrent calls.
type entry struct {
	mu      sync.Mutex
	session *chat.Session
	closed  bool
}

// Service keeps live sessions for the network transports and records their transcripts.
type Service struct {
	engine   Engine
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[string]*entry
	messages map[string][]chat.Message
}

// NewService bootstraps the in-memory session registry.
func NewService(engine Engine) *Service {
	return &Service{
		engine:   engine,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*entry),
		messages: make(map[string][]chat.Message),
	}
}

// CreateSession validates the user name and starts a session for it.
func (s *Service) CreateSession(_ context.Context, userName string) (chat.Session, error) {
	name, err := chat.ValidateUserName(userName)
	if err != nil {
		return chat.Session{}, err
	}

	session := s.engine.StartSession(name)

	s.mu.Lock()
	s.sessions[session.ID] = &entry{session: session}
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session.Snapshot(), nil
}

// GetSession returns a snapshot of a live session.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return chat.Session{}, ErrSessionClosed
	}
	return e.session.Snapshot(), nil
}

// Converse runs one turn. Sessions that end or restart are dropped from the registry; their
// transcript stays readable.
func (s *Service) Converse(ctx context.Context, sessionID, input string) (dialogue.Reply, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return dialogue.Reply{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return dialogue.Reply{}, ErrSessionClosed
	}

	reply, err := s.engine.Process(ctx, e.session, input)
	if err != nil {
		return dialogue.Reply{}, err
	}

	s.record(sessionID, chat.Message{Sender: chat.SenderUser, Content: input, Sentiment: string(reply.Sentiment)})
	s.record(sessionID, chat.Message{Sender: chat.SenderAssistant, Content: strings.Join(reply.Lines(), "\n")})

	if reply.Terminal() {
		e.closed = true
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
	}
	return reply, nil
}

// SaveMessage appends a message to the session history.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[message.SessionID]; !ok {
		return ErrSessionNotFound
	}
	s.appendLocked(message)
	return nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// ActiveSessions counts sessions that can still take turns.
func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) lookup(sessionID string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		if _, known := s.messages[sessionID]; known {
			return nil, fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
		}
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return e, nil
}

func (s *Service) record(sessionID string, message chat.Message) {
	message.SessionID = sessionID
	s.mu.Lock()
	s.appendLocked(message)
	s.mu.Unlock()
}

func (s *Service) appendLocked(message chat.Message) {
	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now()
	}
	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
}
