package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Memory keys written by the extractor.
const (
	MemoryName          = "name"
	MemoryFavoriteTopic = "favoriteTopic"
)

const (
	minUserNameLen = 3
	maxUserNameLen = 20
)

var (
	ErrNameTooShort      = errors.New("name must be at least 3 characters")
	ErrNameTooLong       = errors.New("name must be at most 20 characters")
	ErrNameNotAlphabetic = errors.New("only letters are allowed")
)

// Session captures one continuous conversation with the assistant. It is owned by whoever
// drives the dialogue engine and is never shared between goroutines.
type Session struct {
	ID           string            `json:"id"`
	UserName     string            `json:"userName"`
	QueryCount   int               `json:"queryCount"`
	StartTime    time.Time         `json:"startTime"`
	CurrentTopic string            `json:"currentTopic,omitempty"`
	Memory       map[string]string `json:"memory"`
}

// NewSession starts a session for an already validated user name.
func NewSession(userName string, startedAt time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserName:  userName,
		StartTime: startedAt,
		Memory:    make(map[string]string),
	}
}

// Remember stores a personalization fact.
func (s *Session) Remember(key, value string) {
	if s.Memory == nil {
		s.Memory = make(map[string]string)
	}
	s.Memory[key] = value
}

// Recall returns a stored personalization fact.
func (s *Session) Recall(key string) (string, bool) {
	value, ok := s.Memory[key]
	return value, ok
}

// HasTopic reports whether a topic-bearing query has been answered in this session.
func (s *Session) HasTopic() bool {
	return s.CurrentTopic != ""
}

// Elapsed returns the whole minutes between the session start and now.
func (s *Session) Elapsed(now time.Time) int {
	d := now.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Snapshot returns a copy that is safe to hand to encoders while the original keeps changing.
func (s *Session) Snapshot() Session {
	cp := *s
	cp.Memory = make(map[string]string, len(s.Memory))
	for k, v := range s.Memory {
		cp.Memory[k] = v
	}
	return cp
}

// ValidateUserName trims the input and checks the 3-20 letters rule, returning the name in
// title case.
func ValidateUserName(input string) (string, error) {
	name := strings.TrimSpace(input)
	n := utf8.RuneCountInString(name)
	if n < minUserNameLen {
		return "", ErrNameTooShort
	}
	if n > maxUserNameLen {
		return "", ErrNameTooLong
	}
	if !IsAlphabetic(name) {
		return "", ErrNameNotAlphabetic
	}
	return TitleCase(name), nil
}

// IsAlphabetic reports whether s is non-empty and made of letters only.
func IsAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// TitleCase upper-cases the first rune and lower-cases the rest.
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return fmt.Sprintf("%c%s", unicode.ToUpper(first), strings.ToLower(s[size:]))
}
