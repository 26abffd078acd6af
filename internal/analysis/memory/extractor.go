// Package memory pulls personalization facts out of free text and writes them to the session.
package memory

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/cyber-shield/backend/internal/model/chat"
)

const (
	namePrefix     = "my name is "
	interestMarker = "interested in "
)

// Kind names what the extractor did this turn.
type Kind string

const (
	KindName     Kind = "name"
	KindInterest Kind = "interest"
	KindRecall   Kind = "recall"
)

// Acknowledgement is the optional text the extractor wants shown to the user.
type Acknowledgement struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Extract scans raw input for a name or interest declaration and records it in the session.
// When neither matches it may produce a remark tying the current topic to a stored interest.
// Malformed declarations are ignored.
func Extract(raw string, session *chat.Session) (Acknowledgement, bool) {
	if session == nil {
		return Acknowledgement{}, false
	}

	input := strings.TrimSpace(raw)
	lower := strings.ToLower(input)

	if strings.HasPrefix(lower, namePrefix) {
		name := strings.TrimSpace(tail(input, lower, len(namePrefix)))
		if !chat.IsAlphabetic(name) {
			return Acknowledgement{}, false
		}
		formatted := chat.TitleCase(name)
		session.Remember(chat.MemoryName, formatted)
		return Acknowledgement{
			Kind: KindName,
			Text: fmt.Sprintf("Thank you, %s. Which cybersecurity topic interests you?", formatted),
		}, true
	}

	if idx := strings.Index(lower, interestMarker); idx >= 0 {
		topic := strings.TrimSpace(tail(input, lower, idx+len(interestMarker)))
		if topic == "" {
			return Acknowledgement{}, false
		}
		session.Remember(chat.MemoryFavoriteTopic, topic)
		return Acknowledgement{
			Kind: KindInterest,
			Text: fmt.Sprintf("Noted. I'll remember your interest in %s.", strings.ReplaceAll(topic, " ", "-")),
		}, true
	}

	return recall(session)
}

func recall(session *chat.Session) (Acknowledgement, bool) {
	name, hasName := session.Recall(chat.MemoryName)
	favorite, hasFavorite := session.Recall(chat.MemoryFavoriteTopic)
	if !hasName || !hasFavorite || !session.HasTopic() {
		return Acknowledgement{}, false
	}
	if !strings.EqualFold(session.CurrentTopic, favorite) {
		return Acknowledgement{}, false
	}
	return Acknowledgement{
		Kind: KindRecall,
		Text: fmt.Sprintf("As %s, since you're interested in %s, I can provide more details.", chat.TitleCase(name), favorite),
	}, true
}

// tail returns the part of the original input after offset, where offset was found in its
// lower-cased form. Case folding can change byte lengths for some scripts; fall back to the
// lower-cased text then.
func tail(original, lower string, offset int) string {
	if len(original) == len(lower) {
		return original[offset:]
	}
	return lower[offset:]
}
