package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// ResponseSet is the immutable answer material behind one content key.
type ResponseSet struct {
	Kind      Kind     `json:"kind"`
	Responses []string `json:"responses"`
}

// Store exposes read-only knowledge lookups to the dialogue core and the handlers.
type Store interface {
	Lookup(key string) (ResponseSet, bool)
	Keys(kind Kind) []string
	Menu() []MenuEntry
	Statistics() Block
	Resources() Block
}

// MemoryStore implements Store over content held in memory. It is never mutated after
// construction.
type MemoryStore struct {
	sets       map[string]ResponseSet
	menu       []MenuEntry
	statistics Block
	resources  Block
}

// NewMemoryStore copies the supplied content into a MemoryStore.
func NewMemoryStore(content *Content) *MemoryStore {
	s := &MemoryStore{sets: make(map[string]ResponseSet)}
	if content == nil {
		return s
	}

	for key, responses := range content.Topics {
		s.sets[key] = ResponseSet{Kind: KindTopic, Responses: append([]string(nil), responses...)}
	}
	for key, response := range content.Keywords {
		s.sets[key] = ResponseSet{Kind: KindKeyword, Responses: []string{response}}
	}
	for key, responses := range content.Phrases {
		s.sets[key] = ResponseSet{Kind: KindPhrase, Responses: append([]string(nil), responses...)}
	}

	s.menu = append([]MenuEntry(nil), content.Menu...)
	s.statistics = copyBlock(content.Statistics)
	s.resources = copyBlock(content.Resources)
	return s
}

// Lookup returns the response set registered for key.
func (s *MemoryStore) Lookup(key string) (ResponseSet, bool) {
	set, ok := s.sets[key]
	if !ok {
		return ResponseSet{}, false
	}
	return ResponseSet{Kind: set.Kind, Responses: append([]string(nil), set.Responses...)}, true
}

// Keys lists the keys of one kind in lexical order.
func (s *MemoryStore) Keys(kind Kind) []string {
	keys := make([]string, 0, len(s.sets))
	for key, set := range s.sets {
		if set.Kind == kind {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Menu returns the menu entries in declaration order.
func (s *MemoryStore) Menu() []MenuEntry {
	return append([]MenuEntry(nil), s.menu...)
}

// Statistics returns the static statistics block.
func (s *MemoryStore) Statistics() Block {
	return copyBlock(s.statistics)
}

// Resources returns the static resources block shown when a session ends.
func (s *MemoryStore) Resources() Block {
	return copyBlock(s.resources)
}

// Validate reports menu topics that have no content behind them.
func Validate(store Store) error {
	var missing []string
	for _, entry := range store.Menu() {
		if entry.Topic == "" {
			continue
		}
		if set, ok := store.Lookup(entry.Topic); !ok || len(set.Responses) == 0 {
			missing = append(missing, fmt.Sprintf("%s->%s", entry.Code, entry.Topic))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("menu references unknown topics: %s", strings.Join(missing, ", "))
	}
	return nil
}

func copyBlock(b Block) Block {
	return Block{Title: b.Title, Lines: append([]string(nil), b.Lines...)}
}

// Open builds a validated store from path, or from the embedded content when path is empty.
func Open(path string) (*MemoryStore, error) {
	var (
		content *Content
		err     error
	)
	if path == "" {
		content, err = Default()
	} else {
		content, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	store := NewMemoryStore(content)
	if err := Validate(store); err != nil {
		return nil, err
	}
	return store, nil
}
