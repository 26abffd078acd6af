package intent

import (
	"strings"

	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
)

// Kind classifies a resolved turn.
type Kind string

const (
	KindTopic        Kind = "topic"
	KindKeyword      Kind = "keyword"
	KindPhrase       Kind = "phrase"
	KindControl      Kind = "control"
	KindUnrecognized Kind = "unrecognized"
)

// Intent is the resolved meaning of one user turn.
type Intent struct {
	Kind Kind `json:"kind"`
	// Key is the content key for topic, keyword and phrase intents.
	Key    string           `json:"key,omitempty"`
	Action knowledge.Action `json:"action,omitempty"`
	// Menu is set when the intent came from a numeric menu code.
	Menu bool `json:"menu,omitempty"`
	// Raw carries the untouched input of unrecognized turns for diagnostics.
	Raw string `json:"raw,omitempty"`
}

// Catalog is the subset of the knowledge store the resolver needs.
type Catalog interface {
	Lookup(key string) (knowledge.ResponseSet, bool)
	Menu() []knowledge.MenuEntry
}

// Control words accepted outside the menu table.
var controlWords = map[string]knowledge.Action{
	"exit": knowledge.ActionTerminate,
	"7":    knowledge.ActionStatistics,
	"8":    knowledge.ActionTerminate,
	"9":    knowledge.ActionNewSession,
}

// Resolver maps normalized input to an Intent using exact matching only.
type Resolver struct {
	catalog Catalog
	menu    map[string]knowledge.MenuEntry
}

// NewResolver indexes the catalog menu once; the catalog is treated as immutable.
func NewResolver(catalog Catalog) *Resolver {
	entries := catalog.Menu()
	menu := make(map[string]knowledge.MenuEntry, len(entries))
	for _, entry := range entries {
		menu[entry.Code] = entry
	}
	return &Resolver{catalog: catalog, menu: menu}
}

// Normalize trims surrounding whitespace and folds case. It is idempotent.
func Normalize(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Resolve classifies normalized input; raw is echoed back on unrecognized turns.
func (r *Resolver) Resolve(normalized, raw string) Intent {
	if entry, ok := r.menu[normalized]; ok {
		if entry.Action != "" {
			return Intent{Kind: KindControl, Action: entry.Action, Menu: true}
		}
		if it, ok := r.lookup(entry.Topic); ok {
			it.Menu = true
			return it
		}
		// A menu code pointing at missing content fails closed.
		return Intent{Kind: KindUnrecognized, Raw: raw}
	}

	if it, ok := r.lookup(normalized); ok {
		return it
	}

	if action, ok := controlWords[normalized]; ok {
		return Intent{Kind: KindControl, Action: action}
	}

	return Intent{Kind: KindUnrecognized, Raw: raw}
}

func (r *Resolver) lookup(key string) (Intent, bool) {
	if key == "" {
		return Intent{}, false
	}
	set, ok := r.catalog.Lookup(key)
	if !ok || len(set.Responses) == 0 {
		return Intent{}, false
	}

	switch set.Kind {
	case knowledge.KindTopic:
		return Intent{Kind: KindTopic, Key: key}, true
	case knowledge.KindKeyword:
		return Intent{Kind: KindKeyword, Key: key}, true
	case knowledge.KindPhrase:
		return Intent{Kind: KindPhrase, Key: key}, true
	default:
		return Intent{}, false
	}
}

// IsTopic reports whether the intent names a full topic, which is what moves the current topic.
func (i Intent) IsTopic() bool {
	return i.Kind == KindTopic
}

// IsContent reports whether the intent is answered from the knowledge store.
func (i Intent) IsContent() bool {
	return i.Kind == KindTopic || i.Kind == KindKeyword || i.Kind == KindPhrase
}
