package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

var (
	ErrDuplicateKey = errors.New("duplicate knowledge key")
	ErrInvalidMenu  = errors.New("invalid menu entry")
)

// Kind tells which table a content key came from.
type Kind string

const (
	KindTopic   Kind = "topic"
	KindKeyword Kind = "keyword"
	KindPhrase  Kind = "phrase"
)

// Action is a control command reachable from the menu.
type Action string

const (
	ActionStatistics Action = "statistics"
	ActionTerminate  Action = "terminate"
	ActionNewSession Action = "new-session"
)

// MenuEntry maps a numeric menu code to either a topic key or a control action.
type MenuEntry struct {
	Code   string `yaml:"code" json:"code"`
	Label  string `yaml:"label" json:"label"`
	Topic  string `yaml:"topic,omitempty" json:"topic,omitempty"`
	Action Action `yaml:"action,omitempty" json:"action,omitempty"`
}

// Block is a titled run of static lines, used for statistics and resources.
type Block struct {
	Title string   `yaml:"title" json:"title"`
	Lines []string `yaml:"lines" json:"lines"`
}

// Content is the raw knowledge document as delivered by configuration.
type Content struct {
	Topics     map[string][]string `yaml:"topics"`
	Keywords   map[string]string   `yaml:"keywords"`
	Phrases    map[string][]string `yaml:"phrases"`
	Menu       []MenuEntry         `yaml:"menu"`
	Statistics Block               `yaml:"statistics"`
	Resources  Block               `yaml:"resources"`
}

// Default returns the content bundled with the binary.
func Default() (*Content, error) {
	return Parse(defaultContent)
}

// LoadFile reads a knowledge document from disk.
func LoadFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML knowledge document. Keys are folded to lower case so they line up with
// normalized user input.
func Parse(data []byte) (*Content, error) {
	var raw Content
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge content: %w", err)
	}

	content := &Content{
		Topics:     make(map[string][]string, len(raw.Topics)),
		Keywords:   make(map[string]string, len(raw.Keywords)),
		Phrases:    make(map[string][]string, len(raw.Phrases)),
		Statistics: raw.Statistics,
		Resources:  raw.Resources,
	}

	seen := make(map[string]Kind)
	claim := func(key string, kind Kind) (string, error) {
		normalized := foldKey(key)
		if normalized == "" {
			return "", fmt.Errorf("%w: empty %s key", ErrDuplicateKey, kind)
		}
		if prev, ok := seen[normalized]; ok {
			return "", fmt.Errorf("%w: %q declared as %s and %s", ErrDuplicateKey, normalized, prev, kind)
		}
		seen[normalized] = kind
		return normalized, nil
	}

	for key, responses := range raw.Topics {
		normalized, err := claim(key, KindTopic)
		if err != nil {
			return nil, err
		}
		content.Topics[normalized] = responses
	}
	for key, response := range raw.Keywords {
		normalized, err := claim(key, KindKeyword)
		if err != nil {
			return nil, err
		}
		content.Keywords[normalized] = response
	}
	for key, responses := range raw.Phrases {
		normalized, err := claim(key, KindPhrase)
		if err != nil {
			return nil, err
		}
		content.Phrases[normalized] = responses
	}

	codes := make(map[string]struct{}, len(raw.Menu))
	for _, entry := range raw.Menu {
		entry.Code = strings.TrimSpace(entry.Code)
		entry.Topic = foldKey(entry.Topic)
		if entry.Code == "" {
			return nil, fmt.Errorf("%w: missing code", ErrInvalidMenu)
		}
		if _, dup := codes[entry.Code]; dup {
			return nil, fmt.Errorf("%w: code %q declared twice", ErrInvalidMenu, entry.Code)
		}
		codes[entry.Code] = struct{}{}

		if (entry.Topic == "") == (entry.Action == "") {
			return nil, fmt.Errorf("%w: code %q needs exactly one of topic or action", ErrInvalidMenu, entry.Code)
		}
		switch entry.Action {
		case "", ActionStatistics, ActionTerminate, ActionNewSession:
		default:
			return nil, fmt.Errorf("%w: code %q has unknown action %q", ErrInvalidMenu, entry.Code, entry.Action)
		}
		content.Menu = append(content.Menu, entry)
	}

	return content, nil
}

func foldKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
