package sentiment

import "strings"

// Label is the coarse tone inferred from a user utterance.
type Label string

const (
	Worried    Label = "worried"
	Curious    Label = "curious"
	Frustrated Label = "frustrated"
	Angry      Label = "angry"
	Happy      Label = "happy"
	Neutral    Label = "neutral"
)

// Labels lists every label, highest priority first, with Neutral last.
var Labels = []Label{Worried, Curious, Frustrated, Angry, Happy, Neutral}

type bucket struct {
	label    Label
	keywords []string
}

// Buckets are scanned in order; the first bucket with any matching keyword wins.
var keywordBuckets = []bucket{
	{Worried, []string{"worried", "anxious", "scared", "concerned", "nervous"}},
	{Curious, []string{"curious", "interested", "want to know", "wondering"}},
	{Frustrated, []string{"frustrated", "confused", "difficult", "stuck"}},
	{Angry, []string{"angry", "upset", "annoyed", "irritated"}},
	{Happy, []string{"happy", "glad", "pleased", "excited"}},
}

// Classify maps text to a label by keyword presence. Matching is case-insensitive substring
// containment, so "unhappy" still counts as happy.
func Classify(text string) Label {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return Neutral
	}

	for _, b := range keywordBuckets {
		for _, word := range b.keywords {
			if strings.Contains(normalized, word) {
				return b.label
			}
		}
	}
	return Neutral
}

// Keywords returns a copy of the keyword set for label, nil for Neutral.
func Keywords(label Label) []string {
	for _, b := range keywordBuckets {
		if b.label == label {
			return append([]string(nil), b.keywords...)
		}
	}
	return nil
}

// Valid reports whether label belongs to the closed label set.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}
