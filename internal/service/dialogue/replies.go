package dialogue

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/cyber-shield/backend/internal/analysis/intent"
	"github.com/zhouzirui/cyber-shield/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
)

// Outcome is where a turn left the session state machine.
type Outcome string

const (
	OutcomeResponded    Outcome = "responded"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeStatistics   Outcome = "statistics"
	OutcomeEnding       Outcome = "ending"
	OutcomeRestarting   Outcome = "restarting"
)

// Summary is shown when a session is terminated.
type Summary struct {
	UserName string    `json:"userName"`
	Minutes  int       `json:"minutes"`
	Queries  int       `json:"queries"`
	EndedAt  time.Time `json:"endedAt"`
}

// Reply is everything one turn produced, in display order when flattened by Lines.
type Reply struct {
	Outcome         Outcome          `json:"outcome"`
	Intent          intent.Intent    `json:"intent"`
	Sentiment       sentiment.Label  `json:"sentiment"`
	Acknowledgement string           `json:"acknowledgement,omitempty"`
	Heading         string           `json:"heading,omitempty"`
	Response        string           `json:"response,omitempty"`
	Guidance        string           `json:"guidance,omitempty"`
	FollowUp        string           `json:"followUp,omitempty"`
	Statistics      *knowledge.Block `json:"statistics,omitempty"`
	Summary         *Summary         `json:"summary,omitempty"`
	Resources       *knowledge.Block `json:"resources,omitempty"`
	Suggestion      string           `json:"suggestion,omitempty"`
}

// Terminal reports whether the session is over after this reply.
func (r Reply) Terminal() bool {
	return r.Outcome == OutcomeEnding || r.Outcome == OutcomeRestarting
}

// Lines flattens the reply into plain text lines.
func (r Reply) Lines() []string {
	var lines []string
	add := func(s string) {
		if s != "" {
			lines = append(lines, s)
		}
	}

	add(r.Acknowledgement)
	add(r.Heading)
	add(r.Response)
	add(r.Guidance)
	add(r.FollowUp)
	if r.Statistics != nil {
		add(r.Statistics.Title)
		lines = append(lines, r.Statistics.Lines...)
	}
	if r.Summary != nil {
		lines = append(lines, r.Summary.Lines()...)
	}
	if r.Resources != nil {
		add(r.Resources.Title)
		lines = append(lines, r.Resources.Lines...)
	}
	add(r.Suggestion)
	return lines
}

// Lines renders the summary block.
func (s Summary) Lines() []string {
	return []string{
		fmt.Sprintf("Session Statistics for %s:", s.UserName),
		fmt.Sprintf("Duration: %d minutes", s.Minutes),
		fmt.Sprintf("Queries: %d", s.Queries),
	}
}

const (
	neutralContactLine = "For more help, contact info@cybersec.gov.za."
	genericTopicPrompt = "Try asking about a topic like 'phishing' or 'malware'."
	defaultSuggestion  = "Try another topic like 'firewall' or 'encryption'."
	apologyLine        = "Sorry, I couldn't find that information right now. Please try another topic."
)

// Follow-ups after a question was answered.
var resolvedFollowUps = map[sentiment.Label]string{
	sentiment.Worried:    "I understand your concern. Would you like more security tips?",
	sentiment.Curious:    "Great to see your interest! Want to explore this topic further?",
	sentiment.Frustrated: "I'm sorry for any confusion. Need further clarification?",
	sentiment.Angry:      "I'm sorry if something upset you. How can I assist you now?",
	sentiment.Happy:      "I'm glad you're pleased! What else can I help with?",
	sentiment.Neutral:    neutralContactLine,
}

// Follow-ups after input that matched nothing. Neutral is computed from the session.
var unknownFollowUps = map[sentiment.Label]string{
	sentiment.Worried:    "I'm here to help. What concerns you?",
	sentiment.Curious:    "Let's find the right info. What do you want to learn?",
	sentiment.Frustrated: "Sorry for the trouble. Let's try again - how can I assist?",
	sentiment.Angry:      "I'm sorry if something upset you. How can I assist you now?",
	sentiment.Happy:      "I'm glad you're pleased! What else can I help with?",
}

var topicSuggestions = map[string]string{
	"phishing": "Try 'phishing tip' for more specific advice.",
	"malware":  "Try 'malware protection' for detailed tips.",
	"social":   "Try 'social engineering tip' for practical advice.",
	"wifi":     "Try 'vpn' for more on securing your connection.",
}

func resolvedFollowUp(label sentiment.Label) string {
	if line, ok := resolvedFollowUps[label]; ok {
		return line
	}
	return neutralContactLine
}

func unknownFollowUp(label sentiment.Label, session *chat.Session) string {
	if line, ok := unknownFollowUps[label]; ok {
		return line
	}
	if session.HasTopic() {
		return fmt.Sprintf("You were asking about %s. Would you like to continue with that?", session.CurrentTopic)
	}
	return genericTopicPrompt
}

func suggestionFor(topic string) string {
	text, ok := topicSuggestions[topic]
	if !ok {
		text = defaultSuggestion
	}
	return "Suggestion: " + text
}

func heading(key string) string {
	return fmt.Sprintf("=== %s INFORMATION ===", strings.ToUpper(key))
}

// guidanceLine lists example keywords and the menu range of the loaded content.
func guidanceLine(menu []knowledge.MenuEntry) string {
	line := "I can't process that input. Try keywords like 'phishing', 'malware', 'password', 'firewall'"
	if len(menu) == 0 {
		return line + "."
	}
	return fmt.Sprintf("%s, or a menu option (%s-%s).", line, menu[0].Code, menu[len(menu)-1].Code)
}
