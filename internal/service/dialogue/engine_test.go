package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/cyber-shield/backend/internal/analysis/intent"
	"github.com/zhouzirui/cyber-shield/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
)

var startTime = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

type fixedRandom int

func (f fixedRandom) IntN(n int) int { return int(f) % n }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func defaultStore(t *testing.T) knowledge.Store {
	t.Helper()
	content, err := knowledge.Default()
	require.NoError(t, err)
	return knowledge.NewMemoryStore(content)
}

func newTestEngine(t *testing.T, store knowledge.Store) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: startTime}
	engine, err := NewEngine(context.Background(), store, WithClock(clock.Now), WithRandom(fixedRandom(0)))
	require.NoError(t, err)
	return engine, clock
}

func process(t *testing.T, e *Engine, s *chat.Session, input string) Reply {
	t.Helper()
	reply, err := e.Process(context.Background(), s, input)
	require.NoError(t, err)
	return reply
}

func TestMenuChoiceAnswersTopic(t *testing.T) {
	store := defaultStore(t)
	engine, _ := newTestEngine(t, store)
	session := engine.StartSession("Alice")

	reply := process(t, engine, session, "1")

	assert.Equal(t, OutcomeResponded, reply.Outcome)
	assert.Equal(t, 1, session.QueryCount)
	assert.Equal(t, "phishing", session.CurrentTopic)
	assert.Equal(t, "=== PHISHING INFORMATION ===", reply.Heading)

	set, _ := store.Lookup("phishing")
	assert.Contains(t, set.Responses, reply.Response)
	assert.Equal(t, "Suggestion: Try 'phishing tip' for more specific advice.", reply.Suggestion)
	assert.Contains(t, reply.Suggestion, "phishing tip")
	assert.Equal(t, neutralContactLine, reply.FollowUp)
}

func TestUnrecognizedInput(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	reply := process(t, engine, session, "blah")

	assert.Equal(t, OutcomeUnrecognized, reply.Outcome)
	assert.Equal(t, 1, session.QueryCount)
	assert.False(t, session.HasTopic())
	assert.Equal(t, "blah", reply.Intent.Raw)
	assert.Equal(t, "I can't process that input. Try keywords like 'phishing', 'malware', 'password', 'firewall', or a menu option (1-9).", reply.Guidance)
	assert.Equal(t, genericTopicPrompt, reply.FollowUp)
	assert.Empty(t, reply.Suggestion)
}

func TestUnrecognizedKeepsCurrentTopic(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")
	process(t, engine, session, "malware")

	reply := process(t, engine, session, "what now")

	assert.Equal(t, "malware", session.CurrentTopic)
	assert.Equal(t, "You were asking about malware. Would you like to continue with that?", reply.FollowUp)
	assert.Equal(t, "Suggestion: Try 'malware protection' for detailed tips.", reply.Suggestion)
}

func TestUnrecognizedUsesDistinctFollowUps(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	worried := process(t, engine, session, "I am worried")
	assert.Equal(t, sentiment.Worried, worried.Sentiment)
	assert.Equal(t, "I'm here to help. What concerns you?", worried.FollowUp)
	assert.NotEqual(t, resolvedFollowUps[sentiment.Worried], worried.FollowUp)

	angry := process(t, engine, session, "so annoyed")
	assert.Equal(t, resolvedFollowUps[sentiment.Angry], angry.FollowUp)
}

func TestResolvedFollowUpBySentiment(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	// No default key contains a sentiment keyword, so the table is checked directly.
	for label, want := range resolvedFollowUps {
		assert.Equal(t, want, resolvedFollowUp(label))
	}
	assert.Equal(t, neutralContactLine, resolvedFollowUp(sentiment.Label("bogus")))

	reply := process(t, engine, session, "VPN")
	assert.Equal(t, sentiment.Neutral, reply.Sentiment)
	assert.Equal(t, neutralContactLine, reply.FollowUp)
}

func TestTerminateSummarizesSession(t *testing.T) {
	for _, input := range []string{"8", "exit", "  EXIT "} {
		t.Run(input, func(t *testing.T) {
			engine, clock := newTestEngine(t, defaultStore(t))
			session := engine.StartSession("Alice")
			process(t, engine, session, "1")
			process(t, engine, session, "password")

			clock.now = startTime.Add(12*time.Minute + 40*time.Second)
			reply := process(t, engine, session, input)

			assert.Equal(t, OutcomeEnding, reply.Outcome)
			assert.True(t, reply.Terminal())
			require.NotNil(t, reply.Summary)
			assert.Equal(t, Summary{UserName: "Alice", Minutes: 12, Queries: 2, EndedAt: clock.now}, *reply.Summary)
			require.NotNil(t, reply.Resources)
			assert.Contains(t, reply.Resources.Lines, "Emergency Contact: 0800-CYBER-SA (0800-29237-72)")
			assert.Equal(t, 2, session.QueryCount, "terminate is not a query")
		})
	}
}

func TestNewSessionRestarts(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	reply := process(t, engine, session, "9")

	assert.Equal(t, OutcomeRestarting, reply.Outcome)
	assert.True(t, reply.Terminal())
	assert.Nil(t, reply.Summary)
	assert.Equal(t, 0, session.QueryCount)
}

// Open question (a): viewing statistics is a control command and does not count as a query.
func TestStatisticsIsNotCountedAsQuery(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	reply := process(t, engine, session, "7")

	assert.Equal(t, OutcomeStatistics, reply.Outcome)
	require.NotNil(t, reply.Statistics)
	assert.Contains(t, reply.Statistics.Lines, "Total Incidents Analyzed: 74")
	assert.Equal(t, 0, session.QueryCount)
	assert.Empty(t, reply.Suggestion)

	process(t, engine, session, "wifi")
	reply = process(t, engine, session, "7")
	assert.Equal(t, 1, session.QueryCount)
	assert.Equal(t, "Suggestion: Try 'vpn' for more on securing your connection.", reply.Suggestion)
}

// Open question (b): only full topic keys move the current topic.
func TestKeywordAndPhraseKeepCurrentTopic(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	reply := process(t, engine, session, "password")
	assert.Equal(t, intent.KindKeyword, reply.Intent.Kind)
	assert.False(t, session.HasTopic())
	assert.Equal(t, "Suggestion: "+defaultSuggestion, reply.Suggestion)

	process(t, engine, session, "social")
	reply = process(t, engine, session, "phishing tip")
	assert.Equal(t, intent.KindPhrase, reply.Intent.Kind)
	assert.Equal(t, "=== PHISHING TIP INFORMATION ===", reply.Heading)
	assert.Equal(t, "social", session.CurrentTopic)
	assert.Equal(t, "Suggestion: Try 'social engineering tip' for practical advice.", reply.Suggestion)
	assert.Equal(t, 3, session.QueryCount)
}

// Open question (c): the menu has nine options, 1-6 topics and 7-9 control commands.
func TestNineOptionMenu(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	for _, code := range []string{"1", "2", "3", "4", "5", "6"} {
		reply := process(t, engine, session, code)
		assert.Equal(t, OutcomeResponded, reply.Outcome, code)
		assert.True(t, reply.Intent.Menu)
	}
	assert.Equal(t, OutcomeStatistics, process(t, engine, session, "7").Outcome)
	assert.Equal(t, OutcomeUnrecognized, process(t, engine, session, "10").Outcome)
}

func TestDefaultSuggestionForUnmappedTopic(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	reply := process(t, engine, session, "5")
	assert.Equal(t, "purpose", session.CurrentTopic)
	assert.Equal(t, "Suggestion: "+defaultSuggestion, reply.Suggestion)
}

func TestMemoryAcknowledgementAndRecall(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	reply := process(t, engine, session, "my name is bob")
	assert.Equal(t, "Thank you, Bob. Which cybersecurity topic interests you?", reply.Acknowledgement)
	assert.Equal(t, OutcomeUnrecognized, reply.Outcome)

	reply = process(t, engine, session, "I am interested in wifi")
	assert.Equal(t, "Noted. I'll remember your interest in wifi.", reply.Acknowledgement)
	assert.Equal(t, sentiment.Curious, reply.Sentiment)
	assert.Equal(t, "Let's find the right info. What do you want to learn?", reply.FollowUp)

	reply = process(t, engine, session, "3")
	assert.Empty(t, reply.Acknowledgement, "recall looks at the topic before this turn")

	reply = process(t, engine, session, "vpn")
	assert.Equal(t, "As Bob, since you're interested in wifi, I can provide more details.", reply.Acknowledgement)
	assert.Equal(t, 4, session.QueryCount)
}

func TestReplyLinesOrder(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")

	lines := process(t, engine, session, "2").Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, "=== MALWARE INFORMATION ===", lines[0])
	assert.Equal(t, neutralContactLine, lines[2])
	assert.Equal(t, "Suggestion: Try 'malware protection' for detailed tips.", lines[3])

	lines = process(t, engine, session, "exit").Lines()
	assert.Equal(t, "Session Statistics for Alice:", lines[0])
	assert.Equal(t, "Duration: 0 minutes", lines[1])
	assert.Equal(t, "Queries: 1", lines[2])
}

func TestMissingContentIsApologizedNotFatal(t *testing.T) {
	store := &vanishingStore{Store: defaultStore(t), key: "malware"}
	engine, _ := newTestEngine(t, store)
	session := engine.StartSession("Alice")

	reply := process(t, engine, session, "malware")

	assert.Equal(t, OutcomeResponded, reply.Outcome)
	assert.Equal(t, apologyLine, reply.Response)
	assert.Equal(t, 1, session.QueryCount)

	reply = process(t, engine, session, "wifi")
	assert.Equal(t, OutcomeResponded, reply.Outcome)
	assert.NotEqual(t, apologyLine, reply.Response)
}

func TestProcessRequiresSession(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	_, err := engine.Process(context.Background(), nil, "1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNewEngineRequiresStore(t *testing.T) {
	_, err := NewEngine(context.Background(), nil)
	assert.Error(t, err)
}

func TestStartSessionUsesClock(t *testing.T) {
	engine, _ := newTestEngine(t, defaultStore(t))
	session := engine.StartSession("Alice")
	assert.Equal(t, startTime, session.StartTime)
	assert.Equal(t, startTime, engine.Now())
}

// vanishingStore answers the resolver's first lookup of key and then forgets it, which is the
// only way to reach the selector's invariant violation through the engine.
type vanishingStore struct {
	knowledge.Store
	key   string
	calls int
}

func (s *vanishingStore) Lookup(key string) (knowledge.ResponseSet, bool) {
	if key == s.key {
		s.calls++
		if s.calls > 1 {
			return knowledge.ResponseSet{}, false
		}
	}
	return s.Store.Lookup(key)
}
