// Package dialogue turns one line of user input into a reply while updating the session.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cloudwego/eino/compose"

	"github.com/zhouzirui/cyber-shield/backend/internal/analysis/intent"
	"github.com/zhouzirui/cyber-shield/backend/internal/analysis/memory"
	"github.com/zhouzirui/cyber-shield/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/cyber-shield/backend/internal/logger"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
)

var ErrNoSession = errors.New("no active session")

// Option customizes an Engine.
type Option func(*Engine)

// WithClock injects the time source used for session start and summaries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRandom injects the random source used by response selection.
func WithRandom(rng Random) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// Engine runs the per-turn pipeline: memory extraction, sentiment, intent resolution and
// response assembly. It holds no session state of its own.
type Engine struct {
	store    knowledge.Store
	resolver *intent.Resolver
	selector *Selector
	rng      Random
	now      func() time.Time
	guidance string
	log      *log.Logger
	pipeline compose.Runnable[*turn, *turn]
}

// turn is the value flowing through the pipeline.
type turn struct {
	session    *chat.Session
	raw        string
	normalized string
	reply      Reply
}

// NewEngine compiles the turn pipeline over store.
func NewEngine(ctx context.Context, store knowledge.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("knowledge store is required")
	}

	e := &Engine{
		store:    store,
		resolver: intent.NewResolver(store),
		now:      time.Now,
		guidance: guidanceLine(store.Menu()),
		log:      logger.With("dialogue"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = NewRandom(nil)
	}
	e.selector = NewSelector(store, e.rng)

	chain := compose.NewChain[*turn, *turn]()
	chain.
		AppendLambda(compose.InvokableLambda(e.extractMemory)).
		AppendLambda(compose.InvokableLambda(e.detectSentiment)).
		AppendLambda(compose.InvokableLambda(e.resolveIntent)).
		AppendLambda(compose.InvokableLambda(e.respond))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dialogue pipeline: %w", err)
	}
	e.pipeline = runnable
	return e, nil
}

// Store exposes the knowledge store the engine answers from.
func (e *Engine) Store() knowledge.Store {
	return e.store
}

// Now reads the engine clock.
func (e *Engine) Now() time.Time {
	return e.now()
}

// StartSession creates a session for a validated user name, stamped with the engine clock.
func (e *Engine) StartSession(userName string) *chat.Session {
	session := chat.NewSession(userName, e.now())
	e.log.Debug("session started", "session", session.ID, "user", userName)
	return session
}

// Process handles one raw input line for session.
func (e *Engine) Process(ctx context.Context, session *chat.Session, raw string) (Reply, error) {
	if session == nil {
		return Reply{}, ErrNoSession
	}

	out, err := e.pipeline.Invoke(ctx, &turn{
		session:    session,
		raw:        raw,
		normalized: intent.Normalize(raw),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to process turn: %w", err)
	}

	e.log.Debug("turn processed",
		"session", session.ID,
		"outcome", out.reply.Outcome,
		"intent", out.reply.Intent.Kind,
		"sentiment", out.reply.Sentiment,
		"queries", session.QueryCount,
	)
	return out.reply, nil
}

func (e *Engine) extractMemory(_ context.Context, t *turn) (*turn, error) {
	if ack, ok := memory.Extract(t.raw, t.session); ok {
		t.reply.Acknowledgement = ack.Text
		e.log.Debug("memory updated", "session", t.session.ID, "kind", ack.Kind)
	}
	return t, nil
}

func (e *Engine) detectSentiment(_ context.Context, t *turn) (*turn, error) {
	t.reply.Sentiment = sentiment.Classify(t.normalized)
	return t, nil
}

func (e *Engine) resolveIntent(_ context.Context, t *turn) (*turn, error) {
	t.reply.Intent = e.resolver.Resolve(t.normalized, t.raw)
	return t, nil
}

func (e *Engine) respond(_ context.Context, t *turn) (*turn, error) {
	session := t.session
	it := t.reply.Intent

	switch {
	case it.Kind == intent.KindControl:
		e.control(t)
	case it.IsContent():
		session.QueryCount++
		if it.IsTopic() {
			session.CurrentTopic = it.Key
		}
		t.reply.Outcome = OutcomeResponded
		t.reply.Heading = heading(it.Key)
		t.reply.Response = e.selectResponse(session, it.Key)
		t.reply.FollowUp = resolvedFollowUp(t.reply.Sentiment)
		t.reply.Suggestion = suggestionFor(session.CurrentTopic)
	default:
		session.QueryCount++
		t.reply.Outcome = OutcomeUnrecognized
		t.reply.Guidance = e.guidance
		t.reply.FollowUp = unknownFollowUp(t.reply.Sentiment, session)
		if session.HasTopic() {
			t.reply.Suggestion = suggestionFor(session.CurrentTopic)
		}
		e.log.Debug("unrecognized input", "session", session.ID, "raw", it.Raw)
	}
	return t, nil
}

func (e *Engine) control(t *turn) {
	session := t.session

	switch t.reply.Intent.Action {
	case knowledge.ActionStatistics:
		stats := e.store.Statistics()
		t.reply.Outcome = OutcomeStatistics
		t.reply.Statistics = &stats
		if session.HasTopic() {
			t.reply.Suggestion = suggestionFor(session.CurrentTopic)
		}
	case knowledge.ActionTerminate:
		now := e.now()
		resources := e.store.Resources()
		t.reply.Outcome = OutcomeEnding
		t.reply.Summary = &Summary{
			UserName: session.UserName,
			Minutes:  session.Elapsed(now),
			Queries:  session.QueryCount,
			EndedAt:  now,
		}
		t.reply.Resources = &resources
	case knowledge.ActionNewSession:
		t.reply.Outcome = OutcomeRestarting
	}
}

func (e *Engine) selectResponse(session *chat.Session, key string) string {
	response, err := e.selector.Select(key)
	if err != nil {
		e.log.Error("knowledge store is missing a resolved key", "session", session.ID, "key", key, "err", err)
		return apologyLine
	}
	return response
}
