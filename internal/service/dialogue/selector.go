package dialogue

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
)

// ErrUnknownTopic means the knowledge store has nothing behind a key the resolver accepted.
// It signals broken configuration, never bad user input.
var ErrUnknownTopic = errors.New("unknown topic")

// Random picks an integer in [0, n).
type Random interface {
	IntN(n int) int
}

type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a goroutine-safe random source. A nil seed draws one from the runtime.
func NewRandom(seed *uint64) Random {
	s := rand.Uint64()
	if seed != nil {
		s = *seed
	}
	return &lockedRandom{rng: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

func (r *lockedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Lookup is the read capability the selector needs from the knowledge store.
type Lookup interface {
	Lookup(key string) (knowledge.ResponseSet, bool)
}

// Selector chooses one response for a content key.
type Selector struct {
	store Lookup
	rng   Random
}

// NewSelector builds a selector over store using rng for multi-entry sets.
func NewSelector(store Lookup, rng Random) *Selector {
	return &Selector{store: store, rng: rng}
}

// Select returns a uniformly chosen entry of the key's response set. Calls are independent, so
// repeated questions may get the same answer.
func (s *Selector) Select(key string) (string, error) {
	set, ok := s.store.Lookup(key)
	if !ok || len(set.Responses) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownTopic, key)
	}
	if len(set.Responses) == 1 {
		return set.Responses[0], nil
	}
	return set.Responses[s.rng.IntN(len(set.Responses))], nil
}
