package intent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
)

func defaultResolver(t *testing.T) (*Resolver, knowledge.Store) {
	t.Helper()
	content, err := knowledge.Default()
	require.NoError(t, err)
	store := knowledge.NewMemoryStore(content)
	return NewResolver(store), store
}

func TestResolveMenuCodes(t *testing.T) {
	r, _ := defaultResolver(t)

	topics := map[string]string{"1": "phishing", "2": "malware", "3": "wifi", "4": "social", "5": "purpose", "6": "topics"}
	for code, topic := range topics {
		got := r.Resolve(code, code)
		assert.Equal(t, Intent{Kind: KindTopic, Key: topic, Menu: true}, got, "code %s", code)
	}

	assert.Equal(t, knowledge.ActionStatistics, r.Resolve("7", "7").Action)
	assert.Equal(t, knowledge.ActionTerminate, r.Resolve("8", "8").Action)
	assert.Equal(t, knowledge.ActionNewSession, r.Resolve("9", "9").Action)
}

func TestResolveEveryStoreKey(t *testing.T) {
	r, store := defaultResolver(t)

	kinds := map[knowledge.Kind]Kind{
		knowledge.KindTopic:   KindTopic,
		knowledge.KindKeyword: KindKeyword,
		knowledge.KindPhrase:  KindPhrase,
	}
	for storeKind, want := range kinds {
		for _, key := range store.Keys(storeKind) {
			raw := "  " + strings.ToUpper(key) + " "
			got := r.Resolve(Normalize(raw), raw)
			assert.Equal(t, want, got.Kind, "key %q", key)
			assert.Equal(t, key, got.Key)
			assert.False(t, got.Menu)
		}
	}
}

func TestResolveExit(t *testing.T) {
	r, _ := defaultResolver(t)
	got := r.Resolve(Normalize(" EXIT "), " EXIT ")
	assert.Equal(t, Intent{Kind: KindControl, Action: knowledge.ActionTerminate}, got)
}

func TestResolveIsExactOnly(t *testing.T) {
	r, _ := defaultResolver(t)

	for _, input := range []string{"phishing tips", "tell me about phishing", "10", "1.", "phish"} {
		got := r.Resolve(input, input)
		assert.Equal(t, KindUnrecognized, got.Kind, input)
		assert.Equal(t, input, got.Raw)
	}
}

func TestResolveCarriesRawInput(t *testing.T) {
	r, _ := defaultResolver(t)
	got := r.Resolve(Normalize("  Blah Blah "), "  Blah Blah ")
	assert.Equal(t, "  Blah Blah ", got.Raw)
}

func TestResolveMenuFailsClosedOnMissingTopic(t *testing.T) {
	store := knowledge.NewMemoryStore(&knowledge.Content{
		Menu: []knowledge.MenuEntry{{Code: "1", Topic: "phishing"}},
	})
	r := NewResolver(store)

	got := r.Resolve("1", "1")
	assert.Equal(t, KindUnrecognized, got.Kind)
	assert.Equal(t, "1", got.Raw)
}

func TestResolveControlCodesWithoutMenu(t *testing.T) {
	r := NewResolver(knowledge.NewMemoryStore(&knowledge.Content{}))

	assert.Equal(t, knowledge.ActionStatistics, r.Resolve("7", "7").Action)
	assert.Equal(t, knowledge.ActionNewSession, r.Resolve("9", "9").Action)
	assert.False(t, r.Resolve("9", "9").Menu)
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, input := range []string{"  Phishing Tip ", "VPN", "\tmalware\n", "", "Exit"} {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestIntentPredicates(t *testing.T) {
	assert.True(t, Intent{Kind: KindTopic}.IsTopic())
	assert.False(t, Intent{Kind: KindPhrase}.IsTopic())
	assert.True(t, Intent{Kind: KindKeyword}.IsContent())
	assert.False(t, Intent{Kind: KindControl}.IsContent())
}
