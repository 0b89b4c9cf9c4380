package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func sampleCards() []WithQuantity {
	return []WithQuantity{
		{Card: Card{UUID: "a1", Name: "Dropkick", CardType: TypeMainDeck, DeckCardNumber: intp(3), AtkType: "Strike", PlayOrder: "Lead", Tags: []string{"aerial"}}, Quantity: 2},
		{Card: Card{UUID: "b2", Name: "Ace Steel", CardType: TypeSingleCompetitor, Power: intp(8), Agility: intp(5), Division: "Men's"}, Quantity: 1},
		{Card: Card{UUID: "c3", Name: "Arm Bar", CardType: TypeMainDeck, DeckCardNumber: intp(21), AtkType: "Submission", RulesText: "Opponent must stop"}, Quantity: 1},
		{Card: Card{UUID: "d4", Name: "Grand Entrance", CardType: TypeEntrance, IsBanned: true}, Quantity: 1},
	}
}

func uuids(held []WithQuantity) []string {
	var out []string
	for _, h := range held {
		out = append(out, h.Card.UUID)
	}
	return out
}

func TestFilter(t *testing.T) {
	banned := true
	tests := []struct {
		name string
		opt  SearchOptions
		want []string
	}{
		{"no constraints", SearchOptions{}, []string{"a1", "b2", "c3", "d4"}},
		{"name query is case insensitive", SearchOptions{Query: "ARM"}, []string{"c3"}},
		{"tags scope", SearchOptions{Query: "aerial", Scope: ScopeTags}, []string{"a1"}},
		{"name scope ignores tags", SearchOptions{Query: "aerial", Scope: ScopeName}, nil},
		{"rules scope", SearchOptions{Query: "stop", Scope: "RULES"}, []string{"c3"}},
		{"card type", SearchOptions{CardType: TypeMainDeck}, []string{"a1", "c3"}},
		{"deck numbers", SearchOptions{DeckNumbers: []int{21, 30}}, []string{"c3"}},
		{"banned", SearchOptions{Banned: &banned}, []string{"d4"}},
		{"stat floor lets stat-less cards through", SearchOptions{MinPower: 7}, []string{"a1", "b2", "c3", "d4"}},
		{"stat floor excludes weak competitors", SearchOptions{MinAgility: 6}, []string{"a1", "c3", "d4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uuids(Filter(sampleCards(), tt.opt)))
		})
	}
}

func TestSearchOptionsNormalize(t *testing.T) {
	o := SearchOptions{Query: "  chop ", Scope: "bogus", Limit: 10000, Offset: -4}.Normalize()
	assert.Equal(t, "chop", o.Query)
	assert.Equal(t, ScopeAll, o.Scope)
	assert.Equal(t, MaxSearchLimit, o.Limit)
	assert.Equal(t, 0, o.Offset)

	assert.Equal(t, DefaultSearchLimit, SearchOptions{}.Normalize().Limit)
}

func TestTags(t *testing.T) {
	assert.Nil(t, SplitTags(" "))
	assert.Equal(t, []string{"a", "b c"}, SplitTags("a, b c ,"))
	assert.Equal(t, "a,b", JoinTags([]string{"a", "b"}))
}

func TestShortType(t *testing.T) {
	assert.Equal(t, "MainDeck", Card{CardType: TypeMainDeck}.ShortType())
	assert.True(t, Card{CardType: TypeTrioCompetitor}.IsCompetitor())
	assert.False(t, Card{CardType: TypeEntrance}.IsCompetitor())
}
