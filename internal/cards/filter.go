package cards

import "strings"

// Search scopes for the free text query.
const (
	ScopeAll   = "all"
	ScopeName  = "name"
	ScopeTags  = "tags"
	ScopeRules = "rules"
)

const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 500
)

// SearchOptions narrows the catalogue. Zero values mean "no constraint".
type SearchOptions struct {
	Query       string `json:"query" form:"q"`
	Scope       string `json:"scope" form:"scope"`
	CardType    string `json:"card_type" form:"card_type"`
	AtkType     string `json:"atk_type" form:"atk_type"`
	PlayOrder   string `json:"play_order" form:"play_order"`
	Division    string `json:"division" form:"division"`
	ReleaseSet  string `json:"release_set" form:"release_set"`
	Banned      *bool  `json:"is_banned" form:"is_banned"`
	DeckNumbers []int  `json:"deck_numbers" form:"deck_number"`
	InFolderID  string `json:"in_folder_id" form:"in_folder"`

	// competitor stat floors; cards without the stat always pass
	MinPower      int `json:"min_power" form:"min_power"`
	MinTechnique  int `json:"min_technique" form:"min_technique"`
	MinAgility    int `json:"min_agility" form:"min_agility"`
	MinStrike     int `json:"min_strike" form:"min_strike"`
	MinSubmission int `json:"min_submission" form:"min_submission"`
	MinGrapple    int `json:"min_grapple" form:"min_grapple"`

	Limit  int `json:"limit" form:"limit"`
	Offset int `json:"offset" form:"offset"`
}

// Normalize trims text fields and clamps paging.
func (o SearchOptions) Normalize() SearchOptions {
	o.Query = strings.TrimSpace(o.Query)
	o.Scope = strings.ToLower(strings.TrimSpace(o.Scope))
	switch o.Scope {
	case ScopeName, ScopeTags, ScopeRules:
	default:
		o.Scope = ScopeAll
	}
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.Limit > MaxSearchLimit {
		o.Limit = MaxSearchLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// SearchName reports whether the query applies to card names.
func (o SearchOptions) SearchName() bool { return o.Scope == ScopeAll || o.Scope == ScopeName }

func (o SearchOptions) SearchTags() bool { return o.Scope == ScopeAll || o.Scope == ScopeTags }

func (o SearchOptions) SearchRules() bool { return o.Scope == ScopeAll || o.Scope == ScopeRules }

func containsFold(hay, needle string) bool {
	return strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
}

func atLeast(v *int, floor int) bool {
	return v == nil || *v >= floor
}

// Matches applies every constraint except paging and folder membership.
func (o SearchOptions) Matches(c Card) bool {
	o = o.Normalize()
	if o.Query != "" {
		hit := (o.SearchName() && containsFold(c.Name, o.Query)) ||
			(o.SearchTags() && containsFold(JoinTags(c.Tags), o.Query)) ||
			(o.SearchRules() && containsFold(c.RulesText, o.Query))
		if !hit {
			return false
		}
	}
	if o.CardType != "" && c.CardType != o.CardType {
		return false
	}
	if o.AtkType != "" && c.AtkType != o.AtkType {
		return false
	}
	if o.PlayOrder != "" && c.PlayOrder != o.PlayOrder {
		return false
	}
	if o.Division != "" && c.Division != o.Division {
		return false
	}
	if o.ReleaseSet != "" && c.ReleaseSet != o.ReleaseSet {
		return false
	}
	if o.Banned != nil && c.IsBanned != *o.Banned {
		return false
	}
	if len(o.DeckNumbers) > 0 {
		if c.DeckCardNumber == nil {
			return false
		}
		matched := false
		for _, n := range o.DeckNumbers {
			if *c.DeckCardNumber == n {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return atLeast(c.Power, o.MinPower) &&
		atLeast(c.Technique, o.MinTechnique) &&
		atLeast(c.Agility, o.MinAgility) &&
		atLeast(c.Strike, o.MinStrike) &&
		atLeast(c.Submission, o.MinSubmission) &&
		atLeast(c.Grapple, o.MinGrapple)
}

// Filter keeps the folder entries whose card matches opt. Paging is ignored.
func Filter(held []WithQuantity, opt SearchOptions) []WithQuantity {
	var out []WithQuantity
	for _, h := range held {
		if opt.Matches(h.Card) {
			out = append(out, h)
		}
	}
	return out
}
