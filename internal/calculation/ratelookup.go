package calculation

import (
	"fmt"
	"time"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// RateLookup resolves base premiums and tiers from a rate card
type RateLookup struct{}

// NewRateLookup creates a new rate lookup
func NewRateLookup() *RateLookup {
	return &RateLookup{}
}

// ActiveRateCard picks the single active, in-window rate card for a plan
func (rl *RateLookup) ActiveRateCard(cards []domain.RateCard, planID string, asOf time.Time) (*domain.RateCard, error) {
	var found *domain.RateCard
	for i := range cards {
		card := &cards[i]
		if card.PlanID != planID || !card.EffectiveOn(asOf) {
			continue
		}
		if found != nil {
			return nil, domain.NewConfigurationError(domain.CodeMultipleActiveRateCards,
				"plan %s has more than one active rate card on %s (%s, %s)", planID, asOf.Format("2006-01-02"), found.ID, card.ID)
		}
		found = card
	}
	if found == nil {
		return nil, domain.NewConfigurationError(domain.CodeNoRateCard,
			"plan %s has no active rate card on %s", planID, asOf.Format("2006-01-02"))
	}
	return found, nil
}

// Lookup resolves the rate entry for a member.
//
// Step one considers entries whose age band contains age and whose member
// type, gender and region are blank or equal; gender is ignored on unisex
// cards. The most specific candidate wins (member type, then gender, then
// region) and equal specificity keeps the first in card order. Step two
// falls back to the first entry matching the age band alone.
func (rl *RateLookup) Lookup(card *domain.RateCard, age int, memberType domain.MemberType, gender domain.Gender, region string) (domain.RateEntry, error) {
	best := -1
	bestScore := -1
	fallback := -1

	for i := range card.Entries {
		entry := &card.Entries[i]
		if !entry.CoversAge(age) {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		score, ok := entrySpecificity(entry, card.Unisex, memberType, gender, region)
		if ok && score > bestScore {
			best, bestScore = i, score
		}
	}

	switch {
	case best >= 0:
		return card.Entries[best], nil
	case fallback >= 0:
		return card.Entries[fallback], nil
	}
	return domain.RateEntry{}, domain.NewConfigurationError(domain.CodeRateNotFound,
		"rate card %s has no entry for age %d (%s)", card.ID, age, memberType)
}

func entrySpecificity(entry *domain.RateEntry, unisex bool, memberType domain.MemberType, gender domain.Gender, region string) (int, bool) {
	score := 0
	if entry.MemberType != "" {
		if entry.MemberType != memberType {
			return 0, false
		}
		score += 4
	}
	if entry.Gender != "" && !unisex {
		if entry.Gender != gender {
			return 0, false
		}
		score += 2
	}
	if entry.Region != "" {
		if entry.Region != region {
			return 0, false
		}
		score++
	}
	return score, true
}

// LookupTier resolves the family-size tier for a member count. When the
// count is above every tier, the highest bounded tier with an extra-member
// premium bills each excess member that amount.
func (rl *RateLookup) LookupTier(tiers []domain.RateTier, count int) (domain.TierLine, error) {
	if count <= 0 {
		return domain.TierLine{}, domain.NewConfigurationError(domain.CodeTierNotFound, "cannot tier-price %d members", count)
	}

	for _, tier := range tiers {
		if count < tier.MinMembers {
			continue
		}
		if tier.MaxMembers == nil || count <= *tier.MaxMembers {
			return domain.TierLine{
				TierID:       tier.ID,
				Name:         tier.Name,
				MemberCount:  count,
				TierPremium:  roundMoney(tier.TierPremium),
				ExtraPremium: decimal.Zero,
				Total:        roundMoney(tier.TierPremium),
			}, nil
		}
	}

	var top *domain.RateTier
	for i := range tiers {
		tier := &tiers[i]
		if tier.MaxMembers == nil || *tier.MaxMembers >= count {
			continue
		}
		if top == nil || *tier.MaxMembers > *top.MaxMembers {
			top = tier
		}
	}
	if top == nil || top.ExtraMemberPremium == nil {
		return domain.TierLine{}, domain.NewConfigurationError(domain.CodeTierNotFound, "no tier covers %d members", count)
	}

	extra := count - *top.MaxMembers
	extraPremium := roundMoney(top.ExtraMemberPremium.Mul(decimal.NewFromInt(int64(extra))))
	tierPremium := roundMoney(top.TierPremium)
	return domain.TierLine{
		TierID:       top.ID,
		Name:         top.Name,
		MemberCount:  count,
		TierPremium:  tierPremium,
		ExtraMembers: extra,
		ExtraPremium: extraPremium,
		Total:        tierPremium.Add(extraPremium),
	}, nil
}

// EntryOverlap is a pair of rate entries that can both match one member
type EntryOverlap struct {
	CardID string `json:"cardId"`
	First  string `json:"first"`
	Second string `json:"second"`
}

func (eo EntryOverlap) String() string {
	return fmt.Sprintf("rate card %s: entries %s and %s overlap", eo.CardID, eo.First, eo.Second)
}

// OverlappingEntries lists entry pairs with intersecting age bands and
// identical narrowing fields. Lookup resolves these by first match; the
// diagnostic exists so configuration tooling can flag them.
func (rl *RateLookup) OverlappingEntries(card *domain.RateCard) []EntryOverlap {
	var out []EntryOverlap
	for i := 0; i < len(card.Entries); i++ {
		a := card.Entries[i]
		for j := i + 1; j < len(card.Entries); j++ {
			b := card.Entries[j]
			if a.MinAge > b.MaxAge || b.MinAge > a.MaxAge {
				continue
			}
			if a.MemberType != b.MemberType || a.Region != b.Region {
				continue
			}
			if a.Gender != b.Gender && !card.Unisex {
				continue
			}
			out = append(out, EntryOverlap{CardID: card.ID, First: a.ID, Second: b.ID})
		}
	}
	return out
}

// OverlappingTiers lists tier pairs whose member-count bands intersect
func (rl *RateLookup) OverlappingTiers(card *domain.RateCard) []EntryOverlap {
	var out []EntryOverlap
	for i := 0; i < len(card.Tiers); i++ {
		a := card.Tiers[i]
		for j := i + 1; j < len(card.Tiers); j++ {
			b := card.Tiers[j]
			if tierMax(a) < b.MinMembers || tierMax(b) < a.MinMembers {
				continue
			}
			out = append(out, EntryOverlap{CardID: card.ID, First: a.ID, Second: b.ID})
		}
	}
	return out
}

func tierMax(t domain.RateTier) int {
	if t.MaxMembers == nil {
		return int(^uint(0) >> 1)
	}
	return *t.MaxMembers
}
