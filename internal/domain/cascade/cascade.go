// Package cascade propagates valuation multipliers from a lifecycle event on a
// parent horse to its offspring.
package cascade

import (
	"math"

	"github.com/okian/turforacle/internal/domain/model"
)

// TopGrade is the race grade that earns the sire power boost.
const TopGrade = "Grade 1"

const (
	maxPedigreeScore = 10000
	// Share of the full scarcity premium passed on for a career-threatening injury.
	injuryPremiumShare = 0.5
	maxScarcityLift    = 0.5
	mareWeight         = 1.2
	// Offspring count at which the lift is halved.
	offspringHalving = 20.0

	gradeOneWinMultiplier = 1.05
	winMultiplier         = 1.02
	siblingWinMultiplier  = 1.01
)

// Adjustment reasons.
const (
	ReasonDeath      = "parent deceased — scarcity premium"
	ReasonInjury     = "parent career-threatening injury — partial scarcity premium"
	ReasonSirePower  = "parent won a Grade 1 — Sire Power boost"
	ReasonParentWin  = "parent won — form boost"
	ReasonSiblingWin = "sibling won — proven cross signal"
)

// ScarcityPremium is the multiplier applied to offspring when a parent's
// future supply of foals is curtailed. It is at least 1, never decreases as
// pedigreeScore rises and never increases as offspringCount rises.
func ScarcityPremium(pedigreeScore int, sex model.Sex, offspringCount int) float64 {
	score := math.Max(0, math.Min(maxPedigreeScore, float64(pedigreeScore)))
	weight := 1.0
	if sex == model.SexFemale {
		weight = mareWeight
	}
	count := math.Max(0, float64(offspringCount))
	return 1 + (score/maxPedigreeScore)*maxScarcityLift*weight/(1+count/offspringHalving)
}

// Apply returns the adjustments ev causes on offspring. Geldings in sexes are
// skipped; with a nil map every id is eligible. Unknown event types and
// non-career-threatening injuries produce no adjustments.
func Apply(ev model.CascadeEvent, offspring []model.TokenID, sexes model.OffspringSexMap) []model.OffspringAdjustment {
	eligible := eligibleOffspring(offspring, sexes)
	if len(eligible) == 0 {
		return nil
	}

	var (
		multiplier float64
		reason     string
	)
	switch ev.Type {
	case model.CascadeDeath:
		multiplier = ScarcityPremium(ev.PedigreeScore, ev.ParentSex, ev.OffspringCount)
		reason = ReasonDeath
	case model.CascadeInjury:
		if !ev.CareerThreatening {
			return nil
		}
		p := ScarcityPremium(ev.PedigreeScore, ev.ParentSex, ev.OffspringCount)
		multiplier = 1 + (p-1)*injuryPremiumShare
		reason = ReasonInjury
	case model.CascadeRaceWin:
		multiplier, reason = winMultiplier, ReasonParentWin
		if ev.RaceGrade == TopGrade {
			multiplier, reason = gradeOneWinMultiplier, ReasonSirePower
		}
	case model.CascadeOffspringWin:
		multiplier, reason = siblingWinMultiplier, ReasonSiblingWin
	default:
		return nil
	}

	out := make([]model.OffspringAdjustment, 0, len(eligible))
	for _, id := range eligible {
		out = append(out, model.OffspringAdjustment{TokenID: id, Multiplier: multiplier, Reason: reason})
	}
	return out
}

func eligibleOffspring(offspring []model.TokenID, sexes model.OffspringSexMap) []model.TokenID {
	if len(offspring) == 0 {
		return nil
	}
	eligible := make([]model.TokenID, 0, len(offspring))
	for _, id := range offspring {
		// Gelded offspring carry no breeding value.
		if sexes[id] == model.SexGelding {
			continue
		}
		eligible = append(eligible, id)
	}
	return eligible
}
