package models

// HintTier is a hint level. Deeper tiers cost more.
type HintTier string

const (
	HintSurface HintTier = "surface"
	HintMedium  HintTier = "medium"
	HintDeep    HintTier = "deep"
)

// HintTiers lists the tiers from cheapest to most expensive.
var HintTiers = []HintTier{HintSurface, HintMedium, HintDeep}

// BaselineScore is the maximum attainable task score before hint penalties.
const BaselineScore = 100

// Valid reports whether t is a known tier.
func (t HintTier) Valid() bool {
	return t.Weight() > 0
}

// Weight is the fixed penalty charged when the tier is consumed.
func (t HintTier) Weight() int {
	switch t {
	case HintSurface:
		return 5
	case HintMedium:
		return 15
	case HintDeep:
		return 30
	}
	return 0
}

// Penalty sums the weights of tiers. Unknown tiers count zero.
func Penalty(tiers []HintTier) int {
	total := 0
	for _, t := range tiers {
		total += t.Weight()
	}
	return total
}

// HintRequest asks the server to reveal a tier.
type HintRequest struct {
	TaskID    string   `json:"task_id"`
	HintLevel HintTier `json:"hint_level"`
}

// HintResponse carries the revealed hint.
type HintResponse struct {
	Content        string  `json:"content"`
	Penalty        float64 `json:"penalty"`
	RemainingHints int     `json:"remaining_hints"`
}
