package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"lotto/models"
)

// PolicyTotalWeight is the sum every outcome table must reach, so weights read as percentages
const PolicyTotalWeight = 100

// DefaultOutcomes is the standard table: 50% loss, 20% refund, 10% double,
// 19% transfer to a random other user, 1% ten-fold jackpot
const DefaultOutcomes = "loss:50,refund:20,double:10:2,transfer:19,jackpot:1:10"

var defaultMultipliers = map[models.OutcomeKind]int64{
	models.OutcomeDouble:  2,
	models.OutcomeJackpot: 10,
}

// OutcomeRule is one row of the outcome table
type OutcomeRule struct {
	Kind       models.OutcomeKind
	Weight     int
	Multiplier int64 // only for double and jackpot
}

// Policy is a validated, ordered outcome table. Rolls map onto consecutive
// disjoint ranges in table order.
type Policy struct {
	rules []OutcomeRule
	total int
}

// NewPolicy validates rules and builds a Policy
func NewPolicy(rules []OutcomeRule) (*Policy, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("outcome table is empty")
	}

	seen := make(map[models.OutcomeKind]bool, len(rules))
	total := 0
	for _, rule := range rules {
		if seen[rule.Kind] {
			return nil, fmt.Errorf("outcome %q listed more than once", rule.Kind)
		}
		seen[rule.Kind] = true

		if rule.Weight < 0 {
			return nil, fmt.Errorf("outcome %q has negative weight %d", rule.Kind, rule.Weight)
		}

		switch rule.Kind {
		case models.OutcomeDouble, models.OutcomeJackpot:
			if rule.Multiplier < 2 {
				return nil, fmt.Errorf("outcome %q needs a multiplier of at least 2, got %d", rule.Kind, rule.Multiplier)
			}
		case models.OutcomeLoss, models.OutcomeRefund, models.OutcomeTransfer:
			if rule.Multiplier != 0 {
				return nil, fmt.Errorf("outcome %q does not take a multiplier", rule.Kind)
			}
		default:
			return nil, fmt.Errorf("unknown outcome %q", rule.Kind)
		}

		total += rule.Weight
	}

	if total != PolicyTotalWeight {
		return nil, fmt.Errorf("outcome weights sum to %d, want %d", total, PolicyTotalWeight)
	}

	return &Policy{
		rules: append([]OutcomeRule(nil), rules...),
		total: total,
	}, nil
}

// ParsePolicy parses a comma separated list of kind:weight[:multiplier]
func ParsePolicy(s string) (*Policy, error) {
	var rules []OutcomeRule
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid outcome %q, want kind:weight[:multiplier]", entry)
		}

		kind := models.OutcomeKind(strings.ToLower(strings.TrimSpace(parts[0])))
		weight, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", entry, err)
		}

		rule := OutcomeRule{Kind: kind, Weight: weight}
		if len(parts) == 3 {
			rule.Multiplier, err = strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid multiplier in %q: %w", entry, err)
			}
		} else {
			rule.Multiplier = defaultMultipliers[kind]
		}

		rules = append(rules, rule)
	}

	return NewPolicy(rules)
}

// DefaultPolicy returns the standard outcome table
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(DefaultOutcomes)
	if err != nil {
		panic(fmt.Sprintf("default outcome table is invalid: %v", err))
	}
	return p
}

// Total is the upper bound of the roll range [1, Total]
func (p *Policy) Total() int {
	return p.total
}

// Rules returns a copy of the table in resolution order
func (p *Policy) Rules() []OutcomeRule {
	return append([]OutcomeRule(nil), p.rules...)
}

// Has reports whether kind can be rolled
func (p *Policy) Has(kind models.OutcomeKind) bool {
	for _, rule := range p.rules {
		if rule.Kind == kind && rule.Weight > 0 {
			return true
		}
	}
	return false
}

// Resolve maps a roll in [1, Total] to its outcome rule
func (p *Policy) Resolve(roll int) (OutcomeRule, error) {
	if roll < 1 || roll > p.total {
		return OutcomeRule{}, fmt.Errorf("roll %d outside [1, %d]", roll, p.total)
	}

	upper := 0
	for _, rule := range p.rules {
		upper += rule.Weight
		if rule.Weight > 0 && roll <= upper {
			return rule, nil
		}
	}

	// unreachable for a validated policy
	return OutcomeRule{}, fmt.Errorf("roll %d not covered by outcome table", roll)
}

// String renders the table in the same form ParsePolicy accepts
func (p *Policy) String() string {
	parts := make([]string, 0, len(p.rules))
	for _, rule := range p.rules {
		if rule.Multiplier > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d:%d", rule.Kind, rule.Weight, rule.Multiplier))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%d", rule.Kind, rule.Weight))
	}
	return strings.Join(parts, ",")
}

// Payout computes what the player is credited for a non-transfer rule.
// Returns an error when bet × multiplier overflows int64.
func (r OutcomeRule) Payout(bet int64) (int64, error) {
	switch r.Kind {
	case models.OutcomeLoss, models.OutcomeTransfer:
		return 0, nil
	case models.OutcomeRefund:
		return bet, nil
	case models.OutcomeDouble, models.OutcomeJackpot:
		if bet > math.MaxInt64/r.Multiplier {
			return 0, fmt.Errorf("payout overflow: %d x %d", bet, r.Multiplier)
		}
		return bet * r.Multiplier, nil
	}
	return 0, fmt.Errorf("unknown outcome %q", r.Kind)
}
