package service

import (
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/milkroute/milkroute/internal/pricing/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// unboundedWidth ranks rules missing a bound behind any fully bounded range.
var unboundedWidth = decimal.NewFromInt(1_000_000)

// ResolveWithRules applies the matching subset of rules to basePrice and
// returns the effective unit price. It is a pure function of its arguments:
// the same rule set and reading always produce the same price.
//
// Ordering is specificity descending: a rule scoped to the exact product
// outranks an all-products rule; among equally scoped rules, narrower quality
// ranges outrank wider ones; remaining ties apply in creation order. Every
// matching rule's adjustment is applied in sequence to the running price.
func ResolveWithRules(rules []domain.PriceRule, productID snowflake.ID, basePrice decimal.Decimal, reading domain.QualityReading) decimal.Decimal {
	matched := make([]domain.PriceRule, 0, len(rules))
	for _, rule := range rules {
		if ruleMatches(rule, productID, reading) {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := specificity(matched[i]), specificity(matched[j])
		if si != sj {
			return si > sj
		}
		wi, wj := rangeWidth(matched[i]), rangeWidth(matched[j])
		if !wi.Equal(wj) {
			return wi.LessThan(wj)
		}
		return matched[i].ID < matched[j].ID
	})

	price := basePrice
	for _, rule := range matched {
		switch rule.AdjustmentType {
		case domain.AdjustmentFixed:
			price = price.Add(rule.Adjustment)
		case domain.AdjustmentPercentage:
			price = price.Mul(decimal.NewFromInt(1).Add(rule.Adjustment.Div(hundred)))
		}
	}

	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

func ruleMatches(rule domain.PriceRule, productID snowflake.ID, reading domain.QualityReading) bool {
	if !rule.Active {
		return false
	}
	if rule.ProductID != nil && *rule.ProductID != productID {
		return false
	}
	if !boundsMatch(reading.FatPct, rule.MinFat, rule.MaxFat) {
		return false
	}
	return boundsMatch(reading.SNFPct, rule.MinSNF, rule.MaxSNF)
}

// boundsMatch enforces the reading against one quality dimension. A rule that
// constrains a dimension only matches when a reading for it was supplied.
func boundsMatch(reading, min, max *decimal.Decimal) bool {
	if min == nil && max == nil {
		return true
	}
	if reading == nil {
		return false
	}
	if min != nil && reading.LessThan(*min) {
		return false
	}
	if max != nil && reading.GreaterThan(*max) {
		return false
	}
	return true
}

func specificity(rule domain.PriceRule) int {
	if rule.ProductID != nil {
		return 1
	}
	return 0
}

// rangeWidth sums the widths of both quality ranges so that a rule
// constraining a dimension tightly sorts ahead of one that leaves it open.
func rangeWidth(rule domain.PriceRule) decimal.Decimal {
	return dimensionWidth(rule.MinFat, rule.MaxFat).Add(dimensionWidth(rule.MinSNF, rule.MaxSNF))
}

func dimensionWidth(min, max *decimal.Decimal) decimal.Decimal {
	if min == nil || max == nil {
		return unboundedWidth
	}
	return max.Sub(*min)
}
