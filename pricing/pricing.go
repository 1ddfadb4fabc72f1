// Package pricing turns a customer's package and meal selections into a
// single total. Price data arrives from loosely-typed documents, so every
// path degrades to zero instead of failing.
package pricing

import (
	"errors"

	"evenza/models"
)

// Price sources an order's total can be derived from.
const (
	SourceActual     = "actual"
	SourceNegotiated = "negotiated"
	SourceBudget     = "budget"
)

var ErrUnknownSource = errors.New("unknown price source")
var ErrMissingBasis = errors.New("selected price source has no value")

// mealPrice picks the first present variant: original, then price, then
// discounted.
func mealPrice(mp models.MealPrices) float64 {
	switch {
	case mp.Original != nil:
		return *mp.Original
	case mp.Price != nil:
		return *mp.Price
	case mp.Discounted != nil:
		return *mp.Discounted
	}
	return 0
}

// MealTotal sums the prices of every meal flagged true in the selection.
// Meal names in the selection that the package does not price are ignored.
func MealTotal(meals map[string]models.MealPrices, sel models.MealSelection) float64 {
	var total float64
	for name, chosen := range sel {
		if !chosen {
			continue
		}
		mp, ok := meals[name]
		if !ok {
			continue
		}
		total += mealPrice(mp)
	}
	return total
}

// PackagePrice is the flat price of a non-catering package: originalPrice,
// falling back to price, with the percent discount applied.
func PackagePrice(p models.PackageRef) float64 {
	var base float64
	switch {
	case p.OriginalPrice != nil:
		base = *p.OriginalPrice
	case p.Price != nil:
		base = *p.Price
	default:
		return 0
	}

	final := base * (1 - p.Discount/100)
	if final < 0 {
		return 0
	}
	return final
}

// ResolveTotal computes the order total for a package list. A package with a
// meal selection keyed by its id is priced from the chosen meals; every other
// package contributes its discounted flat price. The sum is order-independent.
func ResolveTotal(packages []models.PackageRef, selections map[string]models.MealSelection) float64 {
	var total float64
	for _, p := range packages {
		sel, ok := selections[p.ID]
		if ok && len(p.Meals) > 0 {
			total += MealTotal(p.Meals, sel)
			continue
		}
		total += PackagePrice(p)
	}
	if total < 0 {
		return 0
	}
	return total
}

// SelectFinal resolves finalSource to the price basis it names. The basis
// must be present: persisting a total whose declared source is nil is how the
// stored finalSource drifts out of sync with reality.
func SelectFinal(original, negotiated, budget *float64, source string) (float64, error) {
	var basis *float64
	switch source {
	case SourceActual:
		basis = original
	case SourceNegotiated:
		basis = negotiated
	case SourceBudget:
		basis = budget
	default:
		return 0, ErrUnknownSource
	}
	if basis == nil {
		return 0, ErrMissingBasis
	}
	return *basis, nil
}

// ApplyConvenienceFee adds a flat-percentage surcharge to a total.
func ApplyConvenienceFee(total, percent float64) float64 {
	if percent <= 0 {
		return total
	}
	return total * (1 + percent/100)
}
