// Package nutrition computes per-100g nutrition profiles for composite foods
// and checks ingredient lists before they are persisted.
//
// All arithmetic uses exact decimals. Results are rounded to two fractional
// digits, the precision every nutrition and weight value is stored with, and
// ties go to the even digit.
package nutrition

import (
	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for nutrition and weights
const Places = 2

var hundred = decimal.NewFromInt(100)

// Profile is nutrition per 100g
type Profile struct {
	Calories decimal.Decimal
	Fats     decimal.Decimal
	Carbs    decimal.Decimal
	Protein  decimal.Decimal
}

// Portion is an amount in grams of a food with the given profile
type Portion struct {
	Profile Profile
	Amount  decimal.Decimal
}

// Totals is the aggregated profile of a composite food plus its raw weight
type Totals struct {
	Profile
	TotalWeight decimal.Decimal
}

// Aggregate derives the per-100g profile of a mix of portions.
//
// Each portion contributes amount/100 times its nutrients. The sums are
// divided by the total weight and scaled back to 100g. An empty mix, or one
// whose total weight is zero, divides by one instead and therefore yields an
// all-zero profile. TotalWeight is the plain sum of the amounts. Results
// are rounded to Places with ties going to the even digit.
func Aggregate(portions []Portion) Totals {
	var calories, fats, carbs, protein, weight decimal.Decimal

	for _, p := range portions {
		multiplier := p.Amount.Shift(-2)
		calories = calories.Add(multiplier.Mul(p.Profile.Calories))
		fats = fats.Add(multiplier.Mul(p.Profile.Fats))
		carbs = carbs.Add(multiplier.Mul(p.Profile.Carbs))
		protein = protein.Add(multiplier.Mul(p.Profile.Protein))
		weight = weight.Add(p.Amount)
	}

	divisor := decimal.NewFromInt(1)
	if weight.IsPositive() {
		divisor = weight
	}

	return Totals{
		Profile: Profile{
			Calories: per100(calories, divisor),
			Fats:     per100(fats, divisor),
			Carbs:    per100(carbs, divisor),
			Protein:  per100(protein, divisor),
		},
		TotalWeight: weight.RoundBank(Places),
	}
}

func per100(sum, divisor decimal.Decimal) decimal.Decimal {
	return sum.Mul(hundred).Div(divisor).RoundBank(Places)
}

// Scale returns the nutrition contained in grams of a food with profile p
func Scale(p Profile, grams decimal.Decimal) Profile {
	multiplier := grams.Shift(-2)
	return Profile{
		Calories: multiplier.Mul(p.Calories).RoundBank(Places),
		Fats:     multiplier.Mul(p.Fats).RoundBank(Places),
		Carbs:    multiplier.Mul(p.Carbs).RoundBank(Places),
		Protein:  multiplier.Mul(p.Protein).RoundBank(Places),
	}
}

// Equal reports whether two profiles hold the same values
func (p Profile) Equal(other Profile) bool {
	return p.Calories.Equal(other.Calories) &&
		p.Fats.Equal(other.Fats) &&
		p.Carbs.Equal(other.Carbs) &&
		p.Protein.Equal(other.Protein)
}
