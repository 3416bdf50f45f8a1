// Package adjudication computes insurance coverage breakdowns from bill
// line items and policy terms. The engine is a pure function: it holds
// no state, never mutates its inputs, and either returns a fully
// reconciled result or an error.
package adjudication

import (
	"fmt"
	"math"

	"github.com/medassist/claims-backend/internal/entity"
)

// Adjudicate applies policy terms to the billed line items in a fixed
// order: remaining deductible, then coinsurance or copay, then the
// out-of-pocket maximum. The order is load-bearing; reordering the
// steps changes the result.
func Adjudicate(items []entity.BillLineItem, policy entity.PolicyTerms) (*entity.CoverageResult, error) {
	if err := validate(items, policy); err != nil {
		return nil, err
	}

	var totalBilled float64
	for _, item := range items {
		totalBilled += item.BilledAmount
	}
	totalBilled = roundCents(totalBilled)

	if totalBilled == 0 {
		return &entity.CoverageResult{}, nil
	}

	deductibleApplied := math.Min(totalBilled, policy.DeductibleRemaining)
	remaining := totalBilled - deductibleApplied

	var insuranceCovers float64
	switch {
	case policy.CoinsuranceRate != nil:
		insuranceCovers = remaining * *policy.CoinsuranceRate
	case policy.Copay != nil:
		insuranceCovers = math.Max(0, remaining-*policy.Copay)
	default:
		// Fully covered once the deductible is met
		insuranceCovers = remaining
	}
	insuranceCovers = roundCents(insuranceCovers)

	// Out-of-pocket is derived by subtraction after rounding so the
	// three buckets reconcile exactly to the billed total.
	outOfPocket := roundCents(totalBilled - insuranceCovers)

	if outOfPocket > policy.OutOfPocketMax {
		insuranceCovers = roundCents(insuranceCovers + outOfPocket - policy.OutOfPocketMax)
		outOfPocket = roundCents(policy.OutOfPocketMax)
	}

	return &entity.CoverageResult{
		TotalBilled:        totalBilled,
		DeductibleApplied:  roundCents(deductibleApplied),
		InsuranceCovers:    insuranceCovers,
		OutOfPocket:        outOfPocket,
		CoveragePercentage: roundCents(insuranceCovers / totalBilled * 100),
	}, nil
}

func validate(items []entity.BillLineItem, policy entity.PolicyTerms) error {
	for i, item := range items {
		if item.BilledAmount < 0 {
			return fmt.Errorf("%w: line %d (%s) has negative billed amount %.2f",
				entity.ErrInvalidLineItem, i, item.ServiceCode, item.BilledAmount)
		}
	}

	if policy.DeductibleRemaining < 0 {
		return fmt.Errorf("%w: annual_deductible_remaining must not be negative", entity.ErrInvalidParameter)
	}
	if policy.OutOfPocketMax < 0 {
		return fmt.Errorf("%w: out_of_pocket_max must not be negative", entity.ErrInvalidParameter)
	}
	if policy.CoinsuranceRate != nil && (*policy.CoinsuranceRate < 0 || *policy.CoinsuranceRate > 1) {
		return fmt.Errorf("%w: coinsurance_rate must be within [0, 1]", entity.ErrInvalidParameter)
	}
	if policy.Copay != nil && *policy.Copay < 0 {
		return fmt.Errorf("%w: copay must not be negative", entity.ErrInvalidParameter)
	}

	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
