// Package engine computes the funding breakdown for a Rotary Global Grant
// and evaluates the grant eligibility rules against it.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/ledger"
)

// World Fund policy parameters.
var (
	// WorldFundMatchRate is the match applied to total DDF contributions.
	WorldFundMatchRate = decimal.NewFromFloat(0.80)

	// WorldFundMatchCap bounds the World Fund match per grant.
	WorldFundMatchCap = decimal.NewFromInt(400_000)

	// MinInternationalShare is the minimum share of total funding that must
	// come from international sponsors.
	MinInternationalShare = decimal.NewFromFloat(0.15)

	// MinTotalFunding is the minimum total budget for an eligible grant.
	MinTotalFunding = decimal.NewFromInt(30_000)
)

// Calculate computes the funding breakdown for the given inputs and
// evaluates every eligibility rule against it. Rule failures are returned
// as data inside the compliance result; the error is non-nil only for
// structurally invalid input (negative amounts, unnamed entries), in which
// case no breakdown is produced.
//
// The inputs are never modified. Identical inputs always yield identical
// results, and concurrent calls on distinct inputs need no coordination.
func Calculate(in domain.FundingInputs) (domain.FundingBreakdown, domain.ComplianceResult, error) {
	if err := in.Validate(); err != nil {
		return domain.FundingBreakdown{}, domain.ComplianceResult{}, fmt.Errorf("validating inputs: %w", err)
	}

	breakdown := buildBreakdown(in)
	return breakdown, evaluateCompliance(in, breakdown), nil
}

// buildBreakdown derives every aggregate in fixed order. Entries of all
// categories feed the DDF and cash totals, so per-category totals are
// reported alongside but never added in again.
func buildBreakdown(in domain.FundingInputs) domain.FundingBreakdown {
	lg := ledger.FromInputs(in)

	totalDDF := lg.TotalDDF()
	totalCashDirect := lg.TotalCashDirect()
	totalCashTRF := lg.TotalCashTRF()

	// The 5% TRF handling fee is deducted once from the gross TRF-routed
	// cash and is lost to the project; it lands in no other bucket.
	trfFee := totalCashTRF.Mul(domain.TRFFeeRate)
	netCashTRF := totalCashTRF.Sub(trfFee)
	cashContributions := totalCashDirect.Add(netCashTRF)

	matchRaw := totalDDF.Mul(WorldFundMatchRate)
	match := decimal.Min(matchRaw, WorldFundMatchCap)

	endowedTotal := decimal.Zero
	if in.EndowedGift != nil {
		endowedTotal = in.EndowedGift.Amount
	}

	grandTotal := totalDDF.Add(cashContributions).Add(match).Add(endowedTotal)
	intlTotal := lg.TotalByCategory(domain.CategoryInternational)

	return domain.FundingBreakdown{
		TotalDDF:           totalDDF,
		TotalCashDirect:    totalCashDirect,
		TotalCashTRF:       totalCashTRF,
		NetCashTRF:         netCashTRF,
		TRFFee:             trfFee,
		CashContributions:  cashContributions,
		WorldFundMatchRaw:  matchRaw,
		WorldFundMatch:     match,
		HostTotal:          lg.TotalByCategory(domain.CategoryHost),
		InternationalTotal: intlTotal,
		OtherDonorTotal:    lg.TotalByCategory(domain.CategoryOther),
		EndowedTotal:       endowedTotal,
		GrandTotal:         grandTotal,
		InternationalShare: internationalShare(in, intlTotal, grandTotal),
	}
}

// internationalShare returns the international portion of total funding as
// a ratio, zero when there is no funding at all. An endowed gift counts
// toward the numerator only when the caller tagged it as international.
func internationalShare(in domain.FundingInputs, intlTotal, grandTotal decimal.Decimal) decimal.Decimal {
	if grandTotal.IsZero() {
		return decimal.Zero
	}
	numerator := intlTotal
	if in.EndowedGift != nil && in.EndowedGift.International {
		numerator = numerator.Add(in.EndowedGift.Amount)
	}
	return numerator.Div(grandTotal)
}
