package domain

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// FundingBreakdown is the full arithmetic result of one funding calculation.
// All monetary amounts are USD; InternationalShare is a ratio in [0, 1].
type FundingBreakdown struct {
	TotalDDF        decimal.Decimal `json:"totalDDF"`
	TotalCashDirect decimal.Decimal `json:"totalCashDirect"`
	TotalCashTRF    decimal.Decimal `json:"totalCashTRF"`
	NetCashTRF      decimal.Decimal `json:"netCashTRF"`
	TRFFee          decimal.Decimal `json:"trfFee"`

	// CashContributions is direct cash plus net TRF cash.
	CashContributions decimal.Decimal `json:"cashContributions"`

	// WorldFundMatchRaw is the uncapped match; WorldFundMatch is what the
	// World Fund actually contributes after the cap.
	WorldFundMatchRaw decimal.Decimal `json:"worldFundMatchRaw"`
	WorldFundMatch    decimal.Decimal `json:"worldFundMatch"`

	HostTotal          decimal.Decimal `json:"hostTotal"`
	InternationalTotal decimal.Decimal `json:"internationalTotal"`
	OtherDonorTotal    decimal.Decimal `json:"otherDonorTotal"`
	EndowedTotal       decimal.Decimal `json:"endowedTotal"`

	GrandTotal         decimal.Decimal `json:"grandTotal"`
	InternationalShare decimal.Decimal `json:"internationalShare"`
}

// RuleCheck is the outcome of a single compliance rule evaluation.
type RuleCheck struct {
	RuleID  string `json:"ruleId"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// ComplianceResult carries every rule outcome plus advisory warnings.
// Checks always holds one entry per registered rule, in evaluation order,
// regardless of how many rules fail.
type ComplianceResult struct {
	Checks   []RuleCheck `json:"checks"`
	Warnings []string    `json:"warnings,omitempty"`
}

// AllPassed reports whether every compliance check passed.
func (r ComplianceResult) AllPassed() bool {
	return lo.EveryBy(r.Checks, func(c RuleCheck) bool {
		return c.Passed
	})
}

// Check looks up the outcome for a rule ID.
// Returns the check and true if found, zero value and false otherwise.
func (r ComplianceResult) Check(ruleID string) (RuleCheck, bool) {
	return lo.Find(r.Checks, func(c RuleCheck) bool {
		return c.RuleID == ruleID
	})
}

// CalculationResult bundles a breakdown with its compliance evaluation.
type CalculationResult struct {
	Breakdown  FundingBreakdown `json:"breakdown"`
	Compliance ComplianceResult `json:"compliance"`
}
