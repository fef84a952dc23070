package engine

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/rotarytools/grantcalc/internal/domain"
)

// Rule identifiers, stable across releases; reports and exports key on them.
const (
	RuleInternationalMinimum = "R1"
	RuleTotalMinimum         = "R2"
	RuleDonorEligibility     = "R3"
)

// rule evaluates one eligibility requirement against a computed breakdown.
type rule struct {
	id       string
	evaluate func(in domain.FundingInputs, b domain.FundingBreakdown) (bool, string)
}

// rules run in registration order on every calculation; no rule failure
// short-circuits the rest, so all diagnostics surface together.
var rules = []rule{
	{RuleInternationalMinimum, checkInternationalMinimum},
	{RuleTotalMinimum, checkTotalMinimum},
	{RuleDonorEligibility, checkDonorEligibility},
}

func evaluateCompliance(in domain.FundingInputs, b domain.FundingBreakdown) domain.ComplianceResult {
	checks := make([]domain.RuleCheck, 0, len(rules))
	for _, r := range rules {
		passed, message := r.evaluate(in, b)
		checks = append(checks, domain.RuleCheck{RuleID: r.id, Passed: passed, Message: message})
	}

	var warnings []string
	if len(in.HostClubs) == 0 {
		warnings = append(warnings, "no host club entries recorded; a valid global grant expects at least one host club")
	}

	return domain.ComplianceResult{Checks: checks, Warnings: warnings}
}

func checkInternationalMinimum(_ domain.FundingInputs, b domain.FundingBreakdown) (bool, string) {
	if b.InternationalShare.GreaterThanOrEqual(MinInternationalShare) {
		return true, fmt.Sprintf("international share %s meets the %s minimum",
			domain.FormatPercent(b.InternationalShare), domain.FormatPercent(MinInternationalShare))
	}
	shortfall := MinInternationalShare.Sub(b.InternationalShare)
	return false, fmt.Sprintf("international share %s is below the %s minimum, short by %s",
		domain.FormatPercent(b.InternationalShare), domain.FormatPercent(MinInternationalShare), domain.FormatPercent(shortfall))
}

func checkTotalMinimum(_ domain.FundingInputs, b domain.FundingBreakdown) (bool, string) {
	if b.GrandTotal.GreaterThanOrEqual(MinTotalFunding) {
		return true, fmt.Sprintf("total project funding %s meets the %s minimum",
			domain.FormatUSD(b.GrandTotal), domain.FormatUSD(MinTotalFunding))
	}
	shortfall := MinTotalFunding.Sub(b.GrandTotal)
	return false, fmt.Sprintf("total project funding %s is below the %s minimum, short by %s",
		domain.FormatUSD(b.GrandTotal), domain.FormatUSD(MinTotalFunding), domain.FormatUSD(shortfall))
}

// checkDonorEligibility trusts the caller's attestations: it verifies the
// flags are present and set, never the underlying facts.
func checkDonorEligibility(in domain.FundingInputs, _ domain.FundingBreakdown) (bool, string) {
	unattested := lo.FilterMap(in.OtherDonors, func(e domain.ContributionEntry, _ int) (string, bool) {
		return e.Name, !e.AttestedEligible()
	})
	if len(unattested) == 0 {
		return true, "all other donor entries attested eligible"
	}
	return false, fmt.Sprintf("other donors missing eligibility attestation: %s", strings.Join(unattested, ", "))
}
