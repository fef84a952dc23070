package domain

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TRFFeeRate is the share of cash routed through The Rotary Foundation
// that is retained as an operations fee and never reaches the project.
var TRFFeeRate = decimal.NewFromFloat(0.05)

var (
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrMissingName     = errors.New("contribution entry requires a name")
	ErrUnknownCategory = errors.New("unknown contribution category")
)

// Category classifies contribution entries by sponsor side.
type Category string

const (
	CategoryHost          Category = "host"
	CategoryInternational Category = "international"
	CategoryOther         Category = "other"
)

// Categories lists all contribution categories in presentation order.
var Categories = []Category{CategoryHost, CategoryInternational, CategoryOther}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return lo.Contains(Categories, c)
}

// ContributionEntry is a single sponsor commitment to the grant budget.
// All amounts are USD.
type ContributionEntry struct {
	Name           string          `json:"name"`
	DDFAmount      decimal.Decimal `json:"ddfAmount"`
	CashDirect     decimal.Decimal `json:"cashDirect"`
	CashThroughTRF decimal.Decimal `json:"cashThroughTRF"`

	// Eligibility attestations for outside donors. Both must be set for an
	// "other" entry to clear the donor eligibility rule; they are recorded
	// as stated by the caller and never verified here.
	NotCooperatingOrg     bool `json:"notCooperatingOrg,omitempty"`
	NotProjectBeneficiary bool `json:"notProjectBeneficiary,omitempty"`
}

// Validate checks structural soundness: a present name and no negative amounts.
func (e ContributionEntry) Validate() error {
	if e.Name == "" {
		return ErrMissingName
	}
	if e.DDFAmount.IsNegative() {
		return fmt.Errorf("ddf amount for %q: %w", e.Name, ErrNegativeAmount)
	}
	if e.CashDirect.IsNegative() {
		return fmt.Errorf("direct cash for %q: %w", e.Name, ErrNegativeAmount)
	}
	if e.CashThroughTRF.IsNegative() {
		return fmt.Errorf("cash through TRF for %q: %w", e.Name, ErrNegativeAmount)
	}
	return nil
}

// TRFFee returns the fee retained on this entry's cash routed through TRF.
func (e ContributionEntry) TRFFee() decimal.Decimal {
	return e.CashThroughTRF.Mul(TRFFeeRate)
}

// NetCashTRF returns the cash routed through TRF after the fee is deducted.
func (e ContributionEntry) NetCashTRF() decimal.Decimal {
	return e.CashThroughTRF.Sub(e.TRFFee())
}

// Total returns the entry's full commitment before fees.
func (e ContributionEntry) Total() decimal.Decimal {
	return e.DDFAmount.Add(e.CashDirect).Add(e.CashThroughTRF)
}

// AttestedEligible reports whether both donor eligibility attestations are set.
func (e ContributionEntry) AttestedEligible() bool {
	return e.NotCooperatingOrg && e.NotProjectBeneficiary
}

// EndowedGift is a directed gift from an endowed fund. It enters the budget
// as-is: no TRF fee is taken and no World Fund match applies.
type EndowedGift struct {
	Amount decimal.Decimal `json:"amount"`

	// International marks gifts directed by an international sponsor, which
	// count toward the international funding share.
	International bool `json:"international,omitempty"`
}

// Validate checks that the gift amount is not negative.
func (g EndowedGift) Validate() error {
	if g.Amount.IsNegative() {
		return fmt.Errorf("endowed gift amount: %w", ErrNegativeAmount)
	}
	return nil
}

// FundingInputs is the complete, self-contained input set for one funding
// calculation. It marshals to JSON and back without losing precision.
type FundingInputs struct {
	HostClubs          []ContributionEntry `json:"hostClubs"`
	InternationalClubs []ContributionEntry `json:"internationalClubs"`
	OtherDonors        []ContributionEntry `json:"otherDonors"`
	EndowedGift        *EndowedGift        `json:"endowedGift,omitempty"`
}

// ByCategory returns the entries recorded under the given category.
func (in FundingInputs) ByCategory(c Category) []ContributionEntry {
	switch c {
	case CategoryHost:
		return in.HostClubs
	case CategoryInternational:
		return in.InternationalClubs
	case CategoryOther:
		return in.OtherDonors
	}
	return nil
}

// Validate checks every entry and the endowed gift for structural errors.
func (in FundingInputs) Validate() error {
	for _, c := range Categories {
		for _, e := range in.ByCategory(c) {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("%s entry: %w", c, err)
			}
		}
	}
	if in.EndowedGift != nil {
		if err := in.EndowedGift.Validate(); err != nil {
			return err
		}
	}
	return nil
}
