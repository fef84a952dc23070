package project

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rotarytools/grantcalc/internal/domain"
)

// additionalDDFEntry names the synthetic host entry carrying a planner
// file's district-level DDF amount, which was not attached to any club row.
const additionalDDFEntry = "Additional District DDF"

// LegacyImport is a planner document from the retired desktop tool mapped
// onto current funding inputs.
type LegacyImport struct {
	ApplicationNumber string
	Country           string
	Inputs            domain.FundingInputs
}

// ParseLegacy converts a planner document from the desktop tool. Club cash
// was always routed through TRF there, so it maps onto the TRF bucket, and
// the document's loose district DDF becomes a synthetic host entry. The old
// format carried no donor eligibility attestations, so imported projects
// fail the donor eligibility rule until re-attested.
func ParseLegacy(data []byte) (LegacyImport, error) {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return LegacyImport{}, fmt.Errorf("parsing planner document: %w", err)
	}
	if doc.ApplicationNumber == "" {
		return LegacyImport{}, ErrMissingApplicationNumber
	}
	if doc.DDF.value.IsNegative() {
		return LegacyImport{}, fmt.Errorf("district ddf: %w", domain.ErrNegativeAmount)
	}

	var in domain.FundingInputs
	for _, c := range doc.HostClubs {
		in.HostClubs = append(in.HostClubs, legacyClubEntry(c))
	}
	for _, c := range doc.InternationalClubs {
		in.InternationalClubs = append(in.InternationalClubs, legacyClubEntry(c))
	}
	if doc.DDF.value.IsPositive() {
		in.HostClubs = append(in.HostClubs, domain.ContributionEntry{
			Name:      additionalDDFEntry,
			DDFAmount: doc.DDF.value,
		})
	}
	for _, d := range doc.OtherDonors {
		in.OtherDonors = append(in.OtherDonors, domain.ContributionEntry{
			Name:       d.Name,
			CashDirect: d.Amount.value,
		})
	}

	li := LegacyImport{
		ApplicationNumber: doc.ApplicationNumber,
		Country:           doc.ProjectCountry,
		Inputs:            in,
	}
	if err := li.Inputs.Validate(); err != nil {
		return LegacyImport{}, fmt.Errorf("planner document: %w", err)
	}
	return li, nil
}

type legacyDocument struct {
	ApplicationNumber  string        `json:"application_number"`
	ProjectCountry     string        `json:"project_country"`
	HostClubs          []legacyClub  `json:"host_clubs"`
	InternationalClubs []legacyClub  `json:"international_clubs"`
	DDF                legacyAmount  `json:"ddf"`
	OtherDonors        []legacyDonor `json:"other_donors"`
}

type legacyClub struct {
	Name string       `json:"name"`
	DDF  legacyAmount `json:"ddf"`
	Cash legacyAmount `json:"cash"`
}

type legacyDonor struct {
	Name   string       `json:"name"`
	Amount legacyAmount `json:"amount"`
}

// legacyAmount tolerates both JSON numbers and quoted strings, which both
// occur across planner file vintages. Invalid strings parse as zero, the
// way the desktop tool read them.
type legacyAmount struct {
	value decimal.Decimal
}

func (a *legacyAmount) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		a.value = decimal.NewFromFloat(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("amount is neither number nor string: %s", data)
	}
	a.value = domain.SafeParse(s)
	return nil
}

func legacyClubEntry(c legacyClub) domain.ContributionEntry {
	return domain.ContributionEntry{
		Name:           c.Name,
		DDFAmount:      c.DDF.value,
		CashThroughTRF: c.Cash.value,
	}
}
