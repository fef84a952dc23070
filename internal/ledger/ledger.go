package ledger

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/rotarytools/grantcalc/internal/domain"
)

// Ledger accumulates contribution entries by category while a funding plan
// is being drafted. The zero value is not usable; call New or FromInputs.
// A Ledger is not safe for concurrent use.
type Ledger struct {
	entries map[domain.Category][]domain.ContributionEntry
	endowed *domain.EndowedGift
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[domain.Category][]domain.ContributionEntry)}
}

// FromInputs returns a ledger loaded with the given inputs. The ledger
// shares no memory with them; entries are assumed to be already validated.
func FromInputs(in domain.FundingInputs) *Ledger {
	l := New()
	for _, c := range domain.Categories {
		entries := in.ByCategory(c)
		if len(entries) == 0 {
			continue
		}
		l.entries[c] = append([]domain.ContributionEntry(nil), entries...)
	}
	if in.EndowedGift != nil {
		gift := *in.EndowedGift
		l.endowed = &gift
	}
	return l
}

// AddEntry validates the entry and records it under the given category.
// The ledger is unchanged when an error is returned.
func (l *Ledger) AddEntry(c domain.Category, e domain.ContributionEntry) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
	}
	if err := e.Validate(); err != nil {
		return err
	}
	l.entries[c] = append(l.entries[c], e)
	return nil
}

// SetEndowedGift validates and records the endowed gift, replacing any
// previously recorded one. A nil gift clears it.
func (l *Ledger) SetEndowedGift(g *domain.EndowedGift) error {
	if g == nil {
		l.endowed = nil
		return nil
	}
	if err := g.Validate(); err != nil {
		return err
	}
	gift := *g
	l.endowed = &gift
	return nil
}

// Entries returns a copy of the entries recorded under the given category.
func (l *Ledger) Entries(c domain.Category) []domain.ContributionEntry {
	return append([]domain.ContributionEntry(nil), l.entries[c]...)
}

// EndowedGift returns a copy of the recorded endowed gift, or nil when none
// has been set.
func (l *Ledger) EndowedGift() *domain.EndowedGift {
	if l.endowed == nil {
		return nil
	}
	gift := *l.endowed
	return &gift
}

// Len returns the number of contribution entries across all categories.
func (l *Ledger) Len() int {
	total := 0
	for _, entries := range l.entries {
		total += len(entries)
	}
	return total
}

// TotalDDF sums DDF commitments across all categories.
func (l *Ledger) TotalDDF() decimal.Decimal {
	return l.sum(func(e domain.ContributionEntry) decimal.Decimal {
		return e.DDFAmount
	})
}

// TotalCashDirect sums cash paid directly to the project across all categories.
func (l *Ledger) TotalCashDirect() decimal.Decimal {
	return l.sum(func(e domain.ContributionEntry) decimal.Decimal {
		return e.CashDirect
	})
}

// TotalCashTRF sums gross cash routed through TRF across all categories.
func (l *Ledger) TotalCashTRF() decimal.Decimal {
	return l.sum(func(e domain.ContributionEntry) decimal.Decimal {
		return e.CashThroughTRF
	})
}

// TotalByCategory returns the full commitment (DDF plus all cash, before
// fees) recorded under one category.
func (l *Ledger) TotalByCategory(c domain.Category) decimal.Decimal {
	return sumEntries(l.entries[c], func(e domain.ContributionEntry) decimal.Decimal {
		return e.Total()
	})
}

// Snapshot returns the ledger contents as self-contained funding inputs.
// The snapshot shares no memory with the ledger, so later mutations of
// either side do not affect the other.
func (l *Ledger) Snapshot() domain.FundingInputs {
	return domain.FundingInputs{
		HostClubs:          l.Entries(domain.CategoryHost),
		InternationalClubs: l.Entries(domain.CategoryInternational),
		OtherDonors:        l.Entries(domain.CategoryOther),
		EndowedGift:        l.EndowedGift(),
	}
}

func (l *Ledger) sum(amount func(domain.ContributionEntry) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range domain.Categories {
		total = total.Add(sumEntries(l.entries[c], amount))
	}
	return total
}

func sumEntries(entries []domain.ContributionEntry, amount func(domain.ContributionEntry) decimal.Decimal) decimal.Decimal {
	return lo.Reduce(entries, func(acc decimal.Decimal, e domain.ContributionEntry, _ int) decimal.Decimal {
		return acc.Add(amount(e))
	}, decimal.Zero)
}
