package finance

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/donation"
	"github.com/trezcool/kitabu/core/expense"
)

type Summary struct {
	TotalDonations float64 `json:"totalDonations"`
	TotalFines     float64 `json:"totalFines"`
	TotalExpenses  float64 `json:"totalExpenses"`
	DonatedRemoved float64 `json:"donatedRemoved,omitempty"`
	NetAmount      float64 `json:"netAmount"`
}

func (s *Summary) addEntries(entries donation.MonthEntries) {
	for _, e := range entries {
		s.TotalDonations += e.Donation
		s.TotalFines += e.Fine
	}
}

func (s *Summary) addItems(items []expense.Item) {
	for _, it := range items {
		s.TotalExpenses += it.Amount
	}
}

func (s *Summary) computeNet() {
	s.NetAmount = s.TotalDonations + s.TotalFines + s.DonatedRemoved - s.TotalExpenses
}

// Period selects one month of the ledgers.
type Period struct {
	Year  core.Year `query:"year" json:"year" validate:"required,gte=1,lte=9999"`
	Month string    `query:"month" json:"month" validate:"required,month"`
}

func (p *Period) Validate(validate *validator.Validate) error {
	p.Month = core.CleanString(p.Month)
	if err := validate.Struct(p); err != nil {
		return err
	}
	p.Month = core.MonthName(p.Month)
	return nil
}

type Service struct {
	db core.DB
}

func NewService(db core.DB) *Service {
	return &Service{db: db}
}

// Monthly sums one month of the donation and expense ledgers.
func (svc *Service) Monthly(ctx context.Context, p Period) (Summary, error) {
	var sum Summary
	err := svc.db.View(ctx, []string{core.DocDonations, core.DocExpenses}, func(tx core.DocTx) error {
		var (
			donations donation.Ledger
			expenses  expense.Ledger
		)
		if err := tx.Get(core.DocDonations, &donations); err != nil {
			return err
		}
		if err := tx.Get(core.DocExpenses, &expenses); err != nil {
			return err
		}
		sum.addEntries(donations.Month(p.Year.Key(), p.Month))
		sum.addItems(expenses[p.Year.Key()][p.Month])
		return nil
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "computing monthly summary")
	}
	sum.computeNet()
	return sum, nil
}

// Overall sums the whole ledgers and includes the donatedRemoved counter.
func (svc *Service) Overall(ctx context.Context) (Summary, error) {
	var sum Summary
	docs := []string{core.DocCounters, core.DocDonations, core.DocExpenses}
	err := svc.db.View(ctx, docs, func(tx core.DocTx) error {
		var (
			donations donation.Ledger
			expenses  expense.Ledger
			counters  donation.Counters
		)
		if err := tx.Get(core.DocDonations, &donations); err != nil {
			return err
		}
		if err := tx.Get(core.DocExpenses, &expenses); err != nil {
			return err
		}
		if err := tx.Get(core.DocCounters, &counters); err != nil {
			return err
		}
		for _, months := range donations {
			for _, entries := range months {
				sum.addEntries(entries)
			}
		}
		for _, months := range expenses {
			for _, items := range months {
				sum.addItems(items)
			}
		}
		sum.DonatedRemoved = counters[donation.CounterDonatedRemoved]
		return nil
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "computing overall summary")
	}
	sum.computeNet()
	return sum, nil
}
