package donation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
)

type Service struct {
	db core.DB
}

func NewService(db core.DB) *Service {
	return &Service{db: db}
}

// Ledger returns the whole donations document.
func (svc *Service) Ledger(ctx context.Context) (Ledger, error) {
	ledger := make(Ledger)
	err := svc.db.View(ctx, []string{core.DocDonations}, func(tx core.DocTx) error {
		return tx.Get(core.DocDonations, &ledger)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading donations")
	}
	return ledger, nil
}

// Accumulate adds a validated entry to the ledger and returns the updated totals.
func (svc *Service) Accumulate(ctx context.Context, ne NewEntry) (Entry, error) {
	var entry Entry
	err := svc.db.Update(ctx, []string{core.DocDonations}, func(tx core.DocTx) error {
		ledger := make(Ledger)
		if err := tx.Get(core.DocDonations, &ledger); err != nil {
			return err
		}
		entry = ledger.Accumulate(ne.Year.Key(), ne.Month, ne.RollNo, ne.Kind, float64(ne.Amount))
		return tx.Put(core.DocDonations, ledger)
	})
	if err != nil {
		return Entry{}, errors.Wrap(err, "accumulating donation")
	}
	return entry, nil
}

// Counters returns the additional counters document.
func (svc *Service) Counters(ctx context.Context) (Counters, error) {
	counters := make(Counters)
	err := svc.db.View(ctx, []string{core.DocCounters}, func(tx core.DocTx) error {
		return tx.Get(core.DocCounters, &counters)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading counters")
	}
	return counters, nil
}
