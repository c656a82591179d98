package attendance

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

// Ledger returns the whole attendance document.
func (svc *Service) Ledger(ctx context.Context) (Ledger, error) {
	ledger := make(Ledger)
	err := svc.db.View(ctx, []string{core.DocAttendance}, func(tx core.DocTx) error {
		return tx.Get(core.DocAttendance, &ledger)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading attendance")
	}
	return ledger, nil
}

func (svc *Service) Mark(ctx context.Context, m Marking) error {
	err := svc.db.Update(ctx, []string{core.DocAttendance}, func(tx core.DocTx) error {
		ledger := make(Ledger)
		if err := tx.Get(core.DocAttendance, &ledger); err != nil {
			return err
		}
		ledger.Mark(m.Year.Key(), m.Month, string(m.Day), m.RollNumbers)
		return tx.Put(core.DocAttendance, ledger)
	})
	return errors.Wrap(err, "marking attendance")
}

// Unmark returns the roll numbers actually removed.
func (svc *Service) Unmark(ctx context.Context, m Marking) ([]core.RollNo, error) {
	var removed []core.RollNo
	err := svc.db.Update(ctx, []string{core.DocAttendance}, func(tx core.DocTx) error {
		ledger := make(Ledger)
		if err := tx.Get(core.DocAttendance, &ledger); err != nil {
			return err
		}
		var err error
		if removed, err = ledger.Unmark(m.Year.Key(), m.Month, string(m.Day), m.RollNumbers); err != nil {
			return err
		}
		return tx.Put(core.DocAttendance, ledger)
	})
	if err != nil {
		return nil, errors.Wrap(err, "unmarking attendance")
	}
	return removed, nil
}
