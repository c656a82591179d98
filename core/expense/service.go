package expense

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

// Ledger returns the whole expenses document.
func (svc *Service) Ledger(ctx context.Context) (Ledger, error) {
	ledger := make(Ledger)
	err := svc.db.View(ctx, []string{core.DocExpenses}, func(tx core.DocTx) error {
		return tx.Get(core.DocExpenses, &ledger)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading expenses")
	}
	return ledger, nil
}

func (svc *Service) Append(ctx context.Context, ni NewItem) error {
	err := svc.db.Update(ctx, []string{core.DocExpenses}, func(tx core.DocTx) error {
		ledger := make(Ledger)
		if err := tx.Get(core.DocExpenses, &ledger); err != nil {
			return err
		}
		ledger.Append(ni.Year.Key(), ni.Month, Item{Amount: float64(ni.Amount), Description: ni.Description})
		return tx.Put(core.DocExpenses, ledger)
	})
	return errors.Wrap(err, "adding expense")
}

// Delete removes one expense and returns it.
func (svc *Service) Delete(ctx context.Context, di DeleteItem) (Item, error) {
	var item Item
	err := svc.db.Update(ctx, []string{core.DocExpenses}, func(tx core.DocTx) error {
		ledger := make(Ledger)
		if err := tx.Get(core.DocExpenses, &ledger); err != nil {
			return err
		}
		var err error
		if item, err = ledger.DeleteByIndex(di.Year.Key(), di.Month, *di.Index); err != nil {
			return err
		}
		return tx.Put(core.DocExpenses, ledger)
	})
	if err != nil {
		return Item{}, errors.Wrap(err, "deleting expense")
	}
	return item, nil
}
