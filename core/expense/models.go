package expense

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kitabu/core"
)

type Item struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type (
	YearMonths map[string][]Item
	// Ledger is the expenses document: year -> month -> items, in insertion order.
	Ledger map[string]YearMonths
)

// Append adds item at the end of the month's list, creating the path when absent.
func (l Ledger) Append(year, month string, item Item) {
	months := core.Ensure(l, year)
	months[month] = append(months[month], item)
}

// DeleteByIndex removes the item at index; later items shift down by one.
func (l Ledger) DeleteByIndex(year, month string, index int) (Item, error) {
	items, ok := l[year][month]
	if !ok {
		return Item{}, core.NewNotFoundError("no expenses recorded for %s %s", month, year)
	}
	if index < 0 || index >= len(items) {
		return Item{}, core.NewValidationError(nil, core.FieldError{Field: "index", Error: "index out of range"})
	}

	item := items[index]
	l[year][month] = append(items[:index:index], items[index+1:]...)
	return item, nil
}

// NewItem contains information needed to record an expense.
type NewItem struct {
	Year        core.Year   `json:"year" validate:"required,gte=1,lte=9999"`
	Month       string      `json:"month" validate:"required,month"`
	Amount      core.Amount `json:"amount" validate:"required,gt=0,max_amount"`
	Description string      `json:"description" validate:"required"`
}

func (ni *NewItem) Validate(validate *validator.Validate) error {
	ni.Month = core.CleanString(ni.Month)
	ni.Description = core.CleanString(ni.Description)
	if err := validate.Struct(ni); err != nil {
		return err
	}
	ni.Month = core.MonthName(ni.Month)
	return nil
}

// DeleteItem identifies the expense to delete by its position in the month's list.
type DeleteItem struct {
	Year  core.Year `json:"year" validate:"required,gte=1,lte=9999"`
	Month string    `json:"month" validate:"required,month"`
	Index *int      `json:"index" validate:"required"`
}

func (di *DeleteItem) Validate(validate *validator.Validate) error {
	di.Month = core.CleanString(di.Month)
	if err := validate.Struct(di); err != nil {
		return err
	}
	di.Month = core.MonthName(di.Month)
	return nil
}
