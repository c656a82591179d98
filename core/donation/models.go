package donation

import (
	"bytes"
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kitabu/core"
)

// Ledger kinds
const (
	KindDonation = "donation"
	KindFine     = "fine"
)

// CounterDonatedRemoved is the counters key holding the total stripped from soft-deleted members.
const CounterDonatedRemoved = "donatedRemoved"

var Kinds = []string{KindDonation, KindFine}

// Entry holds the running totals of one member for one month.
type Entry struct {
	Donation float64 `json:"donation"`
	Fine     float64 `json:"fine"`
}

// UnmarshalJSON also accepts the legacy numeric leaf, read as a donation total.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var total float64
		if err := json.Unmarshal(data, &total); err != nil {
			return err
		}
		*e = Entry{Donation: total}
		return nil
	}

	type entry Entry
	var v entry
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = Entry(v)
	return nil
}

func (e Entry) Total() float64 {
	return e.Donation + e.Fine
}

type (
	// MonthEntries maps roll numbers to their totals.
	MonthEntries map[string]Entry
	YearMonths   map[string]MonthEntries
	// Ledger is the donations document: year -> month -> roll number -> totals.
	Ledger map[string]YearMonths
)

// UnmarshalJSON re-keys the entries by canonical roll number.
// Entries whose keys collide ("007" and "7") are summed.
func (m *MonthEntries) UnmarshalJSON(data []byte) error {
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = nil
		return nil
	}
	entries := make(MonthEntries, len(raw))
	for key, e := range raw {
		k := core.NewRollNo(key).String()
		prev := entries[k]
		entries[k] = Entry{Donation: prev.Donation + e.Donation, Fine: prev.Fine + e.Fine}
	}
	*m = entries
	return nil
}

// Accumulate adds amount to the kind total of rollNo, creating the path when absent.
func (l Ledger) Accumulate(year, month string, rollNo core.RollNo, kind string, amount float64) Entry {
	entries := core.Ensure(core.Ensure(l, year), month)
	e := entries[rollNo.String()]
	if kind == KindFine {
		e.Fine += amount
	} else {
		e.Donation += amount
	}
	entries[rollNo.String()] = e
	return e
}

// RemoveRollNo deletes every entry of rollNo across all years and months.
// It returns the sum of the removed totals and whether anything was removed.
func (l Ledger) RemoveRollNo(rollNo core.RollNo) (float64, bool) {
	var (
		removed float64
		found   bool
	)
	for _, months := range l {
		for _, entries := range months {
			for key, e := range entries {
				// keys written before canonicalization may carry leading zeros
				if core.NewRollNo(key) == rollNo {
					removed += e.Total()
					found = true
					delete(entries, key)
				}
			}
		}
	}
	return removed, found
}

// Month returns the entries of one month, or nil.
func (l Ledger) Month(year, month string) MonthEntries {
	return l[year][month]
}

// Counters is the additional document: flat derived counters.
type Counters map[string]float64

func (c *Counters) Add(key string, delta float64) {
	if *c == nil {
		*c = make(Counters)
	}
	(*c)[key] += delta
}

// NewEntry contains information needed to accumulate an amount on the ledger.
type NewEntry struct {
	Year   core.Year   `json:"year" form:"year" validate:"required,gte=1,lte=9999"`
	Month  string      `json:"month" form:"month" validate:"required,month"`
	RollNo core.RollNo `json:"rollNo" form:"rollNo" validate:"required"`
	Amount core.Amount `json:"amount" form:"amount" validate:"required,gt=0,max_amount"`
	Kind   string      `json:"kind" form:"kind" validate:"omitempty,ledger_kind"`
}

// Validate cleans ne, validates it, then canonicalizes its month and defaults its kind.
func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Month = core.CleanString(ne.Month)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	ne.Month = core.MonthName(ne.Month)
	if ne.Kind == "" {
		ne.Kind = KindDonation
	}
	return nil
}
