package attendance

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kitabu/core"
)

// Present is the only stored state: absence is the lack of an entry.
const Present = "present"

type (
	// DayRoll maps the roll numbers present on a day to Present.
	DayRoll    map[string]string
	MonthDays  map[string]DayRoll
	YearMonths map[string]MonthDays
	// Ledger is the attendance document: year -> month name -> day -> roll number -> "present".
	Ledger map[string]YearMonths
)

// UnmarshalJSON re-keys the roll by canonical roll number, so "007" and "7" are one entry.
func (d *DayRoll) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*d = nil
		return nil
	}
	roll := make(DayRoll, len(raw))
	for key, state := range raw {
		roll[core.NewRollNo(key).String()] = state
	}
	*d = roll
	return nil
}

// Mark records rollNos as present on the given date, creating the path when absent.
func (l Ledger) Mark(year, month, day string, rollNos []core.RollNo) {
	roll := core.Ensure(core.Ensure(core.Ensure(l, year), month), day)
	for _, rollNo := range rollNos {
		roll[rollNo.String()] = Present
	}
}

// Unmark removes rollNos from the given date and returns those that were actually present.
func (l Ledger) Unmark(year, month, day string, rollNos []core.RollNo) ([]core.RollNo, error) {
	roll, ok := l[year][month][day]
	if !ok {
		return nil, core.NewNotFoundError("no attendance recorded on %s %s %s", day, month, year)
	}

	removed := make([]core.RollNo, 0, len(rollNos))
	for _, rollNo := range rollNos {
		if _, ok := roll[rollNo.String()]; ok {
			delete(roll, rollNo.String())
			removed = append(removed, rollNo)
		}
	}
	if len(removed) == 0 {
		return nil, core.NewNotFoundError("none of the roll numbers were marked present on %s %s %s", day, month, year)
	}
	return removed, nil
}

// Marking contains information needed to mark (or unmark) members present on a date.
type Marking struct {
	Year        core.Year     `json:"year" validate:"required,gte=1,lte=9999"`
	Month       string        `json:"month" validate:"required,month"`
	Day         core.Key      `json:"day" validate:"required"`
	RollNumbers []core.RollNo `json:"rollNumbers" validate:"required,min=1,dive,required"`
}

// Validate cleans m, validates it, then canonicalizes its month and drops duplicate roll numbers.
func (m *Marking) Validate(validate *validator.Validate) error {
	m.Month = core.CleanString(m.Month)
	if err := validate.Struct(m); err != nil {
		return err
	}
	m.Month = core.MonthName(m.Month)
	m.RollNumbers = uniqueRollNos(m.RollNumbers)
	return nil
}

func uniqueRollNos(rollNos []core.RollNo) []core.RollNo {
	seen := make(map[core.RollNo]bool, len(rollNos))
	out := rollNos[:0]
	for _, r := range rollNos {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
