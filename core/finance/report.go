package finance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/donation"
	"github.com/trezcool/kitabu/core/expense"
	"github.com/trezcool/kitabu/core/member"
)

var nowFunc = time.Now // mockable

// MemberTotals is one report row: what a member gave during the period.
type MemberTotals struct {
	RollNo   core.RollNo `json:"roll_no"`
	Name     string      `json:"name"`
	Donation float64     `json:"donation"`
	Fine     float64     `json:"fine"`
}

// Report gathers everything recorded for one month.
type Report struct {
	Period      Period         `json:"period"`
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     Summary        `json:"summary"`
	Members     []MemberTotals `json:"members"`
	Expenses    []expense.Item `json:"expenses"`
}

// MonthlyReport reads the members, donations and expenses of one month under a single set of read locks.
func (svc *Service) MonthlyReport(ctx context.Context, p Period) (Report, error) {
	rep := Report{
		Period:      p,
		GeneratedAt: nowFunc().UTC(),
		Members:     make([]MemberTotals, 0),
		Expenses:    make([]expense.Item, 0),
	}
	docs := []string{core.DocDonations, core.DocExpenses, core.DocMembers}
	err := svc.db.View(ctx, docs, func(tx core.DocTx) error {
		var (
			donations donation.Ledger
			expenses  expense.Ledger
			roster    member.Roster
		)
		if err := tx.Get(core.DocDonations, &donations); err != nil {
			return err
		}
		if err := tx.Get(core.DocExpenses, &expenses); err != nil {
			return err
		}
		if err := tx.Get(core.DocMembers, &roster); err != nil {
			return err
		}

		names := make(map[core.RollNo]string, len(roster))
		for _, m := range roster {
			names[m.RollNo] = strings.TrimSpace(m.Name + " " + m.LastName)
		}

		entries := donations.Month(p.Year.Key(), p.Month)
		rep.Summary.addEntries(entries)
		for key, e := range entries {
			rollNo := core.NewRollNo(key)
			rep.Members = append(rep.Members, MemberTotals{
				RollNo:   rollNo,
				Name:     names[rollNo],
				Donation: e.Donation,
				Fine:     e.Fine,
			})
		}
		sort.Slice(rep.Members, func(i, j int) bool {
			return lessRollNo(rep.Members[i].RollNo, rep.Members[j].RollNo)
		})

		rep.Expenses = append(rep.Expenses, expenses[p.Year.Key()][p.Month]...)
		rep.Summary.addItems(rep.Expenses)
		return nil
	})
	if err != nil {
		return Report{}, errors.Wrap(err, "building monthly report")
	}
	rep.Summary.computeNet()
	return rep, nil
}

// lessRollNo orders numeric roll numbers by value, before any other roll number.
func lessRollNo(a, b core.RollNo) bool {
	na, errA := strconv.Atoi(a.String())
	nb, errB := strconv.Atoi(b.String())
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// WriteCSV writes the report as a sectioned CSV sheet.
func (rep Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"Monthly Report"},
		{"Month", rep.Period.Month + " " + rep.Period.Year.Key()},
		{"Generated", rep.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		{"SUMMARY"},
		{"Total Donations", money(rep.Summary.TotalDonations)},
		{"Total Fines", money(rep.Summary.TotalFines)},
		{"Total Expenses", money(rep.Summary.TotalExpenses)},
		{"Net Amount", money(rep.Summary.NetAmount)},
		{},
	}

	if len(rep.Members) > 0 {
		rows = append(rows, []string{"MEMBERS"}, []string{"Roll No", "Name", "Donation", "Fine"})
		for _, m := range rep.Members {
			rows = append(rows, []string{m.RollNo.String(), m.Name, money(m.Donation), money(m.Fine)})
		}
		rows = append(rows, []string{})
	}

	if len(rep.Expenses) > 0 {
		rows = append(rows, []string{"EXPENSES"}, []string{"#", "Description", "Amount"})
		for i, it := range rep.Expenses {
			rows = append(rows, []string{strconv.Itoa(i), it.Description, money(it.Amount)})
		}
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing report")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing report")
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
