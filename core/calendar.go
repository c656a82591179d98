package core

import (
	"strconv"
	"strings"
	"time"
)

var monthsByName = func() map[string]time.Month {
	m := make(map[string]time.Month, 12)
	for mo := time.January; mo <= time.December; mo++ {
		m[strings.ToLower(mo.String())] = mo
	}
	return m
}()

// ParseMonth resolves a calendar month name, case-insensitively.
func ParseMonth(name string) (time.Month, bool) {
	mo, ok := monthsByName[CleanString(name, true /* lower */)]
	return mo, ok
}

// MonthName returns the canonical spelling of a month name ("march" -> "March").
// It returns "" when name is not a calendar month.
func MonthName(name string) string {
	if mo, ok := ParseMonth(name); ok {
		return mo.String()
	}
	return ""
}

// YearKey is the tree key of a year.
func YearKey(year int) string {
	return strconv.Itoa(year)
}
