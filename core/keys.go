package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var errNotNumeric = errors.New("must be a number")

// RollNo is a member's roll number in canonical form.
// Roll numbers made of ASCII digits only lose their leading zeros ("007" == "7");
// any other roll number is kept as is (trimmed).
type RollNo string

func NewRollNo(s string) RollNo {
	s = CleanString(s)
	if s == "" || !isDigits(s) {
		return RollNo(s)
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return RollNo(s)
}

func (r RollNo) String() string { return string(r) }

// UnmarshalJSON accepts both JSON strings and numbers.
func (r *RollNo) UnmarshalJSON(data []byte) error {
	s, err := scalarString(data)
	if err != nil {
		return errors.Wrap(err, "roll number")
	}
	*r = NewRollNo(s)
	return nil
}

// UnmarshalParam implements echo.BindUnmarshaler.
func (r *RollNo) UnmarshalParam(param string) error {
	*r = NewRollNo(param)
	return nil
}

// Key is a tree key (e.g. a day) sent either as a JSON string or a number.
type Key string

func (k *Key) UnmarshalJSON(data []byte) error {
	s, err := scalarString(data)
	if err != nil {
		return err
	}
	*k = Key(CleanString(s))
	return nil
}

func (k *Key) UnmarshalParam(param string) error {
	*k = Key(CleanString(param))
	return nil
}

// Year is a calendar year sent either as a JSON number or a numeric string.
type Year int

func ParseYear(s string) (Year, error) {
	y, err := strconv.Atoi(CleanString(s))
	if err != nil {
		return 0, errors.New("must be a year")
	}
	return Year(y), nil
}

// Key returns the tree key of the year.
func (y Year) Key() string { return YearKey(int(y)) }

func (y *Year) UnmarshalJSON(data []byte) error {
	s, err := scalarString(data)
	if err != nil || s == "" {
		return errors.New("must be a year")
	}
	yr, err := ParseYear(s)
	if err != nil {
		return err
	}
	*y = yr
	return nil
}

func (y *Year) UnmarshalParam(param string) error {
	yr, err := ParseYear(param)
	if err != nil {
		return err
	}
	*y = yr
	return nil
}

// Amount is a money amount sent either as a JSON number or a numeric string.
type Amount float64

func ParseAmount(s string) (Amount, error) {
	f, err := strconv.ParseFloat(CleanString(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumeric
	}
	return Amount(f), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	s, err := scalarString(data)
	if err != nil {
		return errNotNumeric
	}
	amt, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = amt
	return nil
}

func (a *Amount) UnmarshalParam(param string) error {
	amt, err := ParseAmount(param)
	if err != nil {
		return err
	}
	*a = amt
	return nil
}

// scalarString returns the text of a JSON string or number.
func scalarString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", errors.New("must be a string or a number")
	}
	return n.String(), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
