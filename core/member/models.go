package member

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kitabu/core"
)

// Member is one row of the roster. RollNo is the natural key.
type Member struct {
	RollNo   core.RollNo `json:"roll_no"`
	Name     string      `json:"name"`
	LastName string      `json:"last_name"`
	PhoneNo  string      `json:"phone_no"`
	Address  string      `json:"address"`
	ImageRef string      `json:"image_ref"`
}

// IsPlaceholder reports whether the row only reserves its roll number (never filled in or soft-deleted).
func (m Member) IsPlaceholder() bool {
	return m.Name == ""
}

// blank clears every personal field, keeping the roll number reserved.
func (m *Member) blank() {
	*m = Member{RollNo: m.RollNo}
}

// Roster is the members document.
type Roster []Member

func (r Roster) index(rollNo core.RollNo) int {
	for i, m := range r {
		if m.RollNo == rollNo {
			return i
		}
	}
	return -1
}

// NewMember contains information needed to create (or fill in) a Member.
type NewMember struct {
	RollNo   core.RollNo `json:"roll_no" form:"roll_no" validate:"required"`
	Name     string      `json:"name" form:"name"`
	LastName string      `json:"last_name" form:"last_name"`
	PhoneNo  string      `json:"phone_no" form:"phone_no" validate:"omitempty,max=32"`
	Address  string      `json:"address" form:"address"`
	ImageRef string      `json:"-" form:"-"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.LastName = core.CleanString(nm.LastName)
	nm.PhoneNo = core.CleanString(nm.PhoneNo)
	nm.Address = core.CleanString(nm.Address)
	return validate.Struct(nm)
}

// UpdateMember defines what information may be provided to modify an existing Member.
// Empty fields keep their current value.
type UpdateMember struct {
	Name     string `json:"name" form:"name"`
	LastName string `json:"last_name" form:"last_name"`
	PhoneNo  string `json:"phone_no" form:"phone_no" validate:"omitempty,max=32"`
	Address  string `json:"address" form:"address"`
	ImageRef string `json:"-" form:"-"`
}

func (um *UpdateMember) Validate(validate *validator.Validate) error {
	um.Name = core.CleanString(um.Name)
	um.LastName = core.CleanString(um.LastName)
	um.PhoneNo = core.CleanString(um.PhoneNo)
	um.Address = core.CleanString(um.Address)
	return validate.Struct(um)
}

func (um UpdateMember) apply(m *Member) {
	if um.Name != "" {
		m.Name = um.Name
	}
	if um.LastName != "" {
		m.LastName = um.LastName
	}
	if um.PhoneNo != "" {
		m.PhoneNo = um.PhoneNo
	}
	if um.Address != "" {
		m.Address = um.Address
	}
	if um.ImageRef != "" {
		m.ImageRef = um.ImageRef
	}
}
