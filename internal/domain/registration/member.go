package registration

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage layout for dates of birth
const DateLayout = "2006-01-02"

// Position is a member's role within the household
type Position string

const (
	PositionFather   Position = "Father"
	PositionMother   Position = "Mother"
	PositionSon      Position = "Son"
	PositionDaughter Position = "Daughter"
	PositionWife     Position = "Wife"
	PositionOther    Position = "Other"
)

// Positions lists every accepted position in display order
var Positions = []Position{
	PositionFather,
	PositionMother,
	PositionSon,
	PositionDaughter,
	PositionWife,
	PositionOther,
}

// IsValid reports whether p is one of the known positions
func (p Position) IsValid() bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

// MemberFields is the editable part of a member, as entered in a form
type MemberFields struct {
	FullName      string   `json:"full_name"`
	Surname       string   `json:"surname"`
	FatherName    string   `json:"father_name"`
	MotherName    string   `json:"mother_name"`
	AadhaarNumber string   `json:"aadhaar_number"`
	Phone         string   `json:"phone"`
	DateOfBirth   string   `json:"date_of_birth"`
	Position      Position `json:"position"`
}

// Member is one roster entry. Key is assigned once and never changes,
// so references to a member survive edits to its name.
type Member struct {
	Key string `json:"key"`
	MemberFields
}

func newMemberKey() string {
	return uuid.NewString()
}

// NewBlankMember returns an empty inline row
func NewBlankMember() Member {
	return Member{
		Key:          newMemberKey(),
		MemberFields: MemberFields{Position: PositionSon},
	}
}

// DisplayName joins full name and surname the way the primary contact is shown
func (m Member) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(m.FullName) + " " + strings.TrimSpace(m.Surname))
}

// Validate checks the fields required to save a member from the editor.
// It reports one FieldError per failed rule.
func (f MemberFields) Validate() error {
	var errs fieldErrors

	required := []struct {
		field string
		value string
		label string
	}{
		{"full_name", f.FullName, "Full name"},
		{"surname", f.Surname, "Surname"},
		{"father_name", f.FatherName, "Father's name"},
		{"mother_name", f.MotherName, "Mother's name"},
		{"date_of_birth", f.DateOfBirth, "Date of birth"},
		{"aadhaar_number", f.AadhaarNumber, "Aadhaar number"},
	}
	for _, r := range required {
		if isBlank(r.value) {
			errs.add(r.field, RuleRequired, r.label+" is required")
		}
	}

	if !isBlank(f.AadhaarNumber) {
		if _, ok := NormalizeAadhaar(f.AadhaarNumber); !ok {
			errs.add("aadhaar_number", RuleAadhaarLength, "Aadhaar must be 12 digits")
		}
	}
	if !isBlank(f.Phone) {
		if _, ok := NormalizePhone(f.Phone); !ok {
			errs.add("phone", RulePhoneLength, "Phone number must be 10 digits")
		}
	}
	if !isBlank(f.DateOfBirth) {
		if _, err := time.Parse(DateLayout, strings.TrimSpace(f.DateOfBirth)); err != nil {
			errs.add("date_of_birth", RuleInvalidDate, "Date of birth must be YYYY-MM-DD")
		}
	}
	if f.Position != "" && !f.Position.IsValid() {
		errs.add("position", RuleInvalidPosition, "Unknown position")
	}

	return errs.toError(CodeMemberInvalid, "Please fill all required fields")
}

// normalized trims text fields and reduces Aadhaar and phone to digits.
// Call only after Validate succeeded.
func (f MemberFields) normalized() MemberFields {
	out := MemberFields{
		FullName:    strings.TrimSpace(f.FullName),
		Surname:     strings.TrimSpace(f.Surname),
		FatherName:  strings.TrimSpace(f.FatherName),
		MotherName:  strings.TrimSpace(f.MotherName),
		DateOfBirth: strings.TrimSpace(f.DateOfBirth),
		Position:    f.Position,
	}
	out.AadhaarNumber, _ = NormalizeAadhaar(f.AadhaarNumber)
	out.Phone, _ = NormalizePhone(f.Phone)
	if out.Position == "" {
		out.Position = PositionOther
	}
	return out
}
