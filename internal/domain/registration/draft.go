package registration

import "strconv"

// PrimaryContact designates the member reached for household matters
type PrimaryContact struct {
	MemberKey string        `json:"member_key"`
	Phone     string        `json:"phone"`
	WhatsApp  string        `json:"whatsapp,omitempty"`
	Photo     *CroppedPhoto `json:"photo,omitempty"`
}

// RegistrationDraft is the in-progress registration owned by a wizard
type RegistrationDraft struct {
	House          House          `json:"house"`
	Members        []Member       `json:"members"`
	PrimaryContact PrimaryContact `json:"primary_contact"`
}

// NewDraft returns an empty draft. Inline rosters start with one blank row.
func NewDraft(cfg WizardConfig) RegistrationDraft {
	d := RegistrationDraft{Members: []Member{}}
	if cfg.IsInline() {
		d.Members = append(d.Members, NewBlankMember())
	}
	return d
}

// Clone returns a deep copy of the draft
func (d RegistrationDraft) Clone() RegistrationDraft {
	c := d
	c.Members = append([]Member{}, d.Members...)
	c.PrimaryContact.Photo = d.PrimaryContact.Photo.clone()
	return c
}

// MemberByKey looks a member up by its stable key
func (d RegistrationDraft) MemberByKey(key string) (Member, bool) {
	if key == "" {
		return Member{}, false
	}
	for _, m := range d.Members {
		if m.Key == key {
			return m, true
		}
	}
	return Member{}, false
}

// TotalMembers is the derived roster size
func (d RegistrationDraft) TotalMembers() int {
	return len(d.Members)
}

func (d RegistrationDraft) validateRoster(cfg WizardConfig) error {
	if len(d.Members) == 0 {
		return &ValidationError{Code: CodeRosterEmpty, Message: "Please add at least one member"}
	}
	if !cfg.IsInline() {
		return nil
	}
	var errs fieldErrors
	for i, m := range d.Members {
		if isBlank(m.FullName) {
			errs.add(memberField(i, "full_name"), RuleRequired, "Please fill all member names")
		}
	}
	return errs.toError(CodeMemberNameRequired, "Please fill all member names")
}

func (d RegistrationDraft) validatePrimaryContact(cfg WizardConfig) error {
	var errs fieldErrors
	pc := d.PrimaryContact
	if isBlank(pc.MemberKey) {
		errs.add("member_key", RuleRequired, "Please select a primary member")
	} else if _, ok := d.MemberByKey(pc.MemberKey); !ok {
		errs.add("member_key", RuleUnknownMember, "Selected member is no longer in the roster")
	}
	if isBlank(pc.Phone) {
		errs.add("phone", RuleRequired, "Phone number is required")
	} else if _, ok := NormalizePhone(pc.Phone); !ok {
		errs.add("phone", RulePhoneLength, "Phone number must be 10 digits")
	}
	if isBlank(pc.WhatsApp) {
		if cfg.RequireWhatsApp {
			errs.add("whatsapp", RuleRequired, "WhatsApp number is required")
		}
	} else if _, ok := NormalizePhone(pc.WhatsApp); !ok {
		errs.add("whatsapp", RuleWhatsAppLength, "WhatsApp number must be 10 digits")
	}
	return errs.toError(CodePrimaryContactInvalid, "Please complete the primary contact details")
}

func memberField(index int, field string) string {
	return "members[" + strconv.Itoa(index) + "]." + field
}
