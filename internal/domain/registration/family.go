package registration

import (
	"strings"
	"time"

	"github.com/familyreg/backend/internal/domain/shared"
)

// RegistrationDateLayout renders the human readable registration date (day/month/year)
const RegistrationDateLayout = "02/01/2006"

// AggregateTypeFamily is the aggregate type recorded on family events
const AggregateTypeFamily = "Family"

// PrimaryMember is the contact sub-record stored with a family
type PrimaryMember struct {
	MemberKey   string `json:"member_key"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	WhatsApp    string `json:"whatsapp,omitempty"`
	Aadhaar     string `json:"aadhaar"`
	DateOfBirth string `json:"dob"`
	PhotoURL    string `json:"photo_url,omitempty"`
	PhotoKey    string `json:"photo_key,omitempty"`
}

// Family is a submitted registration
type Family struct {
	shared.BaseAggregateRoot
	House
	Members          []Member
	PrimaryMember    PrimaryMember
	TotalMembers     int
	RegistrationDate string
}

// AssembleFamily flattens a validated draft into the record written to the store.
// photo is nil when no guardian photo was attached. The registration date is
// rendered in now's location while CreatedAt is stored in UTC.
func AssembleFamily(draft RegistrationDraft, photo *UploadedPhoto, now time.Time) (*Family, error) {
	primary, ok := draft.MemberByKey(draft.PrimaryContact.MemberKey)
	if !ok {
		return nil, &ValidationError{
			Code:    CodePrimaryContactInvalid,
			Message: "Please select a primary member",
			Fields:  []FieldError{{Field: "member_key", Rule: RuleUnknownMember, Message: "Selected member is no longer in the roster"}},
		}
	}
	phone, _ := NormalizePhone(draft.PrimaryContact.Phone)
	whatsapp, _ := NormalizePhone(draft.PrimaryContact.WhatsApp)

	f := &Family{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		House:             draft.House.trimmed(),
		Members:           append([]Member{}, draft.Members...),
		PrimaryMember: PrimaryMember{
			MemberKey:   primary.Key,
			Name:        primary.DisplayName(),
			Phone:       phone,
			WhatsApp:    whatsapp,
			Aadhaar:     primary.AadhaarNumber,
			DateOfBirth: primary.DateOfBirth,
		},
		TotalMembers: len(draft.Members),
	}
	f.RegistrationDate = now.Format(RegistrationDateLayout)
	if photo != nil {
		f.PrimaryMember.PhotoURL = photo.URL
		f.PrimaryMember.PhotoKey = photo.Key
	}
	f.AddDomainEvent(NewFamilyRegisteredEvent(f))
	return f, nil
}

// FamilyUpdate is the admin-editable part of a family
type FamilyUpdate struct {
	HouseName   string
	FamilyName  string
	Location    string
	RoadName    string
	Address     string
	PrimaryName string
	Phone       string
	WhatsApp    string
}

// ApplyUpdate edits house details and the primary contact, bumping the version
func (f *Family) ApplyUpdate(u FamilyUpdate, now time.Time) error {
	var errs fieldErrors
	required := map[string]string{
		"house_name":   u.HouseName,
		"family_name":  u.FamilyName,
		"location":     u.Location,
		"road_name":    u.RoadName,
		"address":      u.Address,
		"primary_name": u.PrimaryName,
	}
	for _, field := range []string{"house_name", "family_name", "location", "road_name", "address", "primary_name"} {
		if isBlank(required[field]) {
			errs.add(field, RuleRequired, field+" is required")
		}
	}
	phone, ok := NormalizePhone(u.Phone)
	if !ok {
		errs.add("phone", RulePhoneLength, "Phone number must be 10 digits")
	}
	whatsapp := ""
	if !isBlank(u.WhatsApp) {
		var wok bool
		if whatsapp, wok = NormalizePhone(u.WhatsApp); !wok {
			errs.add("whatsapp", RuleWhatsAppLength, "WhatsApp number must be 10 digits")
		}
	}
	if err := errs.toError(CodeFamilyInvalid, "Please fill all family details"); err != nil {
		return err
	}

	f.HouseName = strings.TrimSpace(u.HouseName)
	f.FamilyName = strings.TrimSpace(u.FamilyName)
	f.Location = strings.TrimSpace(u.Location)
	f.RoadName = strings.TrimSpace(u.RoadName)
	f.Address = strings.TrimSpace(u.Address)
	f.PrimaryMember.Name = strings.TrimSpace(u.PrimaryName)
	f.PrimaryMember.Phone = phone
	f.PrimaryMember.WhatsApp = whatsapp
	f.Touch(now)
	f.IncrementVersion()
	f.AddDomainEvent(NewFamilyUpdatedEvent(f))
	return nil
}

// MarkDeleted queues the deletion event
func (f *Family) MarkDeleted() {
	f.AddDomainEvent(NewFamilyDeletedEvent(f))
}

// HasPhoto reports whether a guardian photo is stored
func (f *Family) HasPhoto() bool {
	return f.PrimaryMember.PhotoKey != ""
}
