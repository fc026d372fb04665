package registration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Step is a wizard state
type Step int

const (
	StepHouse          Step = 1
	StepMembers        Step = 2
	StepPrimaryContact Step = 3
	StepReview         Step = 4
	StepSubmitted      Step = 5
)

// String returns the wire name of the step
func (s Step) String() string {
	switch s {
	case StepHouse:
		return "house"
	case StepMembers:
		return "members"
	case StepPrimaryContact:
		return "primary_contact"
	case StepReview:
		return "review"
	case StepSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// ModalMode tells the member editor whether a save appends or replaces
type ModalMode string

const (
	ModalCreate ModalMode = "create"
	ModalEdit   ModalMode = "edit"
)

// MemberModal is the open member editor. Index is only meaningful in edit mode.
type MemberModal struct {
	Mode   ModalMode    `json:"mode"`
	Index  int          `json:"index"`
	Fields MemberFields `json:"fields"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Wizard drives one registration from the house step to submission
type Wizard struct {
	ID                uuid.UUID         `json:"id"`
	Config            WizardConfig      `json:"config"`
	Step              Step              `json:"step"`
	Draft             RegistrationDraft `json:"draft"`
	Modal             *MemberModal      `json:"modal,omitempty"`
	Preview           *PhotoPreview     `json:"preview,omitempty"`
	UploadedPhoto     *UploadedPhoto    `json:"uploaded_photo,omitempty"`
	SubmittedFamilyID *uuid.UUID        `json:"submitted_family_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NewWizard starts a wizard on the house step with an empty draft
func NewWizard(cfg WizardConfig, now time.Time) *Wizard {
	now = now.UTC()
	return &Wizard{
		ID:        uuid.New(),
		Config:    cfg,
		Step:      StepHouse,
		Draft:     NewDraft(cfg),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (w *Wizard) requireStep(step Step) error {
	if w.Step == StepSubmitted {
		return ErrAlreadySubmitted
	}
	if w.Step != step {
		return ErrWrongStep
	}
	return nil
}

// SetHouse replaces the house fields
func (w *Wizard) SetHouse(h House) error {
	if err := w.requireStep(StepHouse); err != nil {
		return err
	}
	w.Draft.House = h.trimmed()
	return nil
}

// validateStep runs the guard that must pass to leave step s
func (w *Wizard) validateStep(s Step) error {
	switch s {
	case StepHouse:
		return w.Draft.House.Validate(w.Config)
	case StepMembers:
		return w.Draft.validateRoster(w.Config)
	case StepPrimaryContact:
		return w.Draft.validatePrimaryContact(w.Config)
	}
	return nil
}

// Next advances one step when the current step's guard passes.
// On failure the wizard stays where it is.
func (w *Wizard) Next() error {
	switch w.Step {
	case StepSubmitted:
		return ErrAlreadySubmitted
	case StepReview:
		return ErrWrongStep
	}
	if err := w.validateStep(w.Step); err != nil {
		return err
	}
	w.Modal = nil
	w.Step++
	return nil
}

// Back returns to the previous step, keeping every draft value
func (w *Wizard) Back() error {
	switch w.Step {
	case StepSubmitted:
		return ErrAlreadySubmitted
	case StepHouse:
		return ErrWrongStep
	}
	w.Modal = nil
	w.Step--
	return nil
}

// GoToStep jumps from review back to an editable step
func (w *Wizard) GoToStep(target Step) error {
	if err := w.requireStep(StepReview); err != nil {
		return err
	}
	if target < StepHouse || target > StepPrimaryContact {
		return ErrInvalidStep
	}
	w.Step = target
	return nil
}

// AddMember appends a blank row in inline mode, or opens a blank editor in modal mode
func (w *Wizard) AddMember() error {
	if err := w.requireStep(StepMembers); err != nil {
		return err
	}
	if w.Config.IsInline() {
		w.Draft.Members = append(w.Draft.Members, NewBlankMember())
		return nil
	}
	w.Modal = &MemberModal{Mode: ModalCreate, Index: -1, Fields: MemberFields{Position: PositionSon}}
	return nil
}

// EditMember opens the editor pre-filled with the member at index
func (w *Wizard) EditMember(index int) error {
	if err := w.requireStep(StepMembers); err != nil {
		return err
	}
	if index < 0 || index >= len(w.Draft.Members) {
		return ErrMemberNotFound
	}
	w.Modal = &MemberModal{Mode: ModalEdit, Index: index, Fields: w.Draft.Members[index].MemberFields}
	return nil
}

// UpdateInlineMember overwrites an inline row as typed. No field rules apply.
func (w *Wizard) UpdateInlineMember(index int, fields MemberFields) error {
	if err := w.requireStep(StepMembers); err != nil {
		return err
	}
	if !w.Config.IsInline() {
		return ErrInlineModeOnly
	}
	if index < 0 || index >= len(w.Draft.Members) {
		return ErrMemberNotFound
	}
	w.Draft.Members[index].MemberFields = fields
	return nil
}

// RemoveMember deletes the member at index. Inline rosters never drop below one row.
// Removing the selected primary contact clears the selection.
func (w *Wizard) RemoveMember(index int) error {
	if err := w.requireStep(StepMembers); err != nil {
		return err
	}
	if index < 0 || index >= len(w.Draft.Members) {
		return ErrMemberNotFound
	}
	if w.Config.IsInline() && len(w.Draft.Members) == 1 {
		return ErrMinimumOneMember
	}
	removed := w.Draft.Members[index]
	members := make([]Member, 0, len(w.Draft.Members)-1)
	members = append(members, w.Draft.Members[:index]...)
	members = append(members, w.Draft.Members[index+1:]...)
	w.Draft.Members = members

	if w.Draft.PrimaryContact.MemberKey == removed.Key {
		w.Draft.PrimaryContact.MemberKey = ""
	}
	if w.Modal != nil && w.Modal.Mode == ModalEdit {
		switch {
		case w.Modal.Index == index:
			w.Modal = nil
		case w.Modal.Index > index:
			w.Modal.Index--
		}
	}
	return nil
}

// SaveMemberFromModal validates the editor fields and appends or replaces the member.
// A failed save keeps the editor open with the submitted fields and per-rule errors.
func (w *Wizard) SaveMemberFromModal(fields MemberFields) error {
	if err := w.requireStep(StepMembers); err != nil {
		return err
	}
	if w.Modal == nil {
		return ErrModalNotOpen
	}
	if err := fields.Validate(); err != nil {
		w.Modal.Fields = fields
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.Modal.Errors = verr.Fields
		}
		return err
	}

	clean := fields.normalized()
	switch w.Modal.Mode {
	case ModalEdit:
		if w.Modal.Index < 0 || w.Modal.Index >= len(w.Draft.Members) {
			w.Modal = nil
			return ErrMemberNotFound
		}
		w.Draft.Members[w.Modal.Index].MemberFields = clean
	default:
		w.Draft.Members = append(w.Draft.Members, Member{Key: newMemberKey(), MemberFields: clean})
	}
	w.Modal = nil
	return nil
}

// CancelModal closes the editor without touching the roster
func (w *Wizard) CancelModal() error {
	if err := w.requireStep(StepMembers); err != nil {
		return err
	}
	if w.Modal == nil {
		return ErrModalNotOpen
	}
	w.Modal = nil
	return nil
}

// SetPrimaryContact records the selected member and contact numbers.
// The selection is checked when leaving the step.
func (w *Wizard) SetPrimaryContact(memberKey, phone, whatsapp string) error {
	if err := w.requireStep(StepPrimaryContact); err != nil {
		return err
	}
	w.Draft.PrimaryContact.MemberKey = memberKey
	w.Draft.PrimaryContact.Phone = phone
	w.Draft.PrimaryContact.WhatsApp = whatsapp
	return nil
}

// AttachPhotoPreview holds an uploaded image until it is cropped or discarded
func (w *Wizard) AttachPhotoPreview(p PhotoPreview) error {
	if err := w.requireStep(StepPrimaryContact); err != nil {
		return err
	}
	if !w.Config.PhotoEnabled {
		return ErrPhotoDisabled
	}
	if err := ValidatePhotoUpload(p.ContentType, int64(len(p.Data))); err != nil {
		return err
	}
	w.Preview = &p
	return nil
}

// ConfirmPhoto commits the cropped raster to the draft and drops the preview
func (w *Wizard) ConfirmPhoto(photo CroppedPhoto) error {
	if err := w.requireStep(StepPrimaryContact); err != nil {
		return err
	}
	if w.Preview == nil {
		return ErrNoPhotoPreview
	}
	w.Draft.PrimaryContact.Photo = &photo
	w.Preview = nil
	w.UploadedPhoto = nil
	return nil
}

// DiscardPhoto drops a pending preview, or the committed photo when no preview is pending
func (w *Wizard) DiscardPhoto() error {
	if err := w.requireStep(StepPrimaryContact); err != nil {
		return err
	}
	if w.Preview != nil {
		w.Preview = nil
		return nil
	}
	w.Draft.PrimaryContact.Photo = nil
	w.UploadedPhoto = nil
	return nil
}

// ReadyToSubmit re-runs every step guard from the review step
func (w *Wizard) ReadyToSubmit() error {
	if err := w.requireStep(StepReview); err != nil {
		return err
	}
	for _, s := range []Step{StepHouse, StepMembers, StepPrimaryContact} {
		if err := w.validateStep(s); err != nil {
			return err
		}
	}
	return nil
}

// NeedsPhotoUpload reports whether a committed photo has not been stored yet
func (w *Wizard) NeedsPhotoUpload() bool {
	return w.Draft.PrimaryContact.Photo != nil && w.UploadedPhoto == nil
}

// RecordPhotoUpload remembers the stored photo so a retried submission reuses it
func (w *Wizard) RecordPhotoUpload(u UploadedPhoto) {
	w.UploadedPhoto = &u
}

// MarkSubmitted finishes the wizard and clears the draft
func (w *Wizard) MarkSubmitted(familyID uuid.UUID) {
	w.SubmittedFamilyID = &familyID
	w.Step = StepSubmitted
	w.Draft = NewDraft(w.Config)
	w.Modal = nil
	w.Preview = nil
	w.UploadedPhoto = nil
}

// Reset returns to the house step with an empty draft
func (w *Wizard) Reset() {
	w.Step = StepHouse
	w.Draft = NewDraft(w.Config)
	w.Modal = nil
	w.Preview = nil
	w.UploadedPhoto = nil
	w.SubmittedFamilyID = nil
}

// Touch records activity on the wizard
func (w *Wizard) Touch(now time.Time) {
	w.UpdatedAt = now.UTC()
}

// PrimaryMember resolves the selected primary contact
func (w *Wizard) PrimaryMember() (Member, bool) {
	return w.Draft.MemberByKey(w.Draft.PrimaryContact.MemberKey)
}
