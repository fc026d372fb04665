package registration

import (
	"fmt"
	"strings"

	"github.com/familyreg/backend/internal/domain/shared"
)

// Validation rule identifiers carried by FieldError.Rule
const (
	RuleRequired        = "REQUIRED"
	RuleAadhaarLength   = "AADHAAR_LENGTH"
	RulePhoneLength     = "PHONE_LENGTH"
	RuleWhatsAppLength  = "WHATSAPP_LENGTH"
	RuleInvalidDate     = "INVALID_DATE"
	RuleInvalidPosition = "INVALID_POSITION"
	RuleUnknownMember   = "UNKNOWN_MEMBER"
)

// Validation error codes
const (
	CodeHouseIncomplete       = "HOUSE_INCOMPLETE"
	CodeRosterEmpty           = "ROSTER_EMPTY"
	CodeMemberNameRequired    = "MEMBER_NAME_REQUIRED"
	CodeMemberInvalid         = "MEMBER_INVALID"
	CodePrimaryContactInvalid = "PRIMARY_CONTACT_INVALID"
	CodeFamilyInvalid         = "FAMILY_INVALID"
)

var (
	ErrWrongStep          = shared.NewDomainError("WRONG_STEP", "Operation is not available on the current step")
	ErrInvalidStep        = shared.NewDomainError("INVALID_STEP", "Only the house, members and primary contact steps can be edited from review")
	ErrMemberNotFound     = shared.NewDomainError("MEMBER_NOT_FOUND", "No member at that position")
	ErrMinimumOneMember   = shared.NewDomainError("MINIMUM_ONE_MEMBER", "At least one member is required")
	ErrModalNotOpen       = shared.NewDomainError("MODAL_NOT_OPEN", "Member editor is not open")
	ErrInlineModeOnly     = shared.NewDomainError("INLINE_MODE_ONLY", "Inline member rows are disabled for this wizard")
	ErrPhotoDisabled      = shared.NewDomainError("PHOTO_DISABLED", "Photo capture is disabled for this wizard")
	ErrInvalidPhotoType   = shared.NewDomainError("INVALID_PHOTO_TYPE", "Please select an image file")
	ErrPhotoTooLarge      = shared.NewDomainError("PHOTO_TOO_LARGE", "Image size should be less than 5MB")
	ErrNoPhotoPreview     = shared.NewDomainError("NO_PHOTO_PREVIEW", "No photo is waiting to be cropped")
	ErrAlreadySubmitted   = shared.NewDomainError("ALREADY_SUBMITTED", "Registration has already been submitted")
	ErrNotSubmitted       = shared.NewDomainError("NOT_SUBMITTED", "Registration has not been submitted yet")
	ErrSubmissionFailed   = shared.NewDomainError("SUBMISSION_FAILED", "Error saving data! Please try again.")
	ErrPhotoUploadFailed  = shared.NewDomainError("PHOTO_UPLOAD_FAILED", "Photo upload failed. Please try again.")
	ErrSubmissionInFlight = shared.NewDomainError("SUBMISSION_IN_PROGRESS", "A submission for this registration is already in progress")
	ErrDraftNotFound      = shared.NewDomainError("DRAFT_NOT_FOUND", "Registration draft not found or expired")
)

// FieldError describes one failed validation rule
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError aggregates failed rules behind a single user-facing message
type ValidationError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	rules := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		rules = append(rules, fmt.Sprintf("%s:%s", f.Field, f.Rule))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(rules, ", "))
}

// HasRule reports whether any field failed the given rule
func (e *ValidationError) HasRule(field, rule string) bool {
	for _, f := range e.Fields {
		if f.Field == field && f.Rule == rule {
			return true
		}
	}
	return false
}

type fieldErrors []FieldError

func (fe *fieldErrors) add(field, rule, message string) {
	*fe = append(*fe, FieldError{Field: field, Rule: rule, Message: message})
}

func (fe fieldErrors) toError(code, message string) error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Code: code, Message: message, Fields: fe}
}
