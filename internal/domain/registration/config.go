package registration

// RosterMode selects how the member roster is edited
type RosterMode string

const (
	// RosterModeInline edits members as rows. The roster always keeps at least one row.
	RosterModeInline RosterMode = "inline"
	// RosterModeModal edits members through a validating editor. The roster starts empty.
	RosterModeModal RosterMode = "modal"
)

// WizardConfig describes one registration wizard variant
type WizardConfig struct {
	RosterMode         RosterMode `json:"roster_mode" mapstructure:"roster_mode"`
	RequireHouseNumber bool       `json:"require_house_number" mapstructure:"require_house_number"`
	RequireWhatsApp    bool       `json:"require_whatsapp" mapstructure:"require_whatsapp"`
	PhotoEnabled       bool       `json:"photo_enabled" mapstructure:"photo_enabled"`
}

// DefaultWizardConfig returns the modal editor with optional house number and WhatsApp
func DefaultWizardConfig() WizardConfig {
	return WizardConfig{
		RosterMode:   RosterModeModal,
		PhotoEnabled: true,
	}
}

// RequiredHouseFields lists the house fields that must be filled on step one
func (c WizardConfig) RequiredHouseFields() []string {
	fields := []string{"house_name", "family_name", "location", "road_name", "address"}
	if c.RequireHouseNumber {
		fields = append([]string{"house_number"}, fields...)
	}
	return fields
}

// IsInline reports whether the roster uses inline rows
func (c WizardConfig) IsInline() bool {
	return c.RosterMode == RosterModeInline
}

// Valid reports whether the roster mode is known
func (c WizardConfig) Valid() bool {
	return c.RosterMode == RosterModeInline || c.RosterMode == RosterModeModal
}
