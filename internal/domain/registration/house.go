package registration

import "strings"

// House holds the step one fields of a registration
type House struct {
	HouseNumber string `json:"house_number"`
	HouseName   string `json:"house_name"`
	FamilyName  string `json:"family_name"`
	Location    string `json:"location"`
	RoadName    string `json:"road_name"`
	Address     string `json:"address"`
}

func (h House) fieldValues() map[string]string {
	return map[string]string{
		"house_number": h.HouseNumber,
		"house_name":   h.HouseName,
		"family_name":  h.FamilyName,
		"location":     h.Location,
		"road_name":    h.RoadName,
		"address":      h.Address,
	}
}

// Validate checks that every field the config requires is non-empty.
// The error carries a single aggregate message plus the missing fields.
func (h House) Validate(cfg WizardConfig) error {
	var errs fieldErrors
	values := h.fieldValues()
	for _, field := range cfg.RequiredHouseFields() {
		if isBlank(values[field]) {
			errs.add(field, RuleRequired, field+" is required")
		}
	}
	return errs.toError(CodeHouseIncomplete, "Please fill all house details")
}

func (h House) trimmed() House {
	return House{
		HouseNumber: strings.TrimSpace(h.HouseNumber),
		HouseName:   strings.TrimSpace(h.HouseName),
		FamilyName:  strings.TrimSpace(h.FamilyName),
		Location:    strings.TrimSpace(h.Location),
		RoadName:    strings.TrimSpace(h.RoadName),
		Address:     strings.TrimSpace(h.Address),
	}
}
