package registration

import "github.com/familyreg/backend/internal/domain/shared"

// Family event types
const (
	EventTypeFamilyRegistered = "FamilyRegistered"
	EventTypeFamilyUpdated    = "FamilyUpdated"
	EventTypeFamilyDeleted    = "FamilyDeleted"
)

// FamilyRegisteredEvent is raised once a registration is stored
type FamilyRegisteredEvent struct {
	shared.BaseDomainEvent
	FamilyName   string `json:"family_name"`
	HouseNumber  string `json:"house_number,omitempty"`
	TotalMembers int    `json:"total_members"`
	HasPhoto     bool   `json:"has_photo"`
}

func NewFamilyRegisteredEvent(f *Family) *FamilyRegisteredEvent {
	return &FamilyRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFamilyRegistered, AggregateTypeFamily, f.ID),
		FamilyName:      f.FamilyName,
		HouseNumber:     f.HouseNumber,
		TotalMembers:    f.TotalMembers,
		HasPhoto:        f.HasPhoto(),
	}
}

// FamilyUpdatedEvent is raised after an admin edit
type FamilyUpdatedEvent struct {
	shared.BaseDomainEvent
	FamilyName string `json:"family_name"`
	Version    int    `json:"version"`
}

func NewFamilyUpdatedEvent(f *Family) *FamilyUpdatedEvent {
	return &FamilyUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFamilyUpdated, AggregateTypeFamily, f.ID),
		FamilyName:      f.FamilyName,
		Version:         f.Version,
	}
}

// FamilyDeletedEvent is raised when a family is removed. PhotoKey lets
// handlers clean up the stored photo.
type FamilyDeletedEvent struct {
	shared.BaseDomainEvent
	FamilyName   string `json:"family_name"`
	TotalMembers int    `json:"total_members"`
	PhotoKey     string `json:"photo_key,omitempty"`
}

func NewFamilyDeletedEvent(f *Family) *FamilyDeletedEvent {
	return &FamilyDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFamilyDeleted, AggregateTypeFamily, f.ID),
		FamilyName:      f.FamilyName,
		TotalMembers:    f.TotalMembers,
		PhotoKey:        f.PrimaryMember.PhotoKey,
	}
}
