package models

import (
	"strings"

	"github.com/familyreg/backend/internal/domain/registration"
	"golang.org/x/text/cases"
)

var searchFolder = cases.Fold()

// FamilyModel is the persistence model for a submitted family.
// The roster is stored as one JSON column so a registration is a single row write.
type FamilyModel struct {
	AggregateModel
	HouseNumber      string                `gorm:"type:varchar(50);not null;default:''"`
	HouseName        string                `gorm:"type:varchar(200);not null"`
	FamilyName       string                `gorm:"type:varchar(200);not null;index"`
	Location         string                `gorm:"type:varchar(200);not null;index"`
	RoadName         string                `gorm:"type:varchar(200);not null"`
	Address          string                `gorm:"type:text;not null"`
	Members          []registration.Member `gorm:"type:text;serializer:json;not null"`
	TotalMembers     int                   `gorm:"not null;default:0"`
	PrimaryMemberKey string                `gorm:"type:varchar(64);not null"`
	PrimaryName      string                `gorm:"type:varchar(300);not null"`
	PrimaryPhone     string                `gorm:"type:varchar(20);not null"`
	PrimaryWhatsApp  string                `gorm:"column:primary_whatsapp;type:varchar(20);not null;default:''"`
	PrimaryAadhaar   string                `gorm:"type:varchar(20);not null"`
	PrimaryDOB       string                `gorm:"column:primary_dob;type:varchar(10);not null"`
	PhotoURL         string                `gorm:"type:varchar(1000);not null;default:''"`
	PhotoKey         string                `gorm:"type:varchar(500);not null;default:''"`
	RegistrationDate string                `gorm:"type:varchar(20);not null"`
	SearchText       string                `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (FamilyModel) TableName() string {
	return "families"
}

// FoldSearch normalizes text for case-insensitive contains matching
func FoldSearch(s string) string {
	return searchFolder.String(strings.TrimSpace(s))
}

// familySearchText joins the searchable columns: family name, house name, location and contact name
func familySearchText(f *registration.Family) string {
	return FoldSearch(strings.Join([]string{
		f.FamilyName,
		f.HouseName,
		f.Location,
		f.PrimaryMember.Name,
	}, "\n"))
}

// FromDomain populates the model from a Family aggregate
func (m *FamilyModel) FromDomain(f *registration.Family) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.HouseNumber = f.HouseNumber
	m.HouseName = f.HouseName
	m.FamilyName = f.FamilyName
	m.Location = f.Location
	m.RoadName = f.RoadName
	m.Address = f.Address
	m.Members = append([]registration.Member{}, f.Members...)
	m.TotalMembers = f.TotalMembers
	m.PrimaryMemberKey = f.PrimaryMember.MemberKey
	m.PrimaryName = f.PrimaryMember.Name
	m.PrimaryPhone = f.PrimaryMember.Phone
	m.PrimaryWhatsApp = f.PrimaryMember.WhatsApp
	m.PrimaryAadhaar = f.PrimaryMember.Aadhaar
	m.PrimaryDOB = f.PrimaryMember.DateOfBirth
	m.PhotoURL = f.PrimaryMember.PhotoURL
	m.PhotoKey = f.PrimaryMember.PhotoKey
	m.RegistrationDate = f.RegistrationDate
	m.SearchText = familySearchText(f)
}

// ToDomain converts the model to a Family aggregate
func (m *FamilyModel) ToDomain() *registration.Family {
	members := m.Members
	if members == nil {
		members = []registration.Member{}
	}
	return &registration.Family{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		House: registration.House{
			HouseNumber: m.HouseNumber,
			HouseName:   m.HouseName,
			FamilyName:  m.FamilyName,
			Location:    m.Location,
			RoadName:    m.RoadName,
			Address:     m.Address,
		},
		Members: members,
		PrimaryMember: registration.PrimaryMember{
			MemberKey:   m.PrimaryMemberKey,
			Name:        m.PrimaryName,
			Phone:       m.PrimaryPhone,
			WhatsApp:    m.PrimaryWhatsApp,
			Aadhaar:     m.PrimaryAadhaar,
			DateOfBirth: m.PrimaryDOB,
			PhotoURL:    m.PhotoURL,
			PhotoKey:    m.PhotoKey,
		},
		TotalMembers:     m.TotalMembers,
		RegistrationDate: m.RegistrationDate,
	}
}
