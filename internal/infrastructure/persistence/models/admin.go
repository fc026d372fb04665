package models

import (
	"time"

	"github.com/familyreg/backend/internal/domain/identity"
)

// AdminModel is the persistence model for a dashboard operator
type AdminModel struct {
	AggregateModel
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	DisplayName  string `gorm:"type:varchar(200);not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	Active       bool   `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (AdminModel) TableName() string {
	return "admins"
}

// FromDomain populates the model from an Admin aggregate
func (m *AdminModel) FromDomain(a *identity.Admin) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Email = a.Email
	m.DisplayName = a.DisplayName
	m.PasswordHash = a.PasswordHash
	m.Active = a.Active
	m.LastLoginAt = a.LastLoginAt
}

// ToDomain converts the model to an Admin aggregate
func (m *AdminModel) ToDomain() *identity.Admin {
	return &identity.Admin{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		DisplayName:       m.DisplayName,
		PasswordHash:      m.PasswordHash,
		Active:            m.Active,
		LastLoginAt:       m.LastLoginAt,
	}
}

// AllModels lists every model for AutoMigrate
func AllModels() []any {
	return []any{&FamilyModel{}, &AdminModel{}}
}
