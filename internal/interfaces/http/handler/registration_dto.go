package handler

import (
	"encoding/base64"
	"time"

	appfamily "github.com/familyreg/backend/internal/application/family"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/google/uuid"
)

// =====================
// Registration Request DTOs
// =====================

// HouseRequest is the step one form
type HouseRequest struct {
	HouseNumber string `json:"house_number" binding:"max=50"`
	HouseName   string `json:"house_name" binding:"max=200"`
	FamilyName  string `json:"family_name" binding:"max=200"`
	Location    string `json:"location" binding:"max=200"`
	RoadName    string `json:"road_name" binding:"max=200"`
	Address     string `json:"address" binding:"max=500"`
}

func (r HouseRequest) toDomain() registration.House {
	return registration.House{
		HouseNumber: r.HouseNumber,
		HouseName:   r.HouseName,
		FamilyName:  r.FamilyName,
		Location:    r.Location,
		RoadName:    r.RoadName,
		Address:     r.Address,
	}
}

// MemberRequest is one member form. Rules beyond field length are
// enforced by the roster so partially filled inline rows can be saved.
type MemberRequest struct {
	FullName      string `json:"full_name" binding:"max=200"`
	Surname       string `json:"surname" binding:"max=200"`
	FatherName    string `json:"father_name" binding:"max=200"`
	MotherName    string `json:"mother_name" binding:"max=200"`
	AadhaarNumber string `json:"aadhaar_number" binding:"max=20"`
	Phone         string `json:"phone" binding:"max=20"`
	DateOfBirth   string `json:"date_of_birth" binding:"max=10"`
	Position      string `json:"position" binding:"max=50"`
}

func (r MemberRequest) toDomain() registration.MemberFields {
	return registration.MemberFields{
		FullName:      r.FullName,
		Surname:       r.Surname,
		FatherName:    r.FatherName,
		MotherName:    r.MotherName,
		AadhaarNumber: r.AadhaarNumber,
		Phone:         r.Phone,
		DateOfBirth:   r.DateOfBirth,
		Position:      registration.Position(r.Position),
	}
}

// PrimaryContactRequest designates the contact member
type PrimaryContactRequest struct {
	MemberKey string `json:"member_key" binding:"max=64"`
	Phone     string `json:"phone" binding:"max=20"`
	WhatsApp  string `json:"whatsapp" binding:"max=20"`
}

// =====================
// Registration Response DTOs
// =====================

// PhotoView is an image shown back to the browser as a data URL
type PhotoView struct {
	DataURL     string `json:"data_url"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// PrimaryContactView is the chosen contact with its committed photo
type PrimaryContactView struct {
	MemberKey string     `json:"member_key"`
	Phone     string     `json:"phone"`
	WhatsApp  string     `json:"whatsapp,omitempty"`
	Photo     *PhotoView `json:"photo,omitempty"`
}

// DraftView is the registration being built
type DraftView struct {
	House          registration.House    `json:"house"`
	Members        []registration.Member `json:"members"`
	TotalMembers   int                   `json:"total_members"`
	PrimaryContact PrimaryContactView    `json:"primary_contact"`
}

// WizardResponse is the full wizard state returned by every registration call
type WizardResponse struct {
	ID                uuid.UUID                 `json:"id"`
	Step              int                       `json:"step" example:"1"`
	StepName          string                    `json:"step_name" example:"house"`
	Config            registration.WizardConfig `json:"config"`
	Draft             DraftView                 `json:"draft"`
	Modal             *registration.MemberModal `json:"modal,omitempty"`
	Preview           *PhotoView                `json:"preview,omitempty"`
	SubmittedFamilyID *uuid.UUID                `json:"submitted_family_id,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// StartRegistrationResponse is returned when a draft is created
type StartRegistrationResponse struct {
	DraftID uuid.UUID      `json:"draft_id"`
	State   WizardResponse `json:"state"`
}

// SubmitResponse is a stored registration
type SubmitResponse struct {
	Family appfamily.FamilyResponse `json:"family"`
	State  WizardResponse           `json:"state"`
}

func dataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func toWizardResponse(w *registration.Wizard) WizardResponse {
	members := w.Draft.Members
	if members == nil {
		members = []registration.Member{}
	}
	resp := WizardResponse{
		ID:       w.ID,
		Step:     int(w.Step),
		StepName: w.Step.String(),
		Config:   w.Config,
		Draft: DraftView{
			House:        w.Draft.House,
			Members:      members,
			TotalMembers: w.Draft.TotalMembers(),
			PrimaryContact: PrimaryContactView{
				MemberKey: w.Draft.PrimaryContact.MemberKey,
				Phone:     w.Draft.PrimaryContact.Phone,
				WhatsApp:  w.Draft.PrimaryContact.WhatsApp,
			},
		},
		Modal:             w.Modal,
		SubmittedFamilyID: w.SubmittedFamilyID,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
	if p := w.Draft.PrimaryContact.Photo; p != nil {
		resp.Draft.PrimaryContact.Photo = &PhotoView{
			DataURL:     dataURL(p.ContentType, p.Data),
			ContentType: p.ContentType,
			Width:       p.Width,
			Height:      p.Height,
		}
	}
	if p := w.Preview; p != nil {
		resp.Preview = &PhotoView{
			DataURL:     dataURL(p.ContentType, p.Data),
			ContentType: p.ContentType,
			Filename:    p.Filename,
			Width:       p.Width,
			Height:      p.Height,
		}
	}
	return resp
}
