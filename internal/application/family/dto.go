package family

import (
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListQuery selects a page of families for the dashboard. Page and PageSize
// are pointers so an explicit zero is rejected rather than read as absent.
type ListQuery struct {
	Search   string `form:"search" binding:"omitempty,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=family_name location created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     *int   `form:"page" binding:"omitempty,min=1"`
	PageSize *int   `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Filter converts the query into a repository filter. The dashboard sorts by family name by default.
func (q ListQuery) Filter(maxPageSize int) shared.Filter {
	f := shared.Filter{
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
		Search:   q.Search,
	}
	if q.Page != nil {
		f.Page = *q.Page
	}
	if q.PageSize != nil {
		f.PageSize = *q.PageSize
	}
	if f.OrderBy == "" {
		f.OrderBy = registration.SortByFamilyName
	}
	if f.OrderDir == "" {
		f.OrderDir = shared.SortAsc
	}
	return f.Normalize(maxPageSize)
}

// MemberResponse is one roster entry
type MemberResponse struct {
	Key           string `json:"key"`
	FullName      string `json:"full_name"`
	Surname       string `json:"surname"`
	FatherName    string `json:"father_name"`
	MotherName    string `json:"mother_name"`
	AadhaarNumber string `json:"aadhaar_number"`
	Phone         string `json:"phone,omitempty"`
	DateOfBirth   string `json:"date_of_birth"`
	Position      string `json:"position"`
}

// PrimaryMemberResponse is the family's contact
type PrimaryMemberResponse struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	WhatsApp    string `json:"whatsapp,omitempty"`
	Aadhaar     string `json:"aadhaar"`
	DateOfBirth string `json:"dob"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// FamilyResponse is the API view of a family
type FamilyResponse struct {
	ID               uuid.UUID             `json:"id"`
	HouseNumber      string                `json:"house_number,omitempty"`
	HouseName        string                `json:"house_name"`
	FamilyName       string                `json:"family_name"`
	Location         string                `json:"location"`
	RoadName         string                `json:"road_name"`
	Address          string                `json:"address"`
	Members          []MemberResponse      `json:"members"`
	PrimaryMember    PrimaryMemberResponse `json:"primary_member"`
	TotalMembers     int                   `json:"total_members"`
	RegistrationDate string                `json:"registration_date"`
	Version          int                   `json:"version"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ToFamilyResponse maps a domain family to its API view
func ToFamilyResponse(f *registration.Family) FamilyResponse {
	members := make([]MemberResponse, 0, len(f.Members))
	for _, m := range f.Members {
		members = append(members, MemberResponse{
			Key:           m.Key,
			FullName:      m.FullName,
			Surname:       m.Surname,
			FatherName:    m.FatherName,
			MotherName:    m.MotherName,
			AadhaarNumber: m.AadhaarNumber,
			Phone:         m.Phone,
			DateOfBirth:   m.DateOfBirth,
			Position:      string(m.Position),
		})
	}
	return FamilyResponse{
		ID:          f.ID,
		HouseNumber: f.HouseNumber,
		HouseName:   f.HouseName,
		FamilyName:  f.FamilyName,
		Location:    f.Location,
		RoadName:    f.RoadName,
		Address:     f.Address,
		Members:     members,
		PrimaryMember: PrimaryMemberResponse{
			Name:        f.PrimaryMember.Name,
			Phone:       f.PrimaryMember.Phone,
			WhatsApp:    f.PrimaryMember.WhatsApp,
			Aadhaar:     f.PrimaryMember.Aadhaar,
			DateOfBirth: f.PrimaryMember.DateOfBirth,
			PhotoURL:    f.PrimaryMember.PhotoURL,
		},
		TotalMembers:     f.TotalMembers,
		RegistrationDate: f.RegistrationDate,
		Version:          f.Version,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// ToFamilyResponses maps a page of families
func ToFamilyResponses(families []registration.Family) []FamilyResponse {
	out := make([]FamilyResponse, 0, len(families))
	for i := range families {
		out = append(out, ToFamilyResponse(&families[i]))
	}
	return out
}

// UpdateFamilyRequest is the admin edit form
type UpdateFamilyRequest struct {
	HouseName   string `json:"house_name" binding:"required,max=200"`
	FamilyName  string `json:"family_name" binding:"required,max=200"`
	Location    string `json:"location" binding:"required,max=200"`
	RoadName    string `json:"road_name" binding:"required,max=200"`
	Address     string `json:"address" binding:"required,max=500"`
	PrimaryName string `json:"primary_name" binding:"required,max=200"`
	Phone       string `json:"phone" binding:"required,max=20"`
	WhatsApp    string `json:"whatsapp" binding:"omitempty,max=20"`
}

func (r UpdateFamilyRequest) toDomain() registration.FamilyUpdate {
	return registration.FamilyUpdate{
		HouseName:   r.HouseName,
		FamilyName:  r.FamilyName,
		Location:    r.Location,
		RoadName:    r.RoadName,
		Address:     r.Address,
		PrimaryName: r.PrimaryName,
		Phone:       r.Phone,
		WhatsApp:    r.WhatsApp,
	}
}

// StatsResult is the public registration summary
type StatsResult struct {
	TotalFamilies  int64           `json:"total_families"`
	TotalMembers   int64           `json:"total_members"`
	AverageMembers decimal.Decimal `json:"average_members"`
}

// PhotoURLResult is a time-limited link to a guardian photo
type PhotoURLResult struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportResult is a rendered download
type ExportResult struct {
	Data        []byte
	ContentType string
	FileName    string
	Rows        int
}
