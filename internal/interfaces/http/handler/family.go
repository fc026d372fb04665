package handler

import (
	"net/http"
	"strconv"

	appfamily "github.com/familyreg/backend/internal/application/family"
	"github.com/familyreg/backend/internal/infrastructure/export"
	"github.com/familyreg/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FamilyHandler serves stored families to households and admins
type FamilyHandler struct {
	BaseHandler
	families *appfamily.Service
	exports  *appfamily.ExportService
}

// NewFamilyHandler creates a new family handler. exports may be nil when downloads are off.
func NewFamilyHandler(families *appfamily.Service, exports *appfamily.ExportService) *FamilyHandler {
	return &FamilyHandler{
		families: families,
		exports:  exports,
	}
}

func (h *FamilyHandler) familyID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid family ID format")
	}
	return id, ok
}

// MyFamily godoc
// @ID           getMyFamily
// @Summary      Get the signed-in family
// @Description  Returns the registration of the household the token was issued to
// @Tags         families
// @Produce      json
// @Success      200 {object} APIResponse[appfamily.FamilyResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/family [get]
func (h *FamilyHandler) MyFamily(c *gin.Context) {
	id, err := getSubjectID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	resp, err := h.families.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @ID           listFamilies
// @Summary      List families
// @Description  Search, sort and page through registered families
// @Tags         admin
// @Produce      json
// @Param        search query string false "Matches family, house, location or contact name"
// @Param        order_by query string false "family_name, location or created_at" default(family_name)
// @Param        order_dir query string false "asc or desc" default(asc)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appfamily.FamilyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/families [get]
func (h *FamilyHandler) List(c *gin.Context) {
	var query appfamily.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	page, err := h.families.List(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @ID           getFamily
// @Summary      Get a family
// @Tags         admin
// @Produce      json
// @Param        id path string true "Family ID" format(uuid)
// @Success      200 {object} APIResponse[appfamily.FamilyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/families/{id} [get]
func (h *FamilyHandler) Get(c *gin.Context) {
	id, ok := h.familyID(c)
	if !ok {
		return
	}
	resp, err := h.families.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @ID           updateFamily
// @Summary      Update a family
// @Description  Edits the house fields and the primary contact
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Family ID" format(uuid)
// @Param        request body appfamily.UpdateFamilyRequest true "Family fields"
// @Success      200 {object} APIResponse[appfamily.FamilyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/families/{id} [put]
func (h *FamilyHandler) Update(c *gin.Context) {
	id, ok := h.familyID(c)
	if !ok {
		return
	}
	var req appfamily.UpdateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.families.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteFamily
// @Summary      Delete a family
// @Description  Removes the family, its photo and its household sessions
// @Tags         admin
// @Param        id path string true "Family ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/families/{id} [delete]
func (h *FamilyHandler) Delete(c *gin.Context) {
	id, ok := h.familyID(c)
	if !ok {
		return
	}
	if err := h.families.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PhotoURL godoc
// @ID           getFamilyPhotoURL
// @Summary      Get a photo download link
// @Description  Returns a time-limited URL to the guardian photo
// @Tags         admin
// @Produce      json
// @Param        id path string true "Family ID" format(uuid)
// @Success      200 {object} APIResponse[appfamily.PhotoURLResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/families/{id}/photo-url [get]
func (h *FamilyHandler) PhotoURL(c *gin.Context) {
	id, ok := h.familyID(c)
	if !ok {
		return
	}
	resp, err := h.families.PhotoURL(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ExportCSV godoc
// @ID           exportFamiliesCSV
// @Summary      Export families as CSV
// @Tags         admin
// @Produce      text/csv
// @Param        search query string false "Search term"
// @Param        order_by query string false "Sort column"
// @Param        order_dir query string false "Sort direction"
// @Success      200 {file} file
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/families/export.csv [get]
func (h *FamilyHandler) ExportCSV(c *gin.Context) {
	h.export(c, export.FormatCSV)
}

// ExportXLSX godoc
// @ID           exportFamiliesXLSX
// @Summary      Export families as Excel
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        search query string false "Search term"
// @Param        order_by query string false "Sort column"
// @Param        order_dir query string false "Sort direction"
// @Success      200 {file} file
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/families/export.xlsx [get]
func (h *FamilyHandler) ExportXLSX(c *gin.Context) {
	h.export(c, export.FormatXLSX)
}

// ExportPDF godoc
// @ID           exportFamiliesPDF
// @Summary      Export families as PDF
// @Tags         admin
// @Produce      application/pdf
// @Param        search query string false "Search term"
// @Param        order_by query string false "Sort column"
// @Param        order_dir query string false "Sort direction"
// @Success      200 {file} file
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/families/export.pdf [get]
func (h *FamilyHandler) ExportPDF(c *gin.Context) {
	h.export(c, export.FormatPDF)
}

func (h *FamilyHandler) export(c *gin.Context, format export.Format) {
	if h.exports == nil {
		h.NotFound(c, "Exports are not enabled")
		return
	}
	var query appfamily.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	result, err := h.exports.Export(c.Request.Context(), query, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(result.Rows))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
