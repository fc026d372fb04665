package handler

import (
	"context"
	"io"
	"strconv"
	"strings"

	appfamily "github.com/familyreg/backend/internal/application/family"
	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PhotoFormField is the multipart field carrying the guardian photo
const PhotoFormField = "photo"

// Server-sent event names emitted by a streamed submit
const (
	EventProgress  = "progress"
	EventSubmitted = "submitted"
	EventError     = "error"
)

// RegistrationHandler drives registration wizards addressed by draft ID
type RegistrationHandler struct {
	BaseHandler
	wizards    *regapp.WizardService
	submission *regapp.SubmissionService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(wizards *regapp.WizardService, submission *regapp.SubmissionService) *RegistrationHandler {
	return &RegistrationHandler{
		wizards:    wizards,
		submission: submission,
	}
}

// draftID parses the :id parameter, writing a 400 when it is not a UUID
func (h *RegistrationHandler) draftID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid registration ID format")
	}
	return id, ok
}

// respond writes the wizard state or the error that prevented the change
func (h *RegistrationHandler) respond(c *gin.Context, w *registration.Wizard, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toWizardResponse(w))
}

// Start godoc
// @ID           startRegistration
// @Summary      Start a registration
// @Description  Creates a new draft on the house step
// @Tags         registrations
// @Produce      json
// @Success      201 {object} APIResponse[StartRegistrationResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /registrations [post]
func (h *RegistrationHandler) Start(c *gin.Context) {
	w, err := h.wizards.Start(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, StartRegistrationResponse{DraftID: w.ID, State: toWizardResponse(w)})
}

// Get godoc
// @ID           getRegistration
// @Summary      Get registration state
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	w, err := h.wizards.Get(c.Request.Context(), id)
	h.respond(c, w, err)
}

// SetHouse godoc
// @ID           setRegistrationHouse
// @Summary      Set house details
// @Description  Replaces the step one fields. Only allowed on the house step.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Param        request body HouseRequest true "House details"
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /registrations/{id}/house [put]
func (h *RegistrationHandler) SetHouse(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	var req HouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	w, err := h.wizards.SetHouse(c.Request.Context(), id, req.toDomain())
	h.respond(c, w, err)
}

// Next godoc
// @ID           nextRegistrationStep
// @Summary      Advance one step
// @Description  Runs the current step's validation and moves forward when it passes
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/next [post]
func (h *RegistrationHandler) Next(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	w, err := h.wizards.Next(c.Request.Context(), id)
	h.respond(c, w, err)
}

// Back godoc
// @ID           previousRegistrationStep
// @Summary      Go back one step
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/back [post]
func (h *RegistrationHandler) Back(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	w, err := h.wizards.Back(c.Request.Context(), id)
	h.respond(c, w, err)
}

// parseStep accepts a step number or its wire name
func parseStep(raw string) (registration.Step, bool) {
	if n, err := strconv.Atoi(raw); err == nil {
		return registration.Step(n), true
	}
	for s := registration.StepHouse; s <= registration.StepSubmitted; s++ {
		if strings.EqualFold(raw, s.String()) {
			return s, true
		}
	}
	return 0, false
}

// GoToStep godoc
// @ID           jumpRegistrationStep
// @Summary      Edit a step from review
// @Description  Jumps from the review step back to house, members or primary_contact
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Param        step path string true "Step number or name"
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/goto/{step} [post]
func (h *RegistrationHandler) GoToStep(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	step, ok := parseStep(c.Param("step"))
	if !ok {
		h.HandleError(c, registration.ErrInvalidStep)
		return
	}
	w, err := h.wizards.GoToStep(c.Request.Context(), id, step)
	h.respond(c, w, err)
}

// AddMember godoc
// @ID           addRegistrationMember
// @Summary      Add a member
// @Description  Appends a blank row in inline mode or opens the editor in modal mode
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/members [post]
func (h *RegistrationHandler) AddMember(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	w, err := h.wizards.AddMember(c.Request.Context(), id)
	h.respond(c, w, err)
}

// memberIndex parses :index, answering MEMBER_NOT_FOUND for anything that is not a position
func (h *RegistrationHandler) memberIndex(c *gin.Context) (int, bool) {
	index, ok := parseIndexParam(c, "index")
	if !ok {
		h.HandleError(c, registration.ErrMemberNotFound)
	}
	return index, ok
}

// UpdateInlineMember godoc
// @ID           updateRegistrationMember
// @Summary      Update an inline member row
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Param        index path int true "Member position"
// @Param        request body MemberRequest true "Member fields"
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/members/{index} [put]
func (h *RegistrationHandler) UpdateInlineMember(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	index, ok := h.memberIndex(c)
	if !ok {
		return
	}
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	w, err := h.wizards.UpdateInlineMember(c.Request.Context(), id, index, req.toDomain())
	h.respond(c, w, err)
}

// EditMember godoc
// @ID           editRegistrationMember
// @Summary      Open the member editor
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Param        index path int true "Member position"
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/members/{index}/edit [post]
func (h *RegistrationHandler) EditMember(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	index, ok := h.memberIndex(c)
	if !ok {
		return
	}
	w, err := h.wizards.EditMember(c.Request.Context(), id, index)
	h.respond(c, w, err)
}

// RemoveMember godoc
// @ID           removeRegistrationMember
// @Summary      Remove a member
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Param        index path int true "Member position"
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/members/{index} [delete]
func (h *RegistrationHandler) RemoveMember(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	index, ok := h.memberIndex(c)
	if !ok {
		return
	}
	w, err := h.wizards.RemoveMember(c.Request.Context(), id, index)
	h.respond(c, w, err)
}

// SaveModal godoc
// @ID           saveRegistrationModal
// @Summary      Save the member editor
// @Description  Validates the editor fields and appends or replaces the member
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Param        request body MemberRequest true "Member fields"
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/modal/save [post]
func (h *RegistrationHandler) SaveModal(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	w, err := h.wizards.SaveMemberFromModal(c.Request.Context(), id, req.toDomain())
	h.respond(c, w, err)
}

// CancelModal godoc
// @ID           cancelRegistrationModal
// @Summary      Close the member editor without saving
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/modal/cancel [post]
func (h *RegistrationHandler) CancelModal(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	w, err := h.wizards.CancelModal(c.Request.Context(), id)
	h.respond(c, w, err)
}

// SetPrimaryContact godoc
// @ID           setRegistrationContact
// @Summary      Set the primary contact
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Param        request body PrimaryContactRequest true "Primary contact"
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/contact [put]
func (h *RegistrationHandler) SetPrimaryContact(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	var req PrimaryContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	w, err := h.wizards.SetPrimaryContact(c.Request.Context(), id, req.MemberKey, req.Phone, req.WhatsApp)
	h.respond(c, w, err)
}

// UploadPhoto godoc
// @ID           uploadRegistrationPhoto
// @Summary      Upload the guardian photo
// @Description  Stores the image as a crop preview. Images must be under 5MB.
// @Tags         registrations
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Param        photo formData file true "Image file"
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Router       /registrations/{id}/photo [post]
func (h *RegistrationHandler) UploadPhoto(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	header, err := c.FormFile(PhotoFormField)
	if err != nil {
		h.BadRequest(c, "Photo file is required")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if err := registration.ValidatePhotoUpload(contentType, header.Size); err != nil {
		h.HandleError(c, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Failed to read photo")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, registration.MaxPhotoBytes+1))
	if err != nil {
		h.BadRequest(c, "Failed to read photo")
		return
	}

	w, err := h.wizards.AttachPhoto(c.Request.Context(), id, regapp.PhotoUpload{
		Data:        data,
		ContentType: contentType,
		Filename:    header.Filename,
	})
	h.respond(c, w, err)
}

// ConfirmPhoto godoc
// @ID           confirmRegistrationPhoto
// @Summary      Crop and commit the photo
// @Description  Center crops the preview to 3:4 and stores a 300x400 JPEG on the draft
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/photo/confirm [post]
func (h *RegistrationHandler) ConfirmPhoto(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	w, err := h.wizards.ConfirmPhoto(c.Request.Context(), id)
	h.respond(c, w, err)
}

// DiscardPhoto godoc
// @ID           discardRegistrationPhoto
// @Summary      Cancel the preview or remove the photo
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /registrations/{id}/photo [delete]
func (h *RegistrationHandler) DiscardPhoto(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	w, err := h.wizards.DiscardPhoto(c.Request.Context(), id)
	h.respond(c, w, err)
}

// Reset godoc
// @ID           resetRegistration
// @Summary      Start over after submitting
// @Tags         registrations
// @Produce      json
// @Param        id path string true "Draft ID" format(uuid)
// @Success      200 {object} APIResponse[WizardResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /registrations/{id}/reset [post]
func (h *RegistrationHandler) Reset(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	w, err := h.wizards.Reset(c.Request.Context(), id)
	h.respond(c, w, err)
}

// Submit godoc
// @ID           submitRegistration
// @Summary      Submit the registration
// @Description  Uploads the photo and stores the family. With Accept: text/event-stream
// @Description  the response is a stream of progress events followed by submitted or error.
// @Tags         registrations
// @Produce      json
// @Produce      text/event-stream
// @Param        id path string true "Draft ID" format(uuid)
// @Success      201 {object} APIResponse[SubmitResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /registrations/{id}/submit [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	id, ok := h.draftID(c)
	if !ok {
		return
	}
	if wantsEventStream(c) {
		h.submitStream(c, id)
		return
	}

	result, err := h.submission.Submit(c.Request.Context(), id, nil)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSubmitResponse(result))
}

func wantsEventStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

func toSubmitResponse(r *regapp.SubmitResult) SubmitResponse {
	return SubmitResponse{
		Family: appfamily.ToFamilyResponse(r.Family),
		State:  toWizardResponse(r.Wizard),
	}
}

type sseMessage struct {
	event string
	data  any
}

// submitStream runs the submission while relaying its progress as
// server-sent events. The stream always ends with submitted or error.
func (h *RegistrationHandler) submitStream(c *gin.Context, id uuid.UUID) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	requestID := getRequestID(c)
	messages := make(chan sseMessage, 8)
	send := func(m sseMessage) {
		select {
		case messages <- m:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(messages)
		result, err := h.submission.Submit(ctx, id, func(percent int) {
			send(sseMessage{event: EventProgress, data: SubmitProgressEvent{Percent: percent}})
		})
		if err != nil {
			_, body := errorResponse(err, requestID)
			send(sseMessage{event: EventError, data: body.Error})
			return
		}
		send(sseMessage{event: EventSubmitted, data: toSubmitResponse(result)})
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering
	c.Stream(func(io.Writer) bool {
		m, ok := <-messages
		if !ok {
			return false
		}
		c.SSEvent(m.event, m.data)
		return true
	})
}
