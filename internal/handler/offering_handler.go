package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	"github.com/JimEastburn/class-registration-system-sub001/internal/service"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/response"
)

// OfferingHandler exposes class offering endpoints.
type OfferingHandler struct {
	offerings   *service.OfferingService
	enrollments *service.EnrollmentService
}

// NewOfferingHandler constructs OfferingHandler.
func NewOfferingHandler(offerings *service.OfferingService, enrollments *service.EnrollmentService) *OfferingHandler {
	return &OfferingHandler{offerings: offerings, enrollments: enrollments}
}

// List godoc
// @Summary List class offerings
// @Tags Offerings
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Param day query string false "Filter by day"
// @Param block query string false "Filter by block"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /offerings [get]
func (h *OfferingHandler) List(c *gin.Context) {
	var filter models.OfferingFilter
	filter.TeacherID = c.Query("teacherId")
	filter.Day = models.ClassDay(c.Query("day"))
	filter.Block = models.ClassBlock(c.Query("block"))
	filter.Status = models.OfferingStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	offerings, pagination, err := h.offerings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, pagination)
}

// Get godoc
// @Summary Get offering detail
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id} [get]
func (h *OfferingHandler) Get(c *gin.Context) {
	offering, err := h.offerings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Create godoc
// @Summary Create a draft offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Param payload body service.CreateOfferingRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/offerings [post]
func (h *OfferingHandler) Create(c *gin.Context) {
	var req service.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offering, err := h.offerings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// Update godoc
// @Summary Update an offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body service.UpdateOfferingRequest true "Offering payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/offerings/{id} [put]
func (h *OfferingHandler) Update(c *gin.Context) {
	var req service.UpdateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offering, err := h.offerings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Publish godoc
// @Summary Open a draft offering for enrollment
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/offerings/{id}/publish [post]
func (h *OfferingHandler) Publish(c *gin.Context) {
	offering, err := h.offerings.Publish(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Cancel godoc
// @Summary Withdraw an offering and cancel its enrollments
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/offerings/{id}/cancel [post]
func (h *OfferingHandler) Cancel(c *gin.Context) {
	offering, err := h.offerings.Cancel(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Complete godoc
// @Summary Close a published offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/offerings/{id}/complete [post]
func (h *OfferingHandler) Complete(c *gin.Context) {
	offering, err := h.offerings.Complete(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Delete godoc
// @Summary Delete a draft offering
// @Tags Offerings
// @Param id path string true "Offering ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /admin/offerings/{id} [delete]
func (h *OfferingHandler) Delete(c *gin.Context) {
	if err := h.offerings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Seats godoc
// @Summary Get live seat usage for an offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/seats [get]
func (h *OfferingHandler) Seats(c *gin.Context) {
	report, err := h.enrollments.Seats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Waitlist godoc
// @Summary Get the ordered waitlist for an offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /offerings/{id}/waitlist [get]
func (h *OfferingHandler) Waitlist(c *gin.Context) {
	waitlist, err := h.enrollments.Waitlist(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, waitlist, nil)
}
