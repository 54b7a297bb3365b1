package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	"github.com/JimEastburn/class-registration-system-sub001/internal/service"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/response"
)

// ScheduleHandler exposes schedule validation endpoints.
type ScheduleHandler struct {
	schedule *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedule *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule}
}

// Conflicts godoc
// @Summary Detect conflicts across the whole active schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/schedule/conflicts [get]
func (h *ScheduleHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.schedule.BoardConflicts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if conflicts == nil {
		conflicts = []models.SlotConflict{}
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// ValidateSlot godoc
// @Summary Validate a (day, block) pair against the timetable
// @Tags Schedule
// @Produce json
// @Param day query string true "Class day"
// @Param block query string true "Class block"
// @Success 200 {object} response.Envelope
// @Router /schedule/validate [get]
func (h *ScheduleHandler) ValidateSlot(c *gin.Context) {
	day := models.ClassDay(c.Query("day"))
	block := models.ClassBlock(c.Query("block"))
	if err := service.ValidateSlot(day, block); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"day": day, "block": block, "valid": true}, nil)
}
