package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/response"
)

type auditLogReader interface {
	ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	logs auditLogReader
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(logs auditLogReader) *AuditHandler {
	return &AuditHandler{logs: logs}
}

// List godoc
// @Summary List audit records for a resource
// @Description Returns the audit trail for one resource, newest first. Force-enrolls, admin cancellations and reconciliations all land here.
// @Tags Audit
// @Produce json
// @Param resource path string true "Resource name" Enums(enrollments, class_offerings, enrollment_blocks, auth, payments)
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/audit/{resource}/{id} [get]
func (h *AuditHandler) List(c *gin.Context) {
	resource := c.Param("resource")
	resourceID := c.Param("id")
	if resource == "" || resourceID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resource and id are required"))
		return
	}
	logs, err := h.logs.ListByResource(c.Request.Context(), resource, resourceID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit records"))
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
