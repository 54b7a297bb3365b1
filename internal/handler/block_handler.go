package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JimEastburn/class-registration-system-sub001/internal/service"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/response"
)

// BlockHandler exposes enrollment block endpoints.
type BlockHandler struct {
	blocks *service.BlockService
}

// NewBlockHandler constructs BlockHandler.
func NewBlockHandler(blocks *service.BlockService) *BlockHandler {
	return &BlockHandler{blocks: blocks}
}

// List godoc
// @Summary List enrollment blocks for an offering
// @Tags Blocks
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/offerings/{id}/blocks [get]
func (h *BlockHandler) List(c *gin.Context) {
	blocks, err := h.blocks.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}

// Create godoc
// @Summary Bar a student from an offering
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body service.CreateBlockRequest true "Block payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/enrollment-blocks [post]
func (h *BlockHandler) Create(c *gin.Context) {
	var req service.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.blocks.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// Remove godoc
// @Summary Lift an enrollment block
// @Tags Blocks
// @Param id path string true "Offering ID"
// @Param studentId path string true "Student ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /admin/offerings/{id}/blocks/{studentId} [delete]
func (h *BlockHandler) Remove(c *gin.Context) {
	if err := h.blocks.Remove(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
