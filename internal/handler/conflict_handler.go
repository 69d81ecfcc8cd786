package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ConflictHandler struct {
	conflictService service.ConflictService
}

func NewConflictHandler(conflictService service.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflictService: conflictService}
}

func (h *ConflictHandler) RegisterRoutes(router *gin.RouterGroup) {
	conflicts := router.Group("/api/conflicts")
	{
		conflicts.GET("", middleware.RequireAuth(), h.DetectConflicts)
	}
}

// DetectConflicts returns every proposal/schedule entry sharing a calendar day
// @Summary      Detect scheduling conflicts
// @Description  Flags proposals and pre-approved schedule entries whose date ranges overlap
// @Tags         conflicts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ConflictReport}
// @Failure      500  {object}  response.Response
// @Router       /api/conflicts [get]
func (h *ConflictHandler) DetectConflicts(c *gin.Context) {
	report, err := h.conflictService.DetectConflicts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
