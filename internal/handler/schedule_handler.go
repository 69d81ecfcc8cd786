package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

func (h *ScheduleHandler) RegisterRoutes(router *gin.RouterGroup) {
	schedule := router.Group("/api/schedule")
	{
		schedule.GET("", middleware.RequireAuth(), h.ListRows)
		// The pre-approved schedule is maintained by the coordinating chair
		schedule.POST("/rows", middleware.RequireRole("chair", "vice_chair"), h.UploadRows)
		schedule.DELETE("/rows/:id", middleware.RequireRole("chair", "vice_chair"), h.DeleteRow)
	}
}

// UploadRows ingests raw schedule rows
// @Summary      Upload schedule rows
// @Description  Stores pre-approved event rows; malformed date fields are flagged, not rejected
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UploadScheduleRequest  true  "Schedule rows"
// @Success      201      {object}  response.Response{data=service.UploadScheduleResult}
// @Failure      400      {object}  response.Response
// @Router       /api/schedule/rows [post]
func (h *ScheduleHandler) UploadRows(c *gin.Context) {
	var req service.UploadScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	result, err := h.scheduleService.UploadRows(c.Request.Context(), userIDStr, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRows returns the stored schedule with normalized date ranges
// @Summary      List schedule rows
// @Tags         schedule
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ScheduleRowResponse}
// @Router       /api/schedule [get]
func (h *ScheduleHandler) ListRows(c *gin.Context) {
	rows, err := h.scheduleService.ListRows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// DeleteRow removes one schedule row
// @Summary      Delete a schedule row
// @Tags         schedule
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Row ID"
// @Success      200  {object}  response.Response
// @Router       /api/schedule/rows/{id} [delete]
func (h *ScheduleHandler) DeleteRow(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	if err := h.scheduleService.DeleteRow(c.Request.Context(), userIDStr, c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Schedule row deleted"))
}
