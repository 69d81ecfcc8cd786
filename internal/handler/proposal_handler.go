package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProposalHandler struct {
	proposalService service.ProposalService
	chainRoles      []string
}

func NewProposalHandler(proposalService service.ProposalService, chainRoles []string) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService, chainRoles: chainRoles}
}

func (h *ProposalHandler) RegisterRoutes(router *gin.RouterGroup) {
	proposals := router.Group("/api/proposals")
	{
		proposals.POST("", middleware.RequireRole("convener"), h.SubmitProposal)
		proposals.GET("", middleware.RequireAuth(), h.ListProposals)
		proposals.GET("/:id", middleware.RequireAuth(), h.GetProposal)

		// Only chain roles may act; the engine then checks the exact
		// awaiting role against the actor.
		proposals.PUT("/:id/approve", middleware.RequireRole(h.chainRoles...), h.Approve)
		proposals.PUT("/:id/reject", middleware.RequireRole(h.chainRoles...), h.Reject)
		proposals.PUT("/:id/request-changes", middleware.RequireRole(h.chainRoles...), h.RequestChanges)

		// Post-event settlement
		proposals.PUT("/:id/complete", middleware.RequireRole("admin"), h.Complete)
	}
}

// SubmitProposal creates a new proposal routed to the first chain node
// @Summary      Submit a proposal
// @Description  Creates an event proposal in PENDING state awaiting the first approver
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProposalRequest  true  "Proposal payload"
// @Success      201      {object}  response.Response{data=service.ProposalResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/proposals [post]
func (h *ProposalHandler) SubmitProposal(c *gin.Context) {
	var req service.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actorID, actorRole := actorFromContext(c)
	result, err := h.proposalService.SubmitProposal(c.Request.Context(), actorID, actorRole, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListProposals returns proposals, optionally filtered by status/category/submitter
// @Summary      List proposals
// @Tags         proposals
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "Status filter"
// @Param        category   query  string  false  "Category filter"
// @Param        submitter  query  string  false  "Submitter ID filter"
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        limit      query  int     false  "Items per page (default 20)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/proposals [get]
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.ProposalFilter{
		Status:      c.Query("status"),
		Category:    c.Query("category"),
		SubmitterID: c.Query("submitter"),
		Page:        params.Page,
		Limit:       params.Limit,
	}

	proposals, total, err := h.proposalService.ListProposals(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   proposals,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetProposal returns a single proposal with its messages and budget
// @Summary      Get proposal by ID
// @Tags         proposals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  response.Response{data=service.ProposalResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/proposals/{id} [get]
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	result, err := h.proposalService.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Approve advances the proposal to the next chain node (or APPROVED)
// @Summary      Approve a proposal
// @Tags         proposals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  response.Response{data=service.ProposalResponse}
// @Router       /api/proposals/{id}/approve [put]
func (h *ProposalHandler) Approve(c *gin.Context) {
	h.act(c, workflow.ActionApprove)
}

// Reject terminally rejects the proposal, recording the reason
// @Summary      Reject a proposal
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Proposal ID"
// @Param        payload  body      service.ActionRequestDTO   true  "Rejection reason"
// @Success      200      {object}  response.Response{data=service.ProposalResponse}
// @Router       /api/proposals/{id}/reject [put]
func (h *ProposalHandler) Reject(c *gin.Context) {
	h.act(c, workflow.ActionReject)
}

// RequestChanges asks the convener for clarification without advancing the chain
// @Summary      Request changes on a proposal
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Proposal ID"
// @Param        payload  body      service.ActionRequestDTO   true  "Clarification comment"
// @Success      200      {object}  response.Response{data=service.ProposalResponse}
// @Router       /api/proposals/{id}/request-changes [put]
func (h *ProposalHandler) RequestChanges(c *gin.Context) {
	h.act(c, workflow.ActionRequestChanges)
}

func (h *ProposalHandler) act(c *gin.Context, action string) {
	var payload service.ActionRequestDTO
	if err := c.ShouldBindJSON(&payload); err != nil {
		// Allow empty body — approve needs no comment, the engine validates
		// the rest
		payload.Comment = ""
	}

	actorID, actorRole := actorFromContext(c)
	result, err := h.proposalService.Act(c.Request.Context(), c.Param("id"), actorID, actorRole, action, payload)
	if err != nil {
		c.JSON(workflowErrorStatus(err), response.Error(workflowErrorStatus(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Complete records post-event settlement on an approved proposal
// @Summary      Mark a proposal completed
// @Tags         proposals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  response.Response{data=service.ProposalResponse}
// @Router       /api/proposals/{id}/complete [put]
func (h *ProposalHandler) Complete(c *gin.Context) {
	actorID, _ := actorFromContext(c)
	result, err := h.proposalService.MarkCompleted(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		c.JSON(workflowErrorStatus(err), response.Error(workflowErrorStatus(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func actorFromContext(c *gin.Context) (string, string) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	userRole, _ := c.Get("userRole")
	userRoleStr, _ := userRole.(string)
	return userIDStr, userRoleStr
}

// workflowErrorStatus maps the engine's denial taxonomy onto HTTP codes so a
// dashboard can present the precise reason.
func workflowErrorStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrUnauthorizedActor):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrRouting):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrValidation), errors.Is(err, workflow.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
