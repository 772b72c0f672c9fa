package handler

import (
	"net/http"

	"github.com/travisim/Farmify-sub001/internal/logic"
	"github.com/travisim/Farmify-sub001/internal/model"

	"github.com/gin-gonic/gin"
)

// ProjectHandler serves the project endpoints.
type ProjectHandler struct {
	funding *logic.FundingLogic
}

// NewProjectHandler creates the project handler.
func NewProjectHandler(funding *logic.FundingLogic) *ProjectHandler {
	return &ProjectHandler{funding: funding}
}

// CreateProject registers a new project.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project := &model.Project{
		TokenID:       req.TokenID,
		FarmerAddress: req.FarmerAddress,
		FarmerName:    req.FarmerName,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Category:      req.Category,
		FundingGoal:   req.FundingGoal,
	}
	if err := h.funding.CreateProject(project); err != nil {
		AppErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "project created", ToProjectResponse(project))
}

// GetProjects lists all projects.
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.funding.ListProjects()
	if err != nil {
		AppErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "projects fetched", ToProjectResponseList(projects))
}

// GetProject returns one project by token id.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.funding.GetProject(c.Param("id"))
	if err != nil {
		AppErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "project fetched", ToProjectResponse(project))
}

// GetProjectStats returns funding progress for one project.
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	stats, err := h.funding.GetProjectStats(c.Param("id"))
	if err != nil {
		AppErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "project stats fetched", stats)
}

// GetProjectInvestments lists a project's investments, newest first.
func (h *ProjectHandler) GetProjectInvestments(c *gin.Context) {
	investments, err := h.funding.ListInvestments(c.Param("id"))
	if err != nil {
		AppErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "investments fetched", ToInvestmentResponseList(investments))
}
