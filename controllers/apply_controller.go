package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"autoapply/models"
	"autoapply/utils"
)

// ApplicationRunner executes one application run and always returns a
// well-formed result; the controller never sees a raw automation error.
type ApplicationRunner interface {
	Execute(ctx context.Context, req *models.ApplicationRequest) *models.ExecutionResult
}

// ApplyController binds the HTTP shell to the run orchestrator.
type ApplyController struct {
	runner ApplicationRunner
}

func NewApplyController(runner ApplicationRunner) *ApplyController {
	return &ApplyController{runner: runner}
}

// Apply handles POST /api/apply. The request is validated up front so no
// browser session is spent on malformed input; everything past validation
// resolves to an ExecutionResult, ok or not.
func (c *ApplyController) Apply(ctx *gin.Context) {
	var req models.ApplicationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequestError(ctx, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		utils.BadRequestError(ctx, "Invalid application request", err)
		return
	}

	result := c.runner.Execute(ctx.Request.Context(), &req)
	ctx.JSON(http.StatusOK, result)
}

// Health handles GET / and GET /health.
func (c *ApplyController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "auto-apply",
		"version": "2.0",
	})
}
