// Package httpapi exposes the sandbox engine over HTTP.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"evalbox/pkg/utils/contextkey"
	"evalbox/pkg/utils/response"

	"evalbox/internal/sandbox/engine"
	"evalbox/internal/sandbox/result"
	"evalbox/internal/sandbox/spec"
)

// RunController handles sandbox execution endpoints.
type RunController struct {
	eng engine.Engine
}

// NewRunController creates a new RunController.
func NewRunController(eng engine.Engine) *RunController {
	return &RunController{eng: eng}
}

// Run executes one command in the sandbox and returns the full verdict.
func (h *RunController) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	runID := uuid.NewString()
	ctx := context.WithValue(c.Request.Context(), contextkey.RunID, runID)

	res, err := h.eng.Run(ctx, spec.LaunchRequest{
		Args:           req.Cmd,
		TimeoutSeconds: req.TimeoutSeconds,
		MaxOutputBytes: req.MaxOutputBytes,
		Env:            req.Env,
		WorkDir:        req.Cwd,
		Shell:          req.Shell,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, RunResponse{RunID: runID, Result: res})
}

// Healthz reports liveness.
func (h *RunController) Healthz(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// RunResponse defines the execution response payload.
type RunResponse struct {
	RunID  string           `json:"run_id"`
	Result result.RunResult `json:"result"`
}

// RunRequest defines the execution payload.
type RunRequest struct {
	Cmd            []string          `json:"cmd" binding:"required"`
	TimeoutSeconds int               `json:"timeout_seconds" binding:"required"`
	MaxOutputBytes int               `json:"max_output_size"`
	Env            map[string]string `json:"env"`
	Cwd            string            `json:"cwd"`
	Shell          bool              `json:"shell"`
}
