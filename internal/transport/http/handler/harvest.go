package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"newsrag/internal/app"
	"newsrag/internal/harvest"
	"newsrag/internal/transport/http/response"
)

type HarvestRunner interface {
	RunOnce(ctx context.Context) (*harvest.RunReport, error)
}

type HarvestHandler struct {
	runner HarvestRunner
}

func NewHarvestHandler(runner HarvestRunner) *HarvestHandler {
	return &HarvestHandler{runner: runner}
}

// Run triggers a harvest synchronously and returns its report.
func (h *HarvestHandler) Run(c *gin.Context) {
	report, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		if errors.Is(err, app.ErrHarvestInProgress) {
			response.Error(c, http.StatusConflict, response.CodeHarvestRunning, err.Error())
			return
		}
		if errors.Is(err, harvest.ErrStopped) {
			response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, err.Error())
			return
		}
		logrus.WithError(err).Error("manual harvest failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "harvest failed")
		return
	}
	response.OK(c, report)
}
