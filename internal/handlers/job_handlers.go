package handlers

import (
	"net/http"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/jobs/background"

	"github.com/labstack/echo/v4"
)

// JobHandlers exposes the scheduler to admins
type JobHandlers struct {
	scheduler *background.JobScheduler
}

func NewJobHandlers(scheduler *background.JobScheduler) *JobHandlers {
	return &JobHandlers{scheduler: scheduler}
}

func (h *JobHandlers) ListJobs(c echo.Context) error {
	return common.SendSuccess(c, http.StatusOK, h.scheduler.GetJobStatus(), "")
}

// RunRentalExpiry triggers the expiry job now
func (h *JobHandlers) RunRentalExpiry(c echo.Context) error {
	expired, err := h.scheduler.RunRentalExpiry(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, map[string]int{"expired": expired}, "")
}
