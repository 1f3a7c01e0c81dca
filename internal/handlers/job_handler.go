package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sjperalta/car-ledger-api/internal/services"
)

// JobHandler exposes the background worker to the desktop client, which
// polls it to grey out editing while a conversion holds the databases.
type JobHandler struct {
	jobs *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// @Summary Background job status
// @Description Worker counters and the conversion run currently holding the databases, if any
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.JobStatus
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobs.GetStatus())
}
