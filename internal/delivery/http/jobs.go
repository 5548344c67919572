package http

import (
	"net/http"

	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	v1 := base.Group("/v1/jobs")
	{
		v1.GET("", h.GetJobs)
		v1.POST("/run", h.RunJobs)
		v1.POST("/:id/run", h.RunJob)
	}
}

func (h *HttpAPIHandler) GetJobs(c echo.Context) error {
	jobs, err := h.service.SchedulerService.GetJobSchedule(c.Request().Context(), model.GetJobParam{})
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Jobs", jobs)
}

func (h *HttpAPIHandler) RunJobs(c echo.Context) error {
	response := dto.NewBaseResponse(http.StatusOK, "Start running jobs", nil)
	if err := h.service.SchedulerService.Execute(c.Request().Context()); err != nil {
		response.Code = http.StatusInternalServerError
		response.Message = err.Error()
	}
	return c.JSON(response.Code, response)
}

func (h *HttpAPIHandler) RunJob(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.SchedulerService.RunJobTask(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Job triggered", nil)
}
