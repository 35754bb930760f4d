package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/rest/forms"
	"github.com/tgienger/teamboard/internal/rest/response"
)

type Timer struct {
	log *logrus.Entry
	svc *app.Service
}

func NewTimerHandler(svc *app.Service, log *logrus.Entry) *Timer {
	return &Timer{log: log, svc: svc}
}

func (h *Timer) EnrichRoutes(router gin.IRouter) {
	timeRoutes := router.Group("/tasks/:taskID/time")
	timeRoutes.GET("", h.reportAction)
	timeRoutes.POST("/start", h.startAction)
	timeRoutes.POST("/stop", h.stopAction)
	timeRoutes.POST("/manual", h.manualAction)

	router.GET("/timer", h.activeAction)
}

func (h *Timer) startAction(c *gin.Context) {
	const op = "handlers.Timer.startAction"
	log := h.log.WithField("operation", op)

	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	entry, err := h.svc.StartTimer(c.Request.Context(), response.UserID(c), taskID)
	if err != nil {
		log.WithError(err).Debug("failed to start timer")
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *Timer) stopAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	entry, err := h.svc.StopTimer(c.Request.Context(), response.UserID(c), taskID)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *Timer) manualAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	form, err := forms.ParseManualTime(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	entry, err := h.svc.LogManual(c.Request.Context(), response.UserID(c), taskID, form.StartTime, form.EndTime, form.Notes)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *Timer) reportAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	report, err := h.svc.TimeReport(c.Request.Context(), response.UserID(c), taskID)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Timer) activeAction(c *gin.Context) {
	entry, err := h.svc.ActiveTimer(c.Request.Context(), response.UserID(c))
	if err != nil {
		response.HandleError(err, c)
		return
	}
	if entry == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, entry)
}
