package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/rest/forms"
	"github.com/tgienger/teamboard/internal/rest/response"
)

type Board struct {
	log *logrus.Entry
	svc *app.Service
}

func NewBoardHandler(svc *app.Service, log *logrus.Entry) *Board {
	return &Board{log: log, svc: svc}
}

func (h *Board) EnrichRoutes(router gin.IRouter) {
	router.GET("/board", h.getBoardAction)
	router.GET("/dashboard", h.getDashboardAction)

	kanbanRoutes := router.Group("/kanban")
	kanbanRoutes.PUT("/:taskID/status", h.updateStatusAction)
	kanbanRoutes.PUT("/:taskID/position", h.updatePositionAction)
}

func (h *Board) getBoardAction(c *gin.Context) {
	const op = "handlers.Board.getBoardAction"
	log := h.log.WithField("operation", op)

	projectID, err := forms.QueryID(c, "project_id")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	board, err := h.svc.GetBoard(c.Request.Context(), response.UserID(c), projectID)
	if err != nil {
		log.WithError(err).Debug("failed to load board")
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (h *Board) getDashboardAction(c *gin.Context) {
	projectID, err := forms.QueryID(c, "project_id")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	days, err := forms.QueryInt(c, "days", app.DefaultStatsDays)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), response.UserID(c), projectID, days)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Board) updateStatusAction(c *gin.Context) {
	const op = "handlers.Board.updateStatusAction"
	log := h.log.WithField("operation", op)

	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	form, err := forms.ParseStatus(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	task, err := h.svc.UpdateStatus(c.Request.Context(), response.UserID(c), taskID, form.Status)
	if err != nil {
		log.WithError(err).Debug("failed to update status")
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Board) updatePositionAction(c *gin.Context) {
	const op = "handlers.Board.updatePositionAction"
	log := h.log.WithField("operation", op)

	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	position, err := forms.ParsePosition(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	task, err := h.svc.UpdatePosition(c.Request.Context(), response.UserID(c), taskID, position)
	if err != nil {
		log.WithError(err).Debug("failed to update position")
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, task)
}
