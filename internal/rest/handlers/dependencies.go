package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/rest/forms"
	"github.com/tgienger/teamboard/internal/rest/response"
)

type Dependency struct {
	log *logrus.Entry
	svc *app.Service
}

func NewDependencyHandler(svc *app.Service, log *logrus.Entry) *Dependency {
	return &Dependency{log: log, svc: svc}
}

func (h *Dependency) EnrichRoutes(router gin.IRouter) {
	depRoutes := router.Group("/tasks/:taskID/dependencies")
	depRoutes.GET("", h.listDependenciesAction)
	depRoutes.GET("/blockers", h.listBlockersAction)
	depRoutes.POST("/:prereqID", h.addDependencyAction)
	depRoutes.DELETE("/:prereqID", h.removeDependencyAction)
}

type blockersResponse struct {
	Blocked  bool          `json:"blocked"`
	Blockers []models.Task `json:"blockers"`
}

func (h *Dependency) listDependenciesAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	deps, err := h.svc.GetDependencies(c.Request.Context(), response.UserID(c), taskID)
	if err != nil {
		response.HandleError(err, c)
		return
	}
	if deps == nil {
		deps = []models.Dependency{}
	}

	c.JSON(http.StatusOK, deps)
}

func (h *Dependency) listBlockersAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	blockers, err := h.svc.GetBlockers(c.Request.Context(), response.UserID(c), taskID)
	if err != nil {
		response.HandleError(err, c)
		return
	}
	if blockers == nil {
		blockers = []models.Task{}
	}

	c.JSON(http.StatusOK, blockersResponse{Blocked: len(blockers) > 0, Blockers: blockers})
}

func (h *Dependency) addDependencyAction(c *gin.Context) {
	const op = "handlers.Dependency.addDependencyAction"
	log := h.log.WithField("operation", op)

	taskID, prereqID, err := edgeParams(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	if err := h.svc.AddDependency(c.Request.Context(), response.UserID(c), taskID, prereqID); err != nil {
		log.WithError(err).Debug("failed to add dependency")
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task_id": taskID, "depends_on_id": prereqID})
}

func (h *Dependency) removeDependencyAction(c *gin.Context) {
	taskID, prereqID, err := edgeParams(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	if err := h.svc.RemoveDependency(c.Request.Context(), response.UserID(c), taskID, prereqID); err != nil {
		response.HandleError(err, c)
		return
	}

	c.Status(http.StatusNoContent)
}

func edgeParams(c *gin.Context) (int64, int64, error) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		return 0, 0, err
	}
	prereqID, err := forms.ParamID(c, "prereqID")
	if err != nil {
		return 0, 0, err
	}
	return taskID, prereqID, nil
}
