package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/rest/forms"
	"github.com/tgienger/teamboard/internal/rest/response"
)

type Task struct {
	log *logrus.Entry
	svc *app.Service
}

func NewTaskHandler(svc *app.Service, log *logrus.Entry) *Task {
	return &Task{log: log, svc: svc}
}

func (h *Task) EnrichRoutes(router gin.IRouter) {
	taskRoutes := router.Group("/tasks")
	taskRoutes.POST("", h.createTaskAction)
	taskRoutes.GET("", h.listTasksAction)
	taskRoutes.GET("/:taskID", h.getTaskAction)
	taskRoutes.PATCH("/:taskID", h.updateTaskAction)
	taskRoutes.DELETE("/:taskID", h.deleteTaskAction)

	taskRoutes.GET("/:taskID/assignments", h.listAssignmentsAction)
	taskRoutes.POST("/:taskID/assignments", h.assignAction)
	taskRoutes.DELETE("/:taskID/assignments/:userID", h.unassignAction)

	taskRoutes.GET("/:taskID/comments", h.listCommentsAction)
	taskRoutes.POST("/:taskID/comments", h.addCommentAction)
}

func (h *Task) createTaskAction(c *gin.Context) {
	const op = "handlers.Task.createTaskAction"
	log := h.log.WithField("operation", op)

	form, err := forms.ParseTask(c, true)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	in := app.NewTask{
		Title:     *form.Title,
		DueDate:   form.DueDate,
		ProjectID: form.ProjectID,
		Assignees: form.Assignees,
	}
	if form.Description != nil {
		in.Description = *form.Description
	}
	if form.Priority != nil {
		in.Priority = *form.Priority
	}

	task, err := h.svc.CreateTask(c.Request.Context(), response.UserID(c), in)
	if err != nil {
		log.WithError(err).Debug("failed to create task")
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *Task) listTasksAction(c *gin.Context) {
	filter, err := forms.ParseTaskFilter(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	tasks, total, err := h.svc.ListTasks(c.Request.Context(), response.UserID(c), filter)
	if err != nil {
		response.HandleError(err, c)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	c.Header("X-Total-Count", strconv.Itoa(total))
	c.JSON(http.StatusOK, tasks)
}

func (h *Task) getTaskAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	task, err := h.svc.GetTask(c.Request.Context(), response.UserID(c), taskID)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Task) updateTaskAction(c *gin.Context) {
	const op = "handlers.Task.updateTaskAction"
	log := h.log.WithField("operation", op)

	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	form, err := forms.ParseTask(c, false)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	task, err := h.svc.UpdateTask(c.Request.Context(), response.UserID(c), taskID, app.TaskPatch{
		Title:        form.Title,
		Description:  form.Description,
		Priority:     form.Priority,
		DueDate:      form.DueDate,
		ClearDueDate: form.ClearDueDate,
	})
	if err != nil {
		log.WithError(err).Debug("failed to update task")
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Task) deleteTaskAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	if err := h.svc.DeleteTask(c.Request.Context(), response.UserID(c), taskID); err != nil {
		response.HandleError(err, c)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Task) listAssignmentsAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	assignments, err := h.svc.ListAssignments(c.Request.Context(), response.UserID(c), taskID)
	if err != nil {
		response.HandleError(err, c)
		return
	}
	if assignments == nil {
		assignments = []models.Assignment{}
	}

	c.JSON(http.StatusOK, assignments)
}

func (h *Task) assignAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	form, err := forms.ParseAssignment(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	assignment, err := h.svc.Assign(c.Request.Context(), response.UserID(c), taskID, form.UserID, form.Permission, form.Note)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

func (h *Task) unassignAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	if err := h.svc.Unassign(c.Request.Context(), response.UserID(c), taskID, c.Param("userID")); err != nil {
		response.HandleError(err, c)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Task) listCommentsAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	comments, err := h.svc.ListComments(c.Request.Context(), response.UserID(c), taskID)
	if err != nil {
		response.HandleError(err, c)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, comments)
}

func (h *Task) addCommentAction(c *gin.Context) {
	taskID, err := forms.ParamID(c, "taskID")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	form, err := forms.ParseComment(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), response.UserID(c), taskID, form.Content)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusCreated, comment)
}
