package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/rest/forms"
	"github.com/tgienger/teamboard/internal/rest/response"
)

type Project struct {
	log *logrus.Entry
	svc *app.Service
}

func NewProjectHandler(svc *app.Service, log *logrus.Entry) *Project {
	return &Project{log: log, svc: svc}
}

func (h *Project) EnrichRoutes(router gin.IRouter) {
	projectRoutes := router.Group("/projects")
	projectRoutes.POST("", h.createProjectAction)
	projectRoutes.GET("", h.listProjectsAction)
	projectRoutes.GET("/:projectID", h.getProjectAction)
	projectRoutes.PUT("/:projectID", h.updateProjectAction)
	projectRoutes.DELETE("/:projectID", h.deleteProjectAction)
	projectRoutes.POST("/:projectID/members", h.addMemberAction)
	projectRoutes.DELETE("/:projectID/members/:userID", h.removeMemberAction)
}

func (h *Project) createProjectAction(c *gin.Context) {
	const op = "handlers.Project.createProjectAction"
	log := h.log.WithField("operation", op)

	form, err := forms.ParseProject(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	project, err := h.svc.CreateProject(c.Request.Context(), response.UserID(c), form.Title, form.Description)
	if err != nil {
		log.WithError(err).Debug("failed to create project")
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *Project) listProjectsAction(c *gin.Context) {
	projects, err := h.svc.ListProjects(c.Request.Context(), response.UserID(c))
	if err != nil {
		response.HandleError(err, c)
		return
	}
	if projects == nil {
		projects = []app.ProjectSummary{}
	}

	c.JSON(http.StatusOK, projects)
}

func (h *Project) getProjectAction(c *gin.Context) {
	projectID, err := forms.ParamID(c, "projectID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	project, err := h.svc.GetProject(c.Request.Context(), response.UserID(c), projectID)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Project) updateProjectAction(c *gin.Context) {
	projectID, err := forms.ParamID(c, "projectID")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	form, err := forms.ParseProject(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	project, err := h.svc.UpdateProject(c.Request.Context(), response.UserID(c), projectID, form.Title, form.Description)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Project) deleteProjectAction(c *gin.Context) {
	projectID, err := forms.ParamID(c, "projectID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	if err := h.svc.DeleteProject(c.Request.Context(), response.UserID(c), projectID); err != nil {
		response.HandleError(err, c)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Project) addMemberAction(c *gin.Context) {
	projectID, err := forms.ParamID(c, "projectID")
	if err != nil {
		response.HandleError(err, c)
		return
	}
	form, err := forms.ParseMember(c)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	member, err := h.svc.AddMember(c.Request.Context(), response.UserID(c), projectID, form.UserID, form.Role)
	if err != nil {
		response.HandleError(err, c)
		return
	}

	c.JSON(http.StatusCreated, member)
}

func (h *Project) removeMemberAction(c *gin.Context) {
	projectID, err := forms.ParamID(c, "projectID")
	if err != nil {
		response.HandleError(err, c)
		return
	}

	if err := h.svc.RemoveMember(c.Request.Context(), response.UserID(c), projectID, c.Param("userID")); err != nil {
		response.HandleError(err, c)
		return
	}

	c.Status(http.StatusNoContent)
}
