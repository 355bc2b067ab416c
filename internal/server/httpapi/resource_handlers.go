package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/projecthub/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Users.

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newUserResponse(u))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in services.NewUser
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.users.CreateAs(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(u))
}

// UpdateUser serves both PUT and PATCH; absent fields are kept.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in services.UserUpdate
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.users.Update(c.Request.Context(), callerFrom(c), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clients.

func (h *Handler) ListClients(c *gin.Context) {
	list, err := h.clients.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]clientResponse, 0, len(list))
	for _, d := range list {
		resp = append(resp, newClientResponse(d))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetClient(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	d, err := h.clients.Get(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newClientResponse(*d))
}

func (h *Handler) CreateClient(c *gin.Context) {
	var in services.ClientInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.clients.Create(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newClientResponse(*d))
}

func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in services.ClientInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.clients.Update(c.Request.Context(), callerFrom(c), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newClientResponse(*d))
}

func (h *Handler) PatchClient(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in clientPatchRequest
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.clients.Patch(c.Request.Context(), callerFrom(c), id, in.patch())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newClientResponse(*d))
}

func (h *Handler) DeleteClient(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.clients.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Projects.

func (h *Handler) writeProjects(c *gin.Context, list []services.ProjectDetail, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]projectResponse, 0, len(list))
	for _, d := range list {
		resp = append(resp, newProjectResponse(d))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListProjects(c *gin.Context) {
	list, err := h.projects.List(c.Request.Context(), callerFrom(c))
	h.writeProjects(c, list, err)
}

func (h *Handler) MyProjects(c *gin.Context) {
	list, err := h.projects.ListMine(c.Request.Context(), callerFrom(c))
	h.writeProjects(c, list, err)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	d, err := h.projects.Get(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectResponse(*d))
}

func (h *Handler) CreateProject(c *gin.Context) {
	var in services.ProjectInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.projects.Create(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newProjectResponse(*d))
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in services.ProjectInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.projects.Update(c.Request.Context(), callerFrom(c), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectResponse(*d))
}

func (h *Handler) PatchProject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in projectPatchRequest
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.projects.Patch(c.Request.Context(), callerFrom(c), id, in.patch())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectResponse(*d))
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Attachments.

func (h *Handler) UploadAttachment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in attachmentRequest
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.attachments.PresignUpload(c.Request.Context(), callerFrom(c), id, in.FileName)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAttachmentResponse(t))
}

func (h *Handler) DownloadAttachment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	t, err := h.attachments.PresignDownload(c.Request.Context(), callerFrom(c), id, c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAttachmentResponse(t))
}
