package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	auth        *services.AuthService
	users       *services.UserService
	clients     *services.ClientService
	projects    *services.ProjectService
	attachments *services.AttachmentService
	logger      logging.Logger
}

func NewHandler(as *services.AuthService, us *services.UserService, cs *services.ClientService,
	ps *services.ProjectService, att *services.AttachmentService, logger logging.Logger) *Handler {
	return &Handler{
		auth:        as,
		users:       us,
		clients:     cs,
		projects:    ps,
		attachments: att,
		logger:      logger.With("module", "httpapi"),
	}
}

// pathID returns the :id parameter in canonical UUID form. Anything that is
// not a UUID cannot name a record and is answered 404.
func (h *Handler) pathID(c *gin.Context) (string, bool) {
	u, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortDetail(c, http.StatusNotFound, msgNotFound)
		return "", false
	}
	return u.String(), true
}
