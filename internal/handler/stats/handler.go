package stats

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fisiotrack/clinic-api/internal/handler"
	"github.com/fisiotrack/clinic-api/internal/middleware"
	"github.com/fisiotrack/clinic-api/internal/sync"
	"github.com/fisiotrack/clinic-api/internal/view"
)

type Handler struct {
	manager *sync.Manager
}

func NewHandler(manager *sync.Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStatistics)
}

// GetStatistics serves the home dashboard numbers, built fresh from the
// current snapshots on every call.
func (h *Handler) GetStatistics(c *gin.Context) {
	set, err := h.manager.ForOwner(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	stats := view.BuildStatistics(
		set.Patients.Active(),
		set.Patients.Archived(),
		set.Evolutions.All(),
		time.Now(),
	)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
