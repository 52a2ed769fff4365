package sourceunit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fisiotrack/clinic-api/internal/handler"
	"github.com/fisiotrack/clinic-api/internal/middleware"
	"github.com/fisiotrack/clinic-api/internal/model"
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
	units := r.Group("/units")
	{
		units.POST("", h.CreateUnit)
		units.GET("", h.ListUnits)
		units.GET("/summary", h.UnitSummary)
		units.DELETE("/:id", h.DeleteUnit)
	}
}

func (h *Handler) set(c *gin.Context) (*sync.Set, bool) {
	set, err := h.manager.ForOwner(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return nil, false
	}
	return set, true
}

func (h *Handler) CreateUnit(c *gin.Context) {
	var req model.CreateSourceUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	unit, err := set.SourceUnits.Create(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(unit))
}

func (h *Handler) ListUnits(c *gin.Context) {
	set, ok := h.set(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(set.SourceUnits.All()))
}

// UnitSummary groups active patients by referring unit, with the
// synthetic bucket for names no registered unit matches.
func (h *Handler) UnitSummary(c *gin.Context) {
	set, ok := h.set(c)
	if !ok {
		return
	}

	summary := view.GroupByUnit(set.Patients.Active(), set.SourceUnits.All())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

// DeleteUnit removes a unit only. Patients referencing its name stay
// put and show up under the unregistered bucket afterwards.
func (h *Handler) DeleteUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid unit ID"))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	if err := set.SourceUnits.Delete(c.Request.Context(), id); err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
