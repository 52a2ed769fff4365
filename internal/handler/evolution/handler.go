package evolution

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fisiotrack/clinic-api/internal/handler"
	"github.com/fisiotrack/clinic-api/internal/middleware"
	"github.com/fisiotrack/clinic-api/internal/model"
	"github.com/fisiotrack/clinic-api/internal/sync"
)

type Handler struct {
	manager *sync.Manager
}

func NewHandler(manager *sync.Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/patients/:id/evolutions", h.CreateEvolution)
	r.GET("/patients/:id/evolutions", h.ListEvolutions)

	evolutions := r.Group("/evolutions")
	{
		evolutions.PUT("/:id", h.ReplaceEvolution)
		evolutions.DELETE("/:id", h.DeleteEvolution)
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

func (h *Handler) CreateEvolution(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.CreateEvolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	evolution, err := set.Evolutions.Create(c.Request.Context(), patientID, &req)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(evolution))
}

// ListEvolutions serves one patient's notes, visit date descending,
// straight from the owner-scoped snapshot.
func (h *Handler) ListEvolutions(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(set.Evolutions.ListByPatient(patientID)))
}

func (h *Handler) ReplaceEvolution(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid evolution ID"))
		return
	}

	var req model.ReplaceEvolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	evolution, err := set.Evolutions.Replace(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(evolution))
}

func (h *Handler) DeleteEvolution(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid evolution ID"))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	if err := set.Evolutions.Delete(c.Request.Context(), id); err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
