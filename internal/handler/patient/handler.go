package patient

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
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/archived", h.ListArchivedPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", h.DeletePatient)
		patients.POST("/:id/archive", h.ArchivePatient)
		patients.POST("/:id/unarchive", h.UnarchivePatient)
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

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	patient, err := set.Patients.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(patient))
}

// ListPatients serves the active live view. `search` filters on name or
// diagnosis; `unit` narrows to one referring unit (including the
// "unregistered" bucket).
func (h *Handler) ListPatients(c *gin.Context) {
	set, ok := h.set(c)
	if !ok {
		return
	}

	patients := set.Patients.Active()
	if unit := c.Query("unit"); unit != "" {
		patients = view.PatientsOfUnit(patients, set.SourceUnits.All(), unit)
	}
	patients = view.FilterPatients(patients, c.Query("search"))

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) ListArchivedPatients(c *gin.Context) {
	set, ok := h.set(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(set.Patients.Archived()))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	patient, err := set.Patients.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}
	if patient == nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("patient not found"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	patient, err := set.Patients.Update(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	if err := set.Patients.Delete(c.Request.Context(), id); err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ArchivePatient(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *Handler) UnarchivePatient(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *Handler) setArchived(c *gin.Context, archived bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	set, ok := h.set(c)
	if !ok {
		return
	}

	if archived {
		err = set.Patients.Archive(c.Request.Context(), id)
	} else {
		err = set.Patients.Unarchive(c.Request.Context(), id)
	}
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
