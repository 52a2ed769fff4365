package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fisiotrack/clinic-api/internal/handler"
	"github.com/fisiotrack/clinic-api/internal/middleware"
	"github.com/fisiotrack/clinic-api/internal/model"
	"github.com/fisiotrack/clinic-api/internal/service/auth"
	"github.com/fisiotrack/clinic-api/internal/sync"
)

type Handler struct {
	service auth.Service
	manager *sync.Manager
}

func NewHandler(service auth.Service, manager *sync.Manager) *Handler {
	return &Handler{service: service, manager: manager}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
	}
}

// RegisterProtectedRoutes wires the routes that need an identity.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/auth/logout", h.Logout)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

// Logout releases the owner's live subscriptions. A token left in the
// wild stays valid until expiry, but the server holds no state for the
// owner after this.
func (h *Handler) Logout(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	h.manager.Release(ownerID)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
