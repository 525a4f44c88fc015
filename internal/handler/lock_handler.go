package handler

import (
	"net/http"

	"slot-booking-service/internal/model"
	"slot-booking-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LockHandler struct {
	service service.LockService
}

func NewLockHandler(service service.LockService) *LockHandler {
	return &LockHandler{service: service}
}

func (h *LockHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", TenantMiddleware())
	{
		router.POST("locks", h.AcquireLock)
		router.DELETE("locks/:id", h.ReleaseLock)
	}
}

// LockResponse is what the client needs to complete the flow before
// expiry.
type LockResponse struct {
	LockID    uuid.UUID `json:"lock_id"`
	SlotID    int64     `json:"slot_id"`
	ExpiresAt string    `json:"expires_at"`
}

func (h *LockHandler) AcquireLock(c *gin.Context) {
	var req model.AcquireLockRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	lock, err := h.service.AcquireLock(c, tenantID(c), req)
	if err != nil {
		handleError(c, err, "AcquireLock")
		return
	}

	c.JSON(http.StatusCreated, LockResponse{
		LockID:    lock.ID,
		SlotID:    lock.SlotID,
		ExpiresAt: lock.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *LockHandler) ReleaseLock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lock id"})
		return
	}

	if err := h.service.ReleaseLock(c, tenantID(c), id); err != nil {
		handleError(c, err, "ReleaseLock")
		return
	}

	c.Status(http.StatusNoContent)
}
