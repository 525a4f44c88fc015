package handler

import (
	"errors"
	"net/http"

	apperrors "slot-booking-service/pkg/app_errors"
	"slot-booking-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const tenantKey = "tenant_id"

// TenantMiddleware enforces the X-Tenant-ID header; every repository
// query below is scoped by it.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := c.GetHeader("X-Tenant-ID")
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Missing X-Tenant-ID header",
			})
			return
		}
		c.Set(tenantKey, tenant)
		c.Next()
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString(tenantKey)
}

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// handleError maps the error taxonomy onto HTTP statuses. Capacity and
// quota rejections are business outcomes (409), an expired lock tells
// the client to re-acquire (410), and an invariant violation is a
// defect logged loudly before the 500.
func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSlotNotFound),
		errors.Is(err, apperrors.ErrShiftNotFound),
		errors.Is(err, apperrors.ErrLockNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound),
		errors.Is(err, apperrors.ErrQuotaEntryNotFound):
		log.Warn("Resource not found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		log.Info("Capacity exceeded")
		c.JSON(http.StatusConflict, gin.H{"error": "Slot is fully booked"})
	case errors.Is(err, apperrors.ErrSlotUnavailable):
		log.Info("Slot unavailable")
		c.JSON(http.StatusConflict, gin.H{"error": "Slot is not available"})
	case errors.Is(err, apperrors.ErrInsufficientQuota):
		log.Info("Quota exhausted")
		c.JSON(http.StatusConflict, gin.H{"error": "Package quota exhausted"})
	case errors.Is(err, apperrors.ErrLockExpiredOrInvalid):
		log.Info("Lock expired or invalid")
		c.JSON(http.StatusGone, gin.H{"error": "Reservation expired, please retry"})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		log.Warn("Invalid status transition")
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	case errors.Is(err, apperrors.ErrCapacityInvariantViolation):
		log.Error("Capacity invariant violation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
