package handler

import (
	"net/http"
	"strconv"

	"slot-booking-service/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the operational surfaces: capacity reconciliation
// and package subscription activation.
type AdminHandler struct {
	reconcileService service.ReconcileService
	packageService   service.PackageService
}

func NewAdminHandler(reconcileService service.ReconcileService, packageService service.PackageService) *AdminHandler {
	return &AdminHandler{
		reconcileService: reconcileService,
		packageService:   packageService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1/admin", TenantMiddleware())
	{
		router.POST("recalculate-capacity", h.RecalculateCapacity)
		router.POST("subscriptions/:id/activate", h.ActivateSubscription)
		router.GET("subscriptions/:id/usage/:service_id", h.GetUsage)
	}
}

// RecalculateCapacityRequest targets one slot, or every slot of the
// tenant when slot_id is omitted.
type RecalculateCapacityRequest struct {
	SlotID *int64 `json:"slot_id"`
}

func (h *AdminHandler) RecalculateCapacity(c *gin.Context) {
	// An empty body means recalculate every slot of the tenant.
	var req RecalculateCapacityRequest
	if c.Request.ContentLength > 0 {
		if err := BindJson(c, &req); err != nil {
			return
		}
	}

	if req.SlotID != nil {
		report, err := h.reconcileService.RecalculateSlot(c, tenantID(c), *req.SlotID)
		if err != nil {
			handleError(c, err, "RecalculateCapacity")
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	report, err := h.reconcileService.RecalculateAll(c, tenantID(c))
	if err != nil {
		handleError(c, err, "RecalculateCapacity")
		return
	}

	c.JSON(http.StatusOK, report)
}

// ActivateSubscriptionRequest maps covered service ids to entitled
// quantities.
type ActivateSubscriptionRequest struct {
	Entitlements map[int64]int `json:"entitlements" binding:"required"`
}

func (h *AdminHandler) ActivateSubscription(c *gin.Context) {
	subscriptionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription id"})
		return
	}

	var req ActivateSubscriptionRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.packageService.ActivateSubscription(c, tenantID(c), subscriptionID, req.Entitlements); err != nil {
		handleError(c, err, "ActivateSubscription")
		return
	}

	c.Status(http.StatusCreated)
}

func (h *AdminHandler) GetUsage(c *gin.Context) {
	subscriptionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription id"})
		return
	}

	serviceID, err := strconv.ParseInt(c.Param("service_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service id"})
		return
	}

	usage, err := h.packageService.GetUsage(c, tenantID(c), subscriptionID, serviceID)
	if err != nil {
		handleError(c, err, "GetUsage")
		return
	}

	c.JSON(http.StatusOK, usage)
}
