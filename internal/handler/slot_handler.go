package handler

import (
	"net/http"
	"strconv"
	"time"

	"slot-booking-service/internal/model"
	"slot-booking-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	service service.SlotService
}

func NewSlotHandler(service service.SlotService) *SlotHandler {
	return &SlotHandler{service: service}
}

func (h *SlotHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", TenantMiddleware())
	{
		router.POST("shifts", h.CreateShift)
		router.POST("shifts/:id/slots", h.GenerateSlots)
		router.GET("slots", h.ListSlots)
		router.GET("slots/:id/availability", h.GetAvailability)
		router.PUT("slots/:id/availability", h.SetAvailability)
	}
}

// CreateShiftRequest defines the recurrence slots are generated from.
type CreateShiftRequest struct {
	ServiceID       int64  `json:"service_id" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Weekdays        []int  `json:"weekdays" binding:"required,min=1,dive,min=0,max=6"`
	StartMinute     int    `json:"start_minute" binding:"min=0,max=1439"`
	EndMinute       int    `json:"end_minute" binding:"required,min=1,max=1440"`
	SlotMinutes     int    `json:"slot_minutes" binding:"required,min=5"`
	DefaultCapacity int    `json:"default_capacity" binding:"required,min=1"`
}

type GenerateSlotsRequest struct {
	From time.Time `json:"from" binding:"required" time_format:"2006-01-02"`
	To   time.Time `json:"to" binding:"required" time_format:"2006-01-02"`
}

type ListSlotsQuery struct {
	ShiftID int64     `form:"shift_id" binding:"required"`
	From    time.Time `form:"from" binding:"required" time_format:"2006-01-02"`
	To      time.Time `form:"to" binding:"required" time_format:"2006-01-02"`
}

type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

func (h *SlotHandler) CreateShift(c *gin.Context) {
	var req CreateShiftRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	shift := &model.Shift{
		TenantID:        tenantID(c),
		ServiceID:       req.ServiceID,
		Name:            req.Name,
		Weekdays:        req.Weekdays,
		StartMinute:     req.StartMinute,
		EndMinute:       req.EndMinute,
		SlotMinutes:     req.SlotMinutes,
		DefaultCapacity: req.DefaultCapacity,
	}

	created, err := h.service.CreateShift(c, shift)
	if err != nil {
		handleError(c, err, "CreateShift")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *SlotHandler) GenerateSlots(c *gin.Context) {
	shiftID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift id"})
		return
	}

	var req GenerateSlotsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	inserted, err := h.service.GenerateSlots(c, tenantID(c), shiftID, req.From, req.To)
	if err != nil {
		handleError(c, err, "GenerateSlots")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"slots_created": inserted})
}

func (h *SlotHandler) ListSlots(c *gin.Context) {
	var query ListSlotsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	slots, err := h.service.ListSlots(c, tenantID(c), query.ShiftID, query.From, query.To)
	if err != nil {
		handleError(c, err, "ListSlots")
		return
	}

	c.JSON(http.StatusOK, slots)
}

func (h *SlotHandler) GetAvailability(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot id"})
		return
	}

	availability, err := h.service.GetAvailability(c, tenantID(c), slotID)
	if err != nil {
		handleError(c, err, "GetAvailability")
		return
	}

	c.JSON(http.StatusOK, availability)
}

func (h *SlotHandler) SetAvailability(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot id"})
		return
	}

	var req SetAvailabilityRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.SetAvailability(c, tenantID(c), slotID, *req.IsAvailable); err != nil {
		handleError(c, err, "SetAvailability")
		return
	}

	c.Status(http.StatusOK)
}
