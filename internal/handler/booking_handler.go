package handler

import (
	"net/http"
	"strconv"

	"slot-booking-service/internal/model"
	"slot-booking-service/internal/service"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", TenantMiddleware())
	{
		router.POST("bookings", h.CreateBooking)
		router.GET("bookings/:id", h.GetBooking)
		router.PATCH("bookings/:id/status", h.TransitionStatus)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.CreateBooking(c, tenantID(c), req)
	if err != nil {
		handleError(c, err, "CreateBooking")
		return
	}

	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	booking, err := h.service.GetBookingByID(c, tenantID(c), id)
	if err != nil {
		handleError(c, err, "GetBooking")
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) TransitionStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	var req model.TransitionStatusRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.TransitionStatus(c, tenantID(c), id, req.Status)
	if err != nil {
		handleError(c, err, "TransitionStatus")
		return
	}

	c.JSON(http.StatusOK, booking)
}
