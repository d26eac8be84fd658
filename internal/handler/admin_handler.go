package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/urbanfix/service-booking/internal/application"
	"github.com/urbanfix/service-booking/internal/auth"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.AdminService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.AdminService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(auth.Authenticate(jwtManager), auth.RequireAdmin())
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/:id/logs", h.BookingLogs)
		admin.PATCH("/bookings/:id", h.UpdateBooking)
		admin.POST("/bookings/:id/assign", h.AssignProvider)
		admin.POST("/bookings/:id/cancel", h.CancelBooking)
		admin.DELETE("/bookings/:id", h.DeleteBooking)
		admin.POST("/bookings/bulk-update", h.BulkUpdateBookings)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	query, err := parseListQuery(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if s := c.Query("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondBadRequest(c, "invalid customer ID")
			return
		}
		query.CustomerID = &id
	}

	result, err := h.service.ListAllBookings(c.Request.Context(), actor, query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPaginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// BookingLogs handles GET /api/v1/admin/bookings/:id/logs.
func (h *AdminBookingHandler) BookingLogs(c *gin.Context) {
	actor, bookingID, ok := actorAndBookingID(c)
	if !ok {
		return
	}

	logs, err := h.service.GetBookingLogs(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, logs)
}

// UpdateBooking handles PATCH /api/v1/admin/bookings/:id.
func (h *AdminBookingHandler) UpdateBooking(c *gin.Context) {
	actor, bookingID, ok := actorAndBookingID(c)
	if !ok {
		return
	}

	var req application.AdminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.service.ForceUpdateBooking(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// AssignProvider handles POST /api/v1/admin/bookings/:id/assign.
func (h *AdminBookingHandler) AssignProvider(c *gin.Context) {
	actor, bookingID, ok := actorAndBookingID(c)
	if !ok {
		return
	}

	var body struct {
		ProviderID uuid.UUID `json:"provider_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.service.AssignProvider(c.Request.Context(), actor, bookingID, body.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// CancelBooking handles POST /api/v1/admin/bookings/:id/cancel.
func (h *AdminBookingHandler) CancelBooking(c *gin.Context) {
	actor, bookingID, ok := actorAndBookingID(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.CancelBooking(c.Request.Context(), actor, bookingID, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id.
func (h *AdminBookingHandler) DeleteBooking(c *gin.Context) {
	actor, bookingID, ok := actorAndBookingID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), actor, bookingID); err != nil {
		respondError(c, err)
		return
	}

	respondNoContent(c)
}

// BulkUpdateBookings handles POST /api/v1/admin/bookings/bulk-update.
func (h *AdminBookingHandler) BulkUpdateBookings(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		BookingIDs []uuid.UUID                    `json:"booking_ids" binding:"required"`
		Update     application.AdminUpdateRequest `json:"update"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.service.BulkUpdateBookings(c.Request.Context(), actor, body.BookingIDs, body.Update)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var from, to *time.Time
	if s := c.Query("date_from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondBadRequest(c, "invalid date_from")
			return
		}
		from = &t
	}
	if s := c.Query("date_to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondBadRequest(c, "invalid date_to")
			return
		}
		to = &t
	}

	stats, err := h.service.GetBookingStats(c.Request.Context(), actor, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, stats)
}
