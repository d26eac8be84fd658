package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/urbanfix/service-booking/internal/application"
	"github.com/urbanfix/service-booking/internal/auth"
	bookingDomain "github.com/urbanfix/service-booking/internal/domain/booking"
)

// BookingHandler handles HTTP requests for booking lifecycle operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := auth.Authenticate(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	{
		// System assignment path used by the dispatcher, no user token.
		bookings.POST("/:id/assign", h.AssignProvider)
	}

	authed := r.Group("/api/v1/bookings")
	authed.Use(authMW)
	{
		authed.POST("", h.CreateBooking)
		authed.GET("", h.ListBookings)
		authed.GET("/:id", h.GetBooking)
		authed.POST("/:id/start", h.StartBooking)
		authed.POST("/:id/complete", h.CompleteBooking)
		authed.POST("/:id/cancel", h.CancelBooking)
		authed.POST("/:id/reject", h.RejectBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, result)
}

// ListBookings handles GET /api/v1/bookings. Customers see their own
// bookings; providers see the offer pool minus everything they have rejected
// plus their own assignments.
func (h *BookingHandler) ListBookings(c *gin.Context) {
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

	switch actor.Role {
	case bookingDomain.RoleCustomer:
		query.CustomerID = &actor.ID
	case bookingDomain.RoleProvider:
		query.ForProvider = &actor.ID
	}

	result, err := h.service.ListBookings(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPaginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// AssignProvider handles POST /api/v1/bookings/:id/assign.
func (h *BookingHandler) AssignProvider(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid booking ID")
		return
	}

	var body struct {
		ProviderID uuid.UUID `json:"provider_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.service.AssignProvider(c.Request.Context(), bookingID, body.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// StartBooking handles POST /api/v1/bookings/:id/start.
func (h *BookingHandler) StartBooking(c *gin.Context) {
	actor, bookingID, ok := actorAndBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.StartBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	actor, bookingID, ok := actorAndBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.CompleteBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
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

// RejectBooking handles POST /api/v1/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	actor, bookingID, ok := actorAndBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.RejectBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

// --- Helpers ---

func actorAndBookingID(c *gin.Context) (bookingDomain.Actor, uuid.UUID, bool) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return bookingDomain.Actor{}, uuid.Nil, false
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid booking ID")
		return bookingDomain.Actor{}, uuid.Nil, false
	}

	return actor, bookingID, true
}

// parseListQuery extracts filter and pagination query parameters.
func parseListQuery(c *gin.Context) (application.ListQuery, error) {
	query := application.ListQuery{
		Status: c.Query("status"),
	}

	query.Page, query.Limit = parsePagination(c)

	if s := c.Query("service_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return application.ListQuery{}, err
		}
		query.ServiceID = &id
	}
	if s := c.Query("provider_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return application.ListQuery{}, err
		}
		query.ProviderID = &id
	}
	if s := c.Query("date_from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return application.ListQuery{}, err
		}
		query.DateFrom = &t
	}
	if s := c.Query("date_to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return application.ListQuery{}, err
		}
		query.DateTo = &t
	}

	return query, nil
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
