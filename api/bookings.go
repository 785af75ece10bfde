package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/Domenick1991/visitbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service       booking.BookingUseCase
	checkInWindow time.Duration
	limiter       *ActorLimiter
	now           func() time.Time
}

type actionRequest struct {
	ActorID string `json:"actor_id"`
	Action  string `json:"action"`
	Reason  string `json:"reason"`
}

type bookingResponse struct {
	ID                 string  `json:"id"`
	VehicleID          string  `json:"vehicle_id"`
	SellerID           string  `json:"seller_id"`
	BuyerID            string  `json:"buyer_id"`
	ScheduledAt        string  `json:"scheduled_at"`
	Status             string  `json:"status"`
	DisplayStatus      string  `json:"display_status"`
	CheckInBuyer       bool    `json:"check_in_buyer"`
	CheckInSeller      bool    `json:"check_in_seller"`
	Result             *string `json:"result,omitempty"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
	Observations       string  `json:"observations"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

func NewBookingHandler(service booking.BookingUseCase, checkInWindow time.Duration, limiter *ActorLimiter) *BookingHandler {
	return &BookingHandler{service: service, checkInWindow: checkInWindow, limiter: limiter, now: time.Now}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/actions", h.action)
}

func (h *BookingHandler) toResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:                 b.ID,
		VehicleID:          b.VehicleID,
		SellerID:           b.SellerID,
		BuyerID:            b.BuyerID,
		ScheduledAt:        b.ScheduledAt.Format(time.RFC3339),
		Status:             string(b.Status),
		DisplayStatus:      domain.DisplayLabel(b.Status, h.now(), b.ScheduledAt, h.checkInWindow),
		CheckInBuyer:       b.CheckInBuyer,
		CheckInSeller:      b.CheckInSeller,
		CancellationReason: b.CancellationReason,
		Observations:       b.Observations,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          b.UpdatedAt.Format(time.RFC3339),
	}
	if b.Result != nil {
		r := string(*b.Result)
		resp.Result = &r
	}
	return resp
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	filter := booking.ListFilter{
		ActorID: c.Query("actor_id"),
		Role:    domain.Role(strings.ToLower(c.Query("role"))),
		Status:  domain.BookingStatus(strings.ToUpper(c.Query("status"))),
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, h.toResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(b))
}

func (h *BookingHandler) action(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ActorID == "" {
		writeError(c, domain.NewValidationError("actor_id", "this field is required"))
		return
	}
	action, err := domain.ParseAction(req.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.limiter != nil && !h.limiter.Allow(req.ActorID) {
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests", Code: "rate_limited"})
		return
	}

	updated, err := h.service.PerformAction(c.Request.Context(), c.Param("id"), req.ActorID, action, booking.ActionPayload{Reason: req.Reason})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(updated))
}
