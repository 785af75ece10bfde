package api

import (
	"net/http"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/Domenick1991/visitbooking/internal/service/availability"
	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	service availability.AvailabilityUseCase
}

type slotsResponse struct {
	SellerID string             `json:"seller_id"`
	Date     domain.Date        `json:"date"`
	Slots    []domain.TimeLabel `json:"slots"`
}

type availableDatesResponse struct {
	SellerID string        `json:"seller_id"`
	From     domain.Date   `json:"from"`
	To       domain.Date   `json:"to"`
	Dates    []domain.Date `json:"dates"`
}

func NewAvailabilityHandler(service availability.AvailabilityUseCase) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

func (h *AvailabilityHandler) Register(router *gin.RouterGroup) {
	router.GET("/store-settings", h.storeSettings)

	sellers := router.Group("/sellers/:sellerId")
	sellers.GET("/slots", h.slots)
	sellers.GET("/available-dates", h.availableDates)
	sellers.GET("/availability", h.get)
	sellers.PUT("/availability", h.set)
	sellers.DELETE("/availability", h.reset)
}

func (h *AvailabilityHandler) storeSettings(c *gin.Context) {
	settings, err := h.service.GetStoreSettings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *AvailabilityHandler) slots(c *gin.Context) {
	date, err := domain.ParseDate(c.Query("date"))
	if err != nil {
		badRequest(c, err)
		return
	}

	sellerID := c.Param("sellerId")
	slots, err := h.service.GetAvailableSlots(c.Request.Context(), sellerID, date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slotsResponse{SellerID: sellerID, Date: date, Slots: slots})
}

func (h *AvailabilityHandler) availableDates(c *gin.Context) {
	from, err := domain.ParseDate(c.Query("from"))
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := domain.ParseDate(c.Query("to"))
	if err != nil {
		badRequest(c, err)
		return
	}

	sellerID := c.Param("sellerId")
	dates, err := h.service.AvailableDates(c.Request.Context(), sellerID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availableDatesResponse{SellerID: sellerID, From: from, To: to, Dates: dates})
}

func (h *AvailabilityHandler) get(c *gin.Context) {
	cfg, err := h.service.GetAvailability(c.Request.Context(), c.Param("sellerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *AvailabilityHandler) set(c *gin.Context) {
	var req domain.AvailabilityConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cfg, err := h.service.SetAvailability(c.Request.Context(), c.Param("sellerId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *AvailabilityHandler) reset(c *gin.Context) {
	cfg, err := h.service.ResetAvailability(c.Request.Context(), c.Param("sellerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
