package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kitchen-system/internal/kitchen"
	"kitchen-system/internal/kitchen/submitter"
	"kitchen-system/internal/kitchen/tracker"
	"kitchen-system/internal/utils"
)

// KitchenHTTPHandler exposes the kitchen screen and cashier pad surface
// over the tracker and submitter.
type KitchenHTTPHandler struct {
	tracker   *tracker.Tracker
	submitter *submitter.Submitter
}

func NewKitchenHTTPHandler(t *tracker.Tracker, s *submitter.Submitter) *KitchenHTTPHandler {
	return &KitchenHTTPHandler{
		tracker:   t,
		submitter: s,
	}
}

// Request structs
type LoginRequest struct {
	Username  string `json:"username" binding:"required"`
	Pin       string `json:"pin" binding:"required"`
	CashierID int64  `json:"cashier_id"`
}

func stationPin() string {
	if v := os.Getenv("KITCHEN_STATION_PIN"); v != "" {
		return v
	}
	return "0000"
}

// Login issues a station token for the kitchen routes.
func (h *KitchenHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "username and pin are required",
		})
		return
	}

	if req.Pin != stationPin() {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "invalid station pin",
		})
		return
	}

	token, exp, err := utils.GenerateToken(req.CashierID, h.tracker.ShopID(), req.Username, 12*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"expires_at": exp,
	})
}

// State returns the reactive kitchen screen snapshot.
func (h *KitchenHTTPHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   h.tracker.State(),
	})
}

func (h *KitchenHTTPHandler) orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "a valid id must be provided",
		})
		return 0, false
	}
	return id, true
}

func (h *KitchenHTTPHandler) CancelOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	h.tracker.CancelOrder(id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *KitchenHTTPHandler) AcceptOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	h.tracker.AcceptOrder(id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *KitchenHTTPHandler) DoneOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	h.tracker.DoneOrder(id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *KitchenHTTPHandler) AcceptOrderLine(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	h.tracker.ToggleLineStage(id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SelectStage changes the screen's stage filter.
func (h *KitchenHTTPHandler) SelectStage(c *gin.Context) {
	stage := kitchen.Stage(c.Param("stage"))
	if !stage.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "unknown stage",
		})
		return
	}
	h.tracker.SelectStageView(stage)
	c.JSON(http.StatusOK, gin.H{"success": true, "stages": stage})
}

// SubmitOrder runs the kitchen submission flow for the pad's current
// order. The two validation failures map onto user-facing popups.
func (h *KitchenHTTPHandler) SubmitOrder(c *gin.Context) {
	var order kitchen.CurrentOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid order payload: " + err.Error(),
		})
		return
	}

	err := h.submitter.Submit(c.Request.Context(), &order)
	switch {
	case errors.Is(err, kitchen.ErrOrderCompleted):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"title":   "Order is Completed",
			"message": "The order is completed, please create a new order.",
		})
	case errors.Is(err, kitchen.ErrEmptyOrder):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"title":   "Invalid Order",
			"message": "The order is either incomplete or empty. Please add items before submitting.",
		})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
