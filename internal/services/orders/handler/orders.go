package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kitchen-system/internal/database/models"
	"kitchen-system/internal/kitchen"
	"kitchen-system/internal/kitchen/bus"
)

const (
	DETAILS_CACHE_PREFIX = "kitchen:details:"
	CACHE_TTL_SHORT      = 30 * time.Second

	EventOrderCreated = "pos_order_created"
	ResModelPosOrder  = "pos.order"
)

// OrdersHandler serves the remote-store API the kitchen screens and
// cashier pads consume.
type OrdersHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	bus     bus.Bus
	channel string
}

func NewOrdersHandler(db *gorm.DB, redisClient *redis.Client, eventBus bus.Bus, channel string) *OrdersHandler {
	return &OrdersHandler{
		db:      db,
		redis:   redisClient,
		bus:     eventBus,
		channel: channel,
	}
}

func (h *OrdersHandler) invalidateDetailsCache(ctx context.Context, shopID int64) {
	key := fmt.Sprintf("%s%d", DETAILS_CACHE_PREFIX, shopID)
	if err := h.redis.Del(ctx, key).Err(); err != nil {
		log.Printf("orders: failed to invalidate details cache for shop %d: %v", shopID, err)
	}
}

// -- MODEL TO WIRE --

func orderToWire(o models.PosOrder) *kitchen.Order {
	lineIDs := make([]int64, 0, len(o.Lines))
	for _, l := range o.Lines {
		lineIDs = append(lineIDs, l.ID)
	}

	return &kitchen.Order{
		ID:           o.ID,
		Name:         o.Name,
		PosReference: o.PosReference,
		SessionID:    o.SessionID,
		ConfigID:     o.ConfigID,
		CompanyID:    o.CompanyID,
		OrderStatus:  kitchen.Stage(o.OrderStatus),
		IsCooking:    o.IsCooking,
		AmountTotal:  o.AmountTotal,
		AmountPaid:   o.AmountPaid,
		AmountReturn: o.AmountReturn,
		AmountTax:    o.AmountTax,
		Hour:         o.Hour,
		Minutes:      o.Minutes,
		TableID:      o.TableID,
		Floor:        o.Floor,
		Lines:        lineIDs,
	}
}

func lineToWire(l models.PosOrderLine) *kitchen.OrderLine {
	return &kitchen.OrderLine{
		ID:                l.ID,
		OrderID:           l.OrderID,
		ProductID:         l.ProductID,
		FullProductName:   l.FullProductName,
		Qty:               l.Qty,
		PriceUnit:         l.PriceUnit,
		PriceSubtotal:     l.PriceSubtotal,
		PriceSubtotalIncl: l.PriceSubtotalIncl,
		Discount:          l.Discount,
		TaxIDs:            l.TaxIDs,
		OrderStatus:       kitchen.Stage(l.OrderStatus),
		IsCooking:         l.IsCooking,
		Note:              l.Note,
	}
}

// nextSequence generates a kitchen-order sequence. The store the
// original design sat on handed out gapless sequences; a uuid suffix is
// good enough here and keeps the service stateless.
func nextSequence() string {
	return "KS/" + strings.ToUpper(uuid.NewString()[:8])
}

// newOrderName builds a pos reference when the submission carries none.
func newOrderName() string {
	return "Order " + strings.ToUpper(uuid.NewString()[:13])
}

// detailsPayload is the cached body of the order-details read.
type detailsPayload struct {
	Orders     []*kitchen.Order     `json:"orders"`
	OrderLines []*kitchen.OrderLine `json:"order_lines"`
}

// -- HANDLERS --

// GetDetails returns the full cooking order set for a shop. Idempotent
// read, cached briefly per shop.
func (h *OrdersHandler) GetDetails(c *gin.Context) {
	shopID, err := strconv.ParseInt(c.Query("shop_id"), 10, 64)
	if err != nil || shopID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "shop_id must be provided",
		})
		return
	}

	cacheKey := fmt.Sprintf("%s%d", DETAILS_CACHE_PREFIX, shopID)
	if cached, err := h.redis.Get(c.Request.Context(), cacheKey).Result(); err == nil {
		var payload detailsPayload
		if err := json.Unmarshal([]byte(cached), &payload); err == nil {
			c.JSON(http.StatusOK, gin.H{
				"success":     true,
				"orders":      payload.Orders,
				"order_lines": payload.OrderLines,
			})
			return
		}
	}

	var orders []models.PosOrder
	if err := h.db.Preload("Lines").
		Where("config_id = ? AND is_cooking = ?", shopID, true).
		Order("id").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	payload := detailsPayload{
		Orders:     make([]*kitchen.Order, 0, len(orders)),
		OrderLines: []*kitchen.OrderLine{},
	}
	for _, o := range orders {
		payload.Orders = append(payload.Orders, orderToWire(o))
		for _, l := range o.Lines {
			payload.OrderLines = append(payload.OrderLines, lineToWire(l))
		}
	}

	if raw, err := json.Marshal(payload); err == nil {
		_ = h.redis.Set(c.Request.Context(), cacheKey, raw, CACHE_TTL_SHORT).Err()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"orders":      payload.Orders,
		"order_lines": payload.OrderLines,
	})
}

// CreateOrder persists a cashier submission as a pos order and notifies
// the kitchen screens over the bus.
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	var sub kitchen.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid submission payload: " + err.Error(),
		})
		return
	}

	status := string(sub.OrderStatus)
	if status == "" {
		status = string(kitchen.StageDraft)
	}
	name := sub.PosReference
	if name == "" {
		name = newOrderName()
	}

	order := models.PosOrder{
		Name:         name,
		PosReference: name,
		SessionID:    sub.SessionID,
		ConfigID:     sub.ConfigID,
		CompanyID:    sub.CompanyID,
		OrderStatus:  status,
		IsCooking:    sub.IsCooking,
		AmountTotal:  sub.AmountTotal,
		AmountPaid:   sub.AmountPaid,
		AmountReturn: sub.AmountReturn,
		AmountTax:    sub.AmountTax,
		Hour:         sub.Hour,
		Minutes:      sub.Minutes,
		TableID:      sub.TableID,
		Floor:        sub.Floor,
	}
	for _, l := range sub.Lines {
		order.Lines = append(order.Lines, models.PosOrderLine{
			ProductID:         l.ProductID,
			FullProductName:   l.FullProductName,
			Qty:               l.Qty,
			PriceUnit:         l.PriceUnit,
			PriceSubtotal:     l.PriceSubtotal,
			PriceSubtotalIncl: l.PriceSubtotalIncl,
			Discount:          l.Discount,
			TaxIDs:            l.TaxIDs,
			OrderStatus:       string(kitchen.StageWaiting),
			IsCooking:         l.IsCooking,
			Note:              l.Note,
		})
	}
	if order.AmountTotal == "" {
		order.AmountTotal, order.AmountTax = computeTotals(sub.Lines)
	}

	if err := h.db.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	ctx := c.Request.Context()
	h.invalidateDetailsCache(ctx, order.ConfigID)

	if err := h.bus.Publish(ctx, h.channel, bus.Notification{
		Message:  EventOrderCreated,
		ResModel: ResModelPosOrder,
		ResID:    order.ID,
	}); err != nil {
		log.Printf("orders: failed to publish %s for order %d: %v", EventOrderCreated, order.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"order":   orderToWire(order),
	})
}

// computeTotals aggregates line subtotals when the submission carries
// no order-level amounts.
func computeTotals(lines []kitchen.SubmissionLine) (total, tax string) {
	sum := decimal.Zero
	untaxed := decimal.Zero
	for _, l := range lines {
		incl, _ := decimal.NewFromString(l.PriceSubtotalIncl)
		sub, _ := decimal.NewFromString(l.PriceSubtotal)
		sum = sum.Add(incl)
		untaxed = untaxed.Add(sub)
	}
	return sum.StringFixed(2), sum.Sub(untaxed).StringFixed(2)
}

type createKitchenOrderRequest struct {
	PosOrderID int64 `json:"pos_order_id" binding:"required"`
}

// CreateKitchenOrder materializes a kitchen-order record for an
// existing pos order. The order must exist and carry at least one line.
func (h *OrdersHandler) CreateKitchenOrder(c *gin.Context) {
	var req createKitchenOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "pos_order_id must be provided",
		})
		return
	}

	var order models.PosOrder
	if err := h.db.Preload("Lines").First(&order, req.PosOrderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "POS order does not exist",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	if len(order.Lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "no POS order lines found, the order list is empty",
		})
		return
	}

	kitchenOrder := models.KitchenOrder{
		Sequence:    nextSequence(),
		PosOrderID:  order.ID,
		PosConfigID: order.ConfigID,
	}
	for _, l := range order.Lines {
		kitchenOrder.PosCategIDs = append(kitchenOrder.PosCategIDs, l.ProductID)
	}

	if err := h.db.Create(&kitchenOrder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	h.invalidateDetailsCache(c.Request.Context(), order.ConfigID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   orderToWire(order),
	})
}

// progress applies one order stage transition.
func (h *OrdersHandler) progress(c *gin.Context, next string) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "order id must be provided",
		})
		return
	}

	var order models.PosOrder
	if err := h.db.First(&order, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "POS order does not exist",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	if err := h.db.Model(&order).Update("order_status", next).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	h.invalidateDetailsCache(c.Request.Context(), order.ConfigID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *OrdersHandler) ProgressCancel(c *gin.Context) {
	h.progress(c, string(kitchen.StageCancel))
}

func (h *OrdersHandler) ProgressAccept(c *gin.Context) {
	h.progress(c, string(kitchen.StageWaiting))
}

func (h *OrdersHandler) ProgressDone(c *gin.Context) {
	h.progress(c, string(kitchen.StageReady))
}

// LineProgress toggles one order line between waiting and ready.
func (h *OrdersHandler) LineProgress(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || lineID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "line id must be provided",
		})
		return
	}

	var line models.PosOrderLine
	if err := h.db.First(&line, lineID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "POS order line does not exist",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	next := toggleLineStatus(line.OrderStatus)
	if err := h.db.Model(&line).Update("order_status", next).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	var order models.PosOrder
	if err := h.db.First(&order, line.OrderID).Error; err == nil {
		h.invalidateDetailsCache(c.Request.Context(), order.ConfigID)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order_status": next})
}

func toggleLineStatus(current string) string {
	if current == string(kitchen.StageReady) {
		return string(kitchen.StageWaiting)
	}
	return string(kitchen.StageReady)
}

// CheckOrderStatus reports whether the named order is still open. An
// unknown name counts as open: the pad may hold an order the store has
// not seen yet.
func (h *OrdersHandler) CheckOrderStatus(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "name must be provided",
		})
		return
	}

	var order models.PosOrder
	if err := h.db.Where("name = ? OR pos_reference = ?", name, name).First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusOK, gin.H{"success": true, "open": true})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"open":    orderIsOpen(order.OrderStatus),
	})
}

func orderIsOpen(status string) bool {
	return status != string(kitchen.StageReady) && status != string(kitchen.StageCancel)
}

type preparationRequest struct {
	PosReference string `json:"pos_reference" binding:"required"`
}

// MarkPreparationUpdated acknowledges a preparation-state update for
// the named order, flagging it as cooking.
func (h *OrdersHandler) MarkPreparationUpdated(c *gin.Context) {
	var req preparationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "pos_reference must be provided",
		})
		return
	}

	result := h.db.Model(&models.PosOrder{}).
		Where("name = ? OR pos_reference = ?", req.PosReference, req.PosReference).
		Update("is_cooking", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "database error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": result.RowsAffected})
}
