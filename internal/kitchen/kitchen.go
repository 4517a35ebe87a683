package kitchen

import (
	"context"
	"errors"
	"fmt"
)

// Stage is the preparation bucket an order sits in. Order lines only ever
// move between StageWaiting and StageReady.
type Stage string

const (
	StageDraft   Stage = "draft"
	StageWaiting Stage = "waiting"
	StageReady   Stage = "ready"
	StageCancel  Stage = "cancel"
)

func (s Stage) Valid() bool {
	switch s {
	case StageDraft, StageWaiting, StageReady, StageCancel:
		return true
	}
	return false
}

var (
	// ErrOrderCompleted is surfaced to the cashier when submitting an
	// order the store already closed.
	ErrOrderCompleted = errors.New("the order is completed, please create a new order")
	// ErrEmptyOrder is surfaced when submitting an order with no lines.
	ErrEmptyOrder = errors.New("the order is either incomplete or empty, please add items before submitting")
	// ErrNoShop marks a tracker initialized without a shop scope.
	ErrNoShop = errors.New("shop id is not set")
)

// FetchError wraps a failed order-details fetch. Callers treat it as a
// soft failure and keep serving the last known state.
type FetchError struct {
	ShopID int64
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch order details for shop %d: %v", e.ShopID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Order is the wire shape of a kitchen-routed sales order as returned by
// the orders service. Amount fields are decimal strings.
type Order struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	PosReference string  `json:"pos_reference"`
	SessionID    int64   `json:"session_id"`
	ConfigID     int64   `json:"config_id"`
	CompanyID    int64   `json:"company_id"`
	OrderStatus  Stage   `json:"order_status"`
	IsCooking    bool    `json:"is_cooking"`
	AmountTotal  string  `json:"amount_total"`
	AmountPaid   string  `json:"amount_paid"`
	AmountReturn string  `json:"amount_return"`
	AmountTax    string  `json:"amount_tax"`
	Hour         int32   `json:"hour"`
	Minutes      int32   `json:"minutes"`
	TableID      *int64  `json:"table_id"`
	Floor        *string `json:"floor"`
	Lines        []int64 `json:"lines"`
}

// OrderLine is the wire shape of one product entry within an order.
type OrderLine struct {
	ID                int64   `json:"id"`
	OrderID           int64   `json:"order_id"`
	ProductID         int64   `json:"product_id"`
	FullProductName   string  `json:"full_product_name"`
	Qty               float64 `json:"qty"`
	PriceUnit         string  `json:"price_unit"`
	PriceSubtotal     string  `json:"price_subtotal"`
	PriceSubtotalIncl string  `json:"price_subtotal_incl"`
	Discount          string  `json:"discount"`
	TaxIDs            []int64 `json:"tax_ids"`
	OrderStatus       Stage   `json:"order_status"`
	IsCooking         bool    `json:"is_cooking"`
	Note              *string `json:"note"`
}

// FetchResult is the response of the order-details read. A nil Orders
// slice marks a malformed result and is treated as a no-op by consumers.
type FetchResult struct {
	Orders     []*Order     `json:"orders"`
	OrderLines []*OrderLine `json:"order_lines"`
}

// RemoteOrders is the port to the orders service. Every blocking call
// takes a context; transition calls carry no meaningful response and are
// fired without awaiting by the tracker.
type RemoteOrders interface {
	// GetDetails fetches the full current order set for a shop.
	// Safe to call repeatedly.
	GetDetails(ctx context.Context, shopID int64) (*FetchResult, error)

	// CreateKitchenOrder materializes a kitchen order for an existing
	// pos order and returns the order record.
	CreateKitchenOrder(ctx context.Context, posOrderID int64) (*Order, error)

	// SubmitOrder creates a canonical pos order from a cashier
	// submission payload.
	SubmitOrder(ctx context.Context, sub *Submission) (*Order, error)

	// Stage transitions. Fire-and-forget from the caller's perspective.
	ProgressCancel(ctx context.Context, orderID int64) error
	ProgressDraft(ctx context.Context, orderID int64) error
	ProgressChange(ctx context.Context, orderID int64) error
	LineProgressChange(ctx context.Context, lineID int64) error

	// CheckOrderStatus reports whether the named order is still open.
	CheckOrderStatus(ctx context.Context, orderName string) (bool, error)

	// SendPreparationUpdate marks the order's preparation state as
	// updated on the store.
	SendPreparationUpdate(ctx context.Context, orderName string) error
}
