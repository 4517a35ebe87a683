// Package tracker maintains the kitchen screen's view of active orders,
// partitioned by preparation stage. It applies remote refreshes pushed
// over the notification bus and optimistic local transitions from
// kitchen-staff actions. Stage transitions are mirrored to the orders
// service without awaiting the result; divergence heals on the next
// full refresh.
package tracker

import (
	"context"
	"log"
	"sort"
	"sync"

	"kitchen-system/internal/kitchen"
	"kitchen-system/internal/kitchen/bus"
	"kitchen-system/internal/kitchen/session"
)

// Tracker holds the per-shop order and line state behind one mutex,
// the Go rendering of the original single-threaded event loop.
type Tracker struct {
	remote kitchen.RemoteOrders
	sess   *session.Context

	mu       sync.Mutex
	shopID   int64
	orders   map[int64]*kitchen.Order
	lines    map[int64]*kitchen.OrderLine
	selected kitchen.Stage
}

func New(remote kitchen.RemoteOrders, sess *session.Context) *Tracker {
	return &Tracker{
		remote:   remote,
		sess:     sess,
		orders:   make(map[int64]*kitchen.Order),
		lines:    make(map[int64]*kitchen.OrderLine),
		selected: kitchen.StageDraft,
	}
}

// Initialize resolves the shop scope and loads the current order set.
// Failure is not fatal: the error is returned for logging and the
// tracker keeps serving an empty state until the next refresh.
func (t *Tracker) Initialize(ctx context.Context) error {
	shopID := t.sess.ShopID()
	if shopID == 0 {
		log.Println("tracker: shop id is not available, unable to fetch initial order details")
		return &kitchen.FetchError{ShopID: 0, Err: kitchen.ErrNoShop}
	}

	t.mu.Lock()
	t.shopID = shopID
	t.mu.Unlock()

	result, err := t.remote.GetDetails(ctx, shopID)
	if err != nil {
		log.Printf("tracker: error fetching initial order details: %v", err)
		return &kitchen.FetchError{ShopID: shopID, Err: err}
	}

	t.ApplyFullRefresh(result)
	return nil
}

// ApplyFullRefresh replaces the tracked orders and lines wholesale from
// a fetch result. Idempotent: applying the same result twice yields
// identical state. A result without orders is a warned no-op.
func (t *Tracker) ApplyFullRefresh(result *kitchen.FetchResult) {
	if result == nil || result.Orders == nil {
		log.Println("tracker: no order details available to update")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.orders = make(map[int64]*kitchen.Order, len(result.Orders))
	for _, o := range result.Orders {
		cp := *o
		t.orders[cp.ID] = &cp
	}
	t.lines = make(map[int64]*kitchen.OrderLine, len(result.OrderLines))
	for _, l := range result.OrderLines {
		cp := *l
		t.lines[cp.ID] = &cp
	}
}

// HandleNotification consumes a push notification from the bus. Only
// order-creation events for pos orders are acted on: a full refetch and
// a kitchen-order materialization, each independent of the other's
// outcome.
func (t *Tracker) HandleNotification(ctx context.Context, n bus.Notification) {
	if n.Message != "pos_order_created" || n.ResModel != "pos.order" {
		return
	}
	if n.ResID == 0 {
		log.Println("tracker: pos order id is missing in the notification payload")
		return
	}

	result, err := t.remote.GetDetails(ctx, t.ShopID())
	if err != nil {
		log.Printf("tracker: error fetching order details after order creation: %v", err)
	} else {
		t.ApplyFullRefresh(result)
	}

	t.CreateKitchenOrder(ctx, n.ResID)
}

// CreateKitchenOrder asks the store to materialize a kitchen order for
// the given pos order and appends the result to local state. Remote
// failure is logged and leaves state untouched.
func (t *Tracker) CreateKitchenOrder(ctx context.Context, posOrderID int64) {
	if posOrderID == 0 {
		log.Println("tracker: invalid pos order id, cannot create a kitchen order")
		return
	}

	order, err := t.remote.CreateKitchenOrder(ctx, posOrderID)
	if err != nil {
		log.Printf("tracker: error creating new kitchen order: %v", err)
		return
	}
	if order == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	cp := *order
	t.orders[cp.ID] = &cp
}

// CancelOrder moves an order to the cancel stage.
func (t *Tracker) CancelOrder(orderID int64) {
	t.setStage(orderID, kitchen.StageCancel)
}

// AcceptOrder confirms a draft order into the waiting stage.
func (t *Tracker) AcceptOrder(orderID int64) {
	t.setStage(orderID, kitchen.StageWaiting)
}

// DoneOrder marks an order ready.
func (t *Tracker) DoneOrder(orderID int64) {
	t.setStage(orderID, kitchen.StageReady)
}

// setStage applies the optimistic local mutation and fires the matching
// remote transition without awaiting it. A remote failure never rolls
// the local change back; the next full refresh reconciles.
func (t *Tracker) setStage(orderID int64, stage kitchen.Stage) {
	t.mu.Lock()
	order, ok := t.orders[orderID]
	if ok {
		order.OrderStatus = stage
	}
	t.mu.Unlock()

	if !ok {
		log.Printf("tracker: order %d not found, skipping stage change to %s", orderID, stage)
		return
	}

	go func() {
		ctx := context.Background()
		var err error
		switch stage {
		case kitchen.StageCancel:
			err = t.remote.ProgressCancel(ctx, orderID)
		case kitchen.StageWaiting:
			err = t.remote.ProgressDraft(ctx, orderID)
		case kitchen.StageReady:
			err = t.remote.ProgressChange(ctx, orderID)
		}
		if err != nil {
			log.Printf("tracker: error moving order %d to %s: %v", orderID, stage, err)
		}
	}()
}

// ToggleLineStage flips one line between waiting and ready, mirrored by
// a fire-and-forget remote transition with the same non-rollback policy
// as order stage changes.
func (t *Tracker) ToggleLineStage(lineID int64) {
	t.mu.Lock()
	line, ok := t.lines[lineID]
	if ok {
		if line.OrderStatus == kitchen.StageReady {
			line.OrderStatus = kitchen.StageWaiting
		} else {
			line.OrderStatus = kitchen.StageReady
		}
	}
	t.mu.Unlock()

	if !ok {
		log.Printf("tracker: order line %d not found, skipping stage toggle", lineID)
		return
	}

	go func() {
		if err := t.remote.LineProgressChange(context.Background(), lineID); err != nil {
			log.Printf("tracker: error toggling order line %d: %v", lineID, err)
		}
	}()
}

// SelectStageView changes the UI stage filter. No remote effect.
func (t *Tracker) SelectStageView(stage kitchen.Stage) {
	if !stage.Valid() {
		return
	}
	t.mu.Lock()
	t.selected = stage
	t.mu.Unlock()
}

// CountByStage counts tracked orders in the given stage belonging to
// this tracker's shop.
func (t *Tracker) CountByStage(stage kitchen.Stage) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countLocked(stage)
}

func (t *Tracker) countLocked(stage kitchen.Stage) int {
	n := 0
	for _, o := range t.orders {
		if o.OrderStatus == stage && o.ConfigID == t.shopID {
			n++
		}
	}
	return n
}

// ShopID returns the shop this tracker is scoped to.
func (t *Tracker) ShopID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shopID
}

// StateView is the reactive snapshot consumed by the rendering layer.
type StateView struct {
	OrderDetails []*kitchen.Order     `json:"order_details"`
	Lines        []*kitchen.OrderLine `json:"lines"`
	ShopID       int64                `json:"shop_id"`
	Stages       kitchen.Stage        `json:"stages"`
	DraftCount   int                  `json:"draft_count"`
	WaitingCount int                  `json:"waiting_count"`
	ReadyCount   int                  `json:"ready_count"`
}

// State snapshots the tracker for the UI. Orders and lines are copies
// sorted by id; mutating the snapshot does not touch tracker state.
func (t *Tracker) State() StateView {
	t.mu.Lock()
	defer t.mu.Unlock()

	orders := make([]*kitchen.Order, 0, len(t.orders))
	for _, o := range t.orders {
		cp := *o
		orders = append(orders, &cp)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	lines := make([]*kitchen.OrderLine, 0, len(t.lines))
	for _, l := range t.lines {
		cp := *l
		lines = append(lines, &cp)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })

	return StateView{
		OrderDetails: orders,
		Lines:        lines,
		ShopID:       t.shopID,
		Stages:       t.selected,
		DraftCount:   t.countLocked(kitchen.StageDraft),
		WaitingCount: t.countLocked(kitchen.StageWaiting),
		ReadyCount:   t.countLocked(kitchen.StageReady),
	}
}
