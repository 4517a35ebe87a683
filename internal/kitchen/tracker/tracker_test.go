package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchen-system/internal/kitchen"
	"kitchen-system/internal/kitchen/bus"
	"kitchen-system/internal/kitchen/session"
)

// fakeRemote is a configurable RemoteOrders double. Transition calls
// are reported on transitions so tests can wait for the tracker's
// fire-and-forget goroutines.
type fakeRemote struct {
	mu sync.Mutex

	details      *kitchen.FetchResult
	detailsErr   error
	detailsCalls int

	created     *kitchen.Order
	createErr   error
	createCalls []int64

	transitionErr error
	transitions   chan string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{transitions: make(chan string, 16)}
}

func (f *fakeRemote) GetDetails(ctx context.Context, shopID int64) (*kitchen.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details, nil
}

func (f *fakeRemote) CreateKitchenOrder(ctx context.Context, posOrderID int64) (*kitchen.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, posOrderID)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeRemote) SubmitOrder(ctx context.Context, sub *kitchen.Submission) (*kitchen.Order, error) {
	return nil, nil
}

func (f *fakeRemote) ProgressCancel(ctx context.Context, orderID int64) error {
	f.transitions <- fmt.Sprintf("cancel:%d", orderID)
	return f.transitionErr
}

func (f *fakeRemote) ProgressDraft(ctx context.Context, orderID int64) error {
	f.transitions <- fmt.Sprintf("accept:%d", orderID)
	return f.transitionErr
}

func (f *fakeRemote) ProgressChange(ctx context.Context, orderID int64) error {
	f.transitions <- fmt.Sprintf("done:%d", orderID)
	return f.transitionErr
}

func (f *fakeRemote) LineProgressChange(ctx context.Context, lineID int64) error {
	f.transitions <- fmt.Sprintf("line:%d", lineID)
	return f.transitionErr
}

func (f *fakeRemote) CheckOrderStatus(ctx context.Context, orderName string) (bool, error) {
	return true, nil
}

func (f *fakeRemote) SendPreparationUpdate(ctx context.Context, orderName string) error {
	return nil
}

func (f *fakeRemote) waitTransition(t *testing.T) string {
	t.Helper()
	select {
	case call := <-f.transitions:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for remote transition call")
		return ""
	}
}

func order(id, shopID int64, stage kitchen.Stage) *kitchen.Order {
	return &kitchen.Order{ID: id, ConfigID: shopID, OrderStatus: stage, IsCooking: true}
}

func line(id, orderID int64, stage kitchen.Stage) *kitchen.OrderLine {
	return &kitchen.OrderLine{ID: id, OrderID: orderID, OrderStatus: stage}
}

func newTracker(t *testing.T, remote kitchen.RemoteOrders, shopID int64) *Tracker {
	t.Helper()
	sess, err := session.Resolve(context.Background(), session.NewMemoryStore(), shopID)
	require.NoError(t, err)
	return New(remote, sess)
}

func TestInitializeLoadsShopOrders(t *testing.T) {
	remote := newFakeRemote()
	remote.details = &kitchen.FetchResult{
		Orders:     []*kitchen.Order{order(1, 7, kitchen.StageDraft)},
		OrderLines: []*kitchen.OrderLine{line(10, 1, kitchen.StageWaiting)},
	}

	tr := newTracker(t, remote, 7)
	require.NoError(t, tr.Initialize(context.Background()))

	state := tr.State()
	assert.Equal(t, int64(7), state.ShopID)
	assert.Equal(t, 1, state.DraftCount)
	assert.Equal(t, 0, state.WaitingCount)
	assert.Equal(t, 0, state.ReadyCount)
	assert.Equal(t, kitchen.StageDraft, state.Stages)
	require.Len(t, state.Lines, 1)
}

func TestInitializeWithoutShopID(t *testing.T) {
	remote := newFakeRemote()

	tr := newTracker(t, remote, 0)
	err := tr.Initialize(context.Background())

	var fetchErr *kitchen.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, kitchen.ErrNoShop)
	assert.Equal(t, 0, remote.detailsCalls)
	assert.Empty(t, tr.State().OrderDetails)
}

func TestInitializeFetchFailureLeavesStateEmpty(t *testing.T) {
	remote := newFakeRemote()
	remote.detailsErr = errors.New("connection refused")

	tr := newTracker(t, remote, 7)
	err := tr.Initialize(context.Background())

	var fetchErr *kitchen.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, int64(7), fetchErr.ShopID)
	assert.Empty(t, tr.State().OrderDetails)
}

func TestApplyFullRefreshIsIdempotent(t *testing.T) {
	tr := newTracker(t, newFakeRemote(), 7)
	result := &kitchen.FetchResult{
		Orders: []*kitchen.Order{
			order(1, 7, kitchen.StageDraft),
			order(2, 7, kitchen.StageWaiting),
		},
		OrderLines: []*kitchen.OrderLine{line(10, 1, kitchen.StageWaiting)},
	}
	tr.shopID = 7

	tr.ApplyFullRefresh(result)
	first := tr.State()
	tr.ApplyFullRefresh(result)
	second := tr.State()

	assert.Equal(t, first, second)
}

func TestApplyFullRefreshReplacesWholesale(t *testing.T) {
	tr := newTracker(t, newFakeRemote(), 7)
	tr.shopID = 7

	tr.ApplyFullRefresh(&kitchen.FetchResult{
		Orders: []*kitchen.Order{order(1, 7, kitchen.StageDraft)},
	})
	tr.ApplyFullRefresh(&kitchen.FetchResult{
		Orders: []*kitchen.Order{order(2, 7, kitchen.StageReady)},
	})

	state := tr.State()
	require.Len(t, state.OrderDetails, 1)
	assert.Equal(t, int64(2), state.OrderDetails[0].ID)
	assert.Equal(t, 0, state.DraftCount)
	assert.Equal(t, 1, state.ReadyCount)
}

func TestApplyFullRefreshMissingOrdersIsNoOp(t *testing.T) {
	tr := newTracker(t, newFakeRemote(), 7)
	tr.shopID = 7
	tr.ApplyFullRefresh(&kitchen.FetchResult{
		Orders: []*kitchen.Order{order(1, 7, kitchen.StageDraft)},
	})

	tr.ApplyFullRefresh(nil)
	tr.ApplyFullRefresh(&kitchen.FetchResult{Orders: nil})

	assert.Equal(t, 1, tr.CountByStage(kitchen.StageDraft))
}

func TestCountByStageExcludesOtherShops(t *testing.T) {
	tr := newTracker(t, newFakeRemote(), 7)
	tr.shopID = 7

	tr.ApplyFullRefresh(&kitchen.FetchResult{
		Orders: []*kitchen.Order{
			order(1, 7, kitchen.StageDraft),
			order(2, 9, kitchen.StageDraft),
			order(3, 7, kitchen.StageWaiting),
		},
	})

	assert.Equal(t, 1, tr.CountByStage(kitchen.StageDraft))
	assert.Equal(t, 1, tr.CountByStage(kitchen.StageWaiting))
	assert.Equal(t, 0, tr.CountByStage(kitchen.StageReady))
}

func TestCountByStageTracksTransitions(t *testing.T) {
	remote := newFakeRemote()
	tr := newTracker(t, remote, 7)
	tr.shopID = 7

	tr.ApplyFullRefresh(&kitchen.FetchResult{
		Orders: []*kitchen.Order{
			order(1, 7, kitchen.StageDraft),
			order(2, 7, kitchen.StageDraft),
			order(3, 7, kitchen.StageWaiting),
		},
	})

	tr.AcceptOrder(1)
	remote.waitTransition(t)
	tr.DoneOrder(3)
	remote.waitTransition(t)
	tr.CancelOrder(2)
	remote.waitTransition(t)

	assert.Equal(t, 0, tr.CountByStage(kitchen.StageDraft))
	assert.Equal(t, 1, tr.CountByStage(kitchen.StageWaiting))
	assert.Equal(t, 1, tr.CountByStage(kitchen.StageReady))
	assert.Equal(t, 1, tr.CountByStage(kitchen.StageCancel))
}

func TestHandleNotificationRefetchesAndMaterializes(t *testing.T) {
	remote := newFakeRemote()
	remote.details = &kitchen.FetchResult{
		Orders: []*kitchen.Order{order(1, 7, kitchen.StageDraft)},
	}
	remote.created = order(42, 7, kitchen.StageDraft)

	tr := newTracker(t, remote, 7)
	require.NoError(t, tr.Initialize(context.Background()))
	require.Equal(t, 1, tr.CountByStage(kitchen.StageDraft))

	tr.HandleNotification(context.Background(), bus.Notification{
		Message:  "pos_order_created",
		ResModel: "pos.order",
		ResID:    42,
	})

	assert.Equal(t, []int64{42}, remote.createCalls)
	assert.Equal(t, 2, remote.detailsCalls)
	// one from the refetch, one appended by the materialization
	assert.Equal(t, 2, tr.CountByStage(kitchen.StageDraft))
}

func TestHandleNotificationIgnoresOtherEvents(t *testing.T) {
	remote := newFakeRemote()
	tr := newTracker(t, remote, 7)

	tr.HandleNotification(context.Background(), bus.Notification{
		Message:  "pos_order_paid",
		ResModel: "pos.order",
		ResID:    42,
	})
	tr.HandleNotification(context.Background(), bus.Notification{
		Message:  "pos_order_created",
		ResModel: "res.partner",
		ResID:    42,
	})

	assert.Equal(t, 0, remote.detailsCalls)
	assert.Empty(t, remote.createCalls)
}

func TestHandleNotificationMissingIDIsNoOp(t *testing.T) {
	remote := newFakeRemote()
	tr := newTracker(t, remote, 7)

	tr.HandleNotification(context.Background(), bus.Notification{
		Message:  "pos_order_created",
		ResModel: "pos.order",
	})

	assert.Equal(t, 0, remote.detailsCalls)
	assert.Empty(t, remote.createCalls)
}

func TestHandleNotificationRefetchFailureStillMaterializes(t *testing.T) {
	remote := newFakeRemote()
	remote.detailsErr = errors.New("store down")
	remote.created = order(42, 7, kitchen.StageDraft)

	tr := newTracker(t, remote, 7)
	tr.shopID = 7

	tr.HandleNotification(context.Background(), bus.Notification{
		Message:  "pos_order_created",
		ResModel: "pos.order",
		ResID:    42,
	})

	assert.Equal(t, []int64{42}, remote.createCalls)
	assert.Equal(t, 1, tr.CountByStage(kitchen.StageDraft))
}

func TestCreateKitchenOrderRemoteFailureLeavesState(t *testing.T) {
	remote := newFakeRemote()
	remote.createErr = errors.New("store down")

	tr := newTracker(t, remote, 7)
	tr.CreateKitchenOrder(context.Background(), 42)

	assert.Empty(t, tr.State().OrderDetails)
}

func TestSetStageSurvivesRemoteFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.transitionErr = errors.New("store down")

	tr := newTracker(t, remote, 7)
	tr.shopID = 7
	tr.ApplyFullRefresh(&kitchen.FetchResult{
		Orders: []*kitchen.Order{order(1, 7, kitchen.StageDraft)},
	})

	tr.CancelOrder(1)
	assert.Equal(t, "cancel:1", remote.waitTransition(t))

	// optimistic change is never rolled back
	assert.Equal(t, 1, tr.CountByStage(kitchen.StageCancel))
}

func TestSetStageUnknownOrderIsNoOp(t *testing.T) {
	remote := newFakeRemote()
	tr := newTracker(t, remote, 7)

	tr.CancelOrder(99)

	select {
	case call := <-remote.transitions:
		t.Fatalf("unexpected remote call %s", call)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestToggleLineStage(t *testing.T) {
	remote := newFakeRemote()
	tr := newTracker(t, remote, 7)
	tr.ApplyFullRefresh(&kitchen.FetchResult{
		Orders:     []*kitchen.Order{order(1, 7, kitchen.StageWaiting)},
		OrderLines: []*kitchen.OrderLine{line(10, 1, kitchen.StageWaiting)},
	})

	tr.ToggleLineStage(10)
	assert.Equal(t, "line:10", remote.waitTransition(t))
	require.Len(t, tr.State().Lines, 1)
	assert.Equal(t, kitchen.StageReady, tr.State().Lines[0].OrderStatus)

	tr.ToggleLineStage(10)
	remote.waitTransition(t)
	assert.Equal(t, kitchen.StageWaiting, tr.State().Lines[0].OrderStatus)
}

func TestSelectStageView(t *testing.T) {
	tr := newTracker(t, newFakeRemote(), 7)

	tr.SelectStageView(kitchen.StageReady)
	assert.Equal(t, kitchen.StageReady, tr.State().Stages)

	tr.SelectStageView(kitchen.Stage("burnt"))
	assert.Equal(t, kitchen.StageReady, tr.State().Stages)
}

func TestStateSnapshotIsDetached(t *testing.T) {
	tr := newTracker(t, newFakeRemote(), 7)
	tr.shopID = 7
	tr.ApplyFullRefresh(&kitchen.FetchResult{
		Orders: []*kitchen.Order{order(1, 7, kitchen.StageDraft)},
	})

	state := tr.State()
	state.OrderDetails[0].OrderStatus = kitchen.StageCancel

	assert.Equal(t, 1, tr.CountByStage(kitchen.StageDraft))
}
