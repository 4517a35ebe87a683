// Package submitter turns the cashier pad's in-progress order into a
// kitchen-order submission against the orders service.
package submitter

import (
	"context"
	"log"
	"sync/atomic"

	"kitchen-system/internal/kitchen"
)

// Submitter runs the submission flow for one cashier pad. A single
// in-flight guard keeps rapid repeated activations from submitting the
// same order twice: while a submission runs, further calls are no-ops.
type Submitter struct {
	remote   kitchen.RemoteOrders
	inFlight atomic.Bool

	// onRefresh, when set, receives the follow-up details fetched after
	// every submission attempt so the caller can resynchronize.
	onRefresh func(*kitchen.FetchResult)
}

func New(remote kitchen.RemoteOrders, onRefresh func(*kitchen.FetchResult)) *Submitter {
	return &Submitter{remote: remote, onRefresh: onRefresh}
}

// InFlight reports whether a submission is currently running.
func (s *Submitter) InFlight() bool {
	return s.inFlight.Load()
}

// Submit runs the submission flow for the pad's current order:
//
//  1. status check — a closed order aborts with ErrOrderCompleted
//  2. preparation-state update, payload build, and kitchen-order
//     creation when the order has at least one line; an empty order
//     aborts with ErrEmptyOrder
//  3. a follow-up details fetch, regardless of how step 2 went
//
// Transport failures are logged and swallowed; only the two domain
// validation errors reach the caller. The guard is released on every
// exit path.
func (s *Submitter) Submit(ctx context.Context, order *kitchen.CurrentOrder) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer s.inFlight.Store(false)

	open, err := s.remote.CheckOrderStatus(ctx, order.Name)
	if err != nil {
		log.Printf("submitter: error checking status of order %s: %v", order.Name, err)
		return nil
	}
	if !open {
		return kitchen.ErrOrderCompleted
	}

	if err := s.remote.SendPreparationUpdate(ctx, order.Name); err != nil {
		log.Printf("submitter: error sending preparation update for %s: %v", order.Name, err)
	}

	sub := kitchen.BuildSubmission(order)

	var outcome error
	if len(sub.Lines) > 0 {
		if _, err := s.remote.CreateKitchenOrder(ctx, order.ID); err != nil {
			log.Printf("submitter: error creating kitchen order for %s: %v", order.Name, err)
		}
	} else {
		outcome = kitchen.ErrEmptyOrder
	}

	s.refresh(ctx, order.ConfigID)
	return outcome
}

func (s *Submitter) refresh(ctx context.Context, shopID int64) {
	result, err := s.remote.GetDetails(ctx, shopID)
	if err != nil {
		log.Printf("submitter: error refetching order details for shop %d: %v", shopID, err)
		return
	}
	if s.onRefresh != nil {
		s.onRefresh(result)
	}
}
