package bus

import "context"

// Notification is the payload delivered on the order-event channel.
// The kitchen screen reacts only to message "pos_order_created" with
// res_model "pos.order".
type Notification struct {
	Message  string `json:"message"`
	ResModel string `json:"res_model"`
	ResID    int64  `json:"res_id"`
}

// Handler consumes one notification. Handlers on a subscription are
// invoked one at a time, never concurrently with each other.
type Handler func(ctx context.Context, n Notification)

// Subscription is an active channel registration. Close stops delivery.
type Subscription interface {
	Close() error
}

// Bus is the publish/subscribe transport for order notifications.
type Bus interface {
	Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error)
	Publish(ctx context.Context, channel string, n Notification) error
}
