// Package feed subscribes to the realtime store and turns its push stream
// into typed snapshots for the dashboard.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/order-dashboard/internal/model"
)

// Collection names a top-level collection in the realtime store.
type Collection string

const (
	CollectionOrders        Collection = "customerOrders"
	CollectionNotifications Collection = "notifications"
	CollectionStock         Collection = "stock"
)

// Collections lists every collection the dashboard subscribes to.
var Collections = []Collection{
	CollectionOrders,
	CollectionNotifications,
	CollectionStock,
}

// Event is a single server-sent event from a collection stream.
type Event struct {
	// Name is the event type: put, patch, keep-alive, cancel or auth_revoked.
	Name string

	// Path is the location inside the collection the data applies to.
	Path string

	// Data is the payload at Path.
	Data json.RawMessage
}

// Source is a push-capable data store.
type Source interface {
	// Stream delivers events for the collection until ctx is cancelled or
	// the stream fails. It returns nil only when ctx was cancelled.
	Stream(ctx context.Context, c Collection, fn func(Event) error) error

	// Fetch returns the current snapshot of the collection.
	Fetch(ctx context.Context, c Collection) (json.RawMessage, error)
}

// AuthError indicates the store rejected or revoked the credentials.
type AuthError struct {
	Collection Collection
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Collection, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// UpdateMsg is a tea.Msg carrying the full, decoded snapshot of one
// collection. When Err is set the snapshot is empty and the subscription
// has ended.
type UpdateMsg struct {
	// From is the subscriber that produced the message. Receivers drop
	// messages from a subscriber they have released.
	From *Subscriber

	Collection    Collection
	Orders        []model.Order
	Notifications []model.Notification
	Stock         []model.StockEntry
	Err           error
}

// Len returns the number of records carried by the message.
func (m UpdateMsg) Len() int {
	switch m.Collection {
	case CollectionOrders:
		return len(m.Orders)
	case CollectionNotifications:
		return len(m.Notifications)
	case CollectionStock:
		return len(m.Stock)
	}
	return 0
}
