package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/order-dashboard/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Setting keys.
const (
	SettingInstalled = "installed"
)

// Snapshot is the last raw payload received for a feed collection.
type Snapshot struct {
	Collection string
	Raw        []byte
	SavedAt    time.Time
}

// Store defines the local persistence used by the dashboard: the last feed
// snapshots for offline export, boolean settings, and the export history.
type Store interface {
	SaveSnapshot(ctx context.Context, collection string, raw []byte) error
	LoadSnapshot(ctx context.Context, collection string) (*Snapshot, error)

	GetFlag(ctx context.Context, key string) (bool, error)
	SetFlag(ctx context.Context, key string, value bool) error

	RecordExport(ctx context.Context, rec model.ExportRecord) error
	ListExports(ctx context.Context, limit int) ([]model.ExportRecord, error)
	CountExports(ctx context.Context) (int, error)
}
