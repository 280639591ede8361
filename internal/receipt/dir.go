package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/order-dashboard/internal/model"
)

// DirSink writes receipts into a local directory.
type DirSink struct {
	Dir string
}

func (DirSink) Name() string { return "file" }

// Save writes data to Dir/name, replacing any earlier export of the same
// order. The file is written under a temporary name and renamed so readers
// never see a partial receipt.
func (s DirSink) Save(_ context.Context, name string, data []byte, _ model.Order) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating receipt directory %s: %w", s.Dir, err)
	}

	f, err := os.CreateTemp(s.Dir, ".receipt-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating receipt file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("writing receipt: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing receipt: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("setting receipt permissions: %w", err)
	}

	path := filepath.Join(s.Dir, name)
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("saving receipt %s: %w", path, err)
	}
	return path, nil
}
