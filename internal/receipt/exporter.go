package receipt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/order-dashboard/internal/model"
)

// Sink stores a rendered receipt somewhere and returns its location.
type Sink interface {
	Name() string
	Save(ctx context.Context, name string, data []byte, o model.Order) (string, error)
}

// Recorder keeps the export history.
type Recorder interface {
	RecordExport(ctx context.Context, rec model.ExportRecord) error
}

// Observer is told about the outcome of each sink write.
type Observer interface {
	ReceiptSaved(sink string, err error)
}

// Result describes a completed export.
type Result struct {
	FileName  string
	Locations []string
	Size      int
}

// Exporter renders receipts and hands them to its sinks in order.
type Exporter struct {
	business model.BusinessConfig
	sinks    []Sink
	recorder Recorder
	observer Observer
	now      func() time.Time
}

// NewExporter creates an exporter. The recorder and observer may be nil.
func NewExporter(biz model.BusinessConfig, recorder Recorder, observer Observer, sinks ...Sink) *Exporter {
	return &Exporter{
		business: biz,
		sinks:    sinks,
		recorder: recorder,
		observer: observer,
		now:      time.Now,
	}
}

// Sinks returns the configured sink names.
func (e *Exporter) Sinks() []string {
	names := make([]string, len(e.sinks))
	for i, s := range e.sinks {
		names[i] = s.Name()
	}
	return names
}

// RenderPDF renders the receipt for o into PDF bytes.
func (e *Exporter) RenderPDF(o model.Order) ([]byte, error) {
	d := NewPDFDrawer()
	d.SetTitle(fmt.Sprintf("Order %s", tokenText(o.TokenNumber)))
	Render(d, e.business, o)
	return d.Bytes()
}

// Export renders o and saves it through every sink. A failing sink does not
// stop later ones; their errors are joined. The export is an error only
// when no sink succeeded, and it is recorded otherwise.
func (e *Exporter) Export(ctx context.Context, o model.Order) (Result, error) {
	data, err := e.RenderPDF(o)
	if err != nil {
		return Result{}, fmt.Errorf("rendering receipt for order %s: %w", o.ID, err)
	}

	res := Result{FileName: FileName(o), Size: len(data)}
	if len(e.sinks) == 0 {
		return res, errors.New("no receipt destination configured")
	}

	var errs []error
	for _, s := range e.sinks {
		loc, err := s.Save(ctx, res.FileName, data, o)
		if e.observer != nil {
			e.observer.ReceiptSaved(s.Name(), err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		res.Locations = append(res.Locations, loc)
	}

	if len(res.Locations) == 0 {
		return res, fmt.Errorf("exporting %s: %w", res.FileName, errors.Join(errs...))
	}

	if e.recorder != nil {
		rec := model.ExportRecord{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			TokenNumber: o.TokenNumber,
			Customer:    o.Customer,
			FileName:    res.FileName,
			Locations:   res.Locations,
			Size:        res.Size,
			CreatedAt:   e.now(),
		}
		if err := e.recorder.RecordExport(ctx, rec); err != nil {
			log.Printf("receipt: recording export of %s: %v", res.FileName, err)
		}
	}

	return res, errors.Join(errs...)
}
