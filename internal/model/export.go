package model

import "time"

// ExportRecord is the local history entry for one receipt export.
type ExportRecord struct {
	ID          string
	OrderID     string
	TokenNumber int
	Customer    string
	FileName    string
	Locations   []string
	Size        int
	CreatedAt   time.Time
}
