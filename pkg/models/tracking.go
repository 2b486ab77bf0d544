package models

import "time"

// TrackingEntry is the atomic unit of the tracking index: everything the
// scan station needs to know about one package, keyed by normalized
// tracking number.
type TrackingEntry struct {
	TrackingKey       string     `json:"tracking"`
	SourceType        SourceType `json:"sourceType"`
	SourceFile        string     `json:"source,omitempty"`
	PurchaseOrder     string     `json:"po"`
	CustomerOrShipper string     `json:"customer"`
	ShipDate          string     `json:"shipDate,omitempty"`

	// Enrichment fields, populated from the order-status table when the
	// purchase order's digits match a known CustomInk order.
	Department   string `json:"department,omitempty"`
	DueDate      string `json:"dueDate,omitempty"`
	Status       string `json:"status,omitempty"`
	PipelineFlag string `json:"pipelineFlag,omitempty"`

	// Inbound-only: the raw reference tokens the PO was recovered from.
	ReferenceTokens []string `json:"referenceTokens,omitempty"`
	ShipperName     string   `json:"shipperName,omitempty"`
}

// TrackingIndex maps normalized tracking keys to their entries. At most one
// entry per key; rebuilt from scratch on every run and atomically republished.
type TrackingIndex map[string]*TrackingEntry

// FileFailure records a manifest that could not be processed.
type FileFailure struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// BuildReport summarizes one index build run.
type BuildReport struct {
	BuildID      string             `json:"build_id"`
	Counts       map[SourceType]int `json:"counts"`
	Total        int                `json:"total"`
	FilesOK      int                `json:"files_ok"`
	FilesFailed  int                `json:"files_failed"`
	Failures     []FileFailure      `json:"failures,omitempty"`
	OrderRecords int                `json:"order_records"`
	StartedAt    time.Time          `json:"started_at"`
	Duration     time.Duration      `json:"duration"`
	Published    bool               `json:"published"`
}

// LookupResponse is the scan-station lookup payload. Misses are reported
// with Found=false and HTTP 200, matching the original station contract.
type LookupResponse struct {
	Found    bool   `json:"found"`
	Tracking string `json:"tracking"`
	*TrackingEntry
}

// ScanRecord is one point-of-scan event appended to the audit log.
type ScanRecord struct {
	ID        string    `json:"id" db:"id"`
	Tracking  string    `json:"tracking" db:"tracking"`
	PO        string    `json:"po" db:"po"`
	Customer  string    `json:"customer" db:"customer"`
	Source    string    `json:"source" db:"source"`
	Station   string    `json:"station,omitempty" db:"station"`
	ScannedAt time.Time `json:"scanned_at" db:"scanned_at"`
}
