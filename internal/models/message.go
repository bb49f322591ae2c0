package models

import "time"

// PrintJobKind distinguishes the kitchen ticket from the customer receipt.
type PrintJobKind string

const (
	PrintKOT     PrintJobKind = "kot"
	PrintReceipt PrintJobKind = "receipt"
)

// PrintJob is the message published to the print exchange for a dispatch.
type PrintJob struct {
	Kind        PrintJobKind `json:"kind"`
	Order       Order        `json:"order"`
	RequestedAt time.Time    `json:"requested_at"`
}

// NewPrintJob wraps an order snapshot into a print job message.
func NewPrintJob(kind PrintJobKind, order Order) *PrintJob {
	return &PrintJob{
		Kind:        kind,
		Order:       order,
		RequestedAt: time.Now().UTC(),
	}
}

// RoutingKey returns the routing key for the print job on the print topic exchange.
func (j *PrintJob) RoutingKey() string {
	return "print." + string(j.Kind)
}
