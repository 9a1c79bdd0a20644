package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds carried on the export queue.
const (
	KindExport = "invoice.export"
	KindDelete = "invoice.delete"
)

// ExportMessage asks the worker to export one invoice. It carries only the
// id; the worker fetches the full row from storage so it always exports the
// latest state.
type ExportMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// DeleteMessage asks the worker to remove an exported row. The invoice is
// already gone from storage by the time this is consumed, so the message
// carries the fields needed to locate the spreadsheet row.
type DeleteMessage struct {
	Kind        string    `json:"kind"`
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	VendorName  string    `json:"vendor_name"`
	AmountCents int64     `json:"amount_cents"`
	InvoiceDate string    `json:"invoice_date"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExportMessage(id string) *ExportMessage {
	return &ExportMessage{Kind: KindExport, ID: id, Timestamp: time.Now()}
}

func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *DeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// envelope peeks at the kind discriminator before full decoding.
type envelope struct {
	Kind string `json:"kind"`
}

// DecodeMessage parses a queue payload into its concrete message type.
func DecodeMessage(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode message envelope: %w", err)
	}
	switch env.Kind {
	case KindExport:
		var msg ExportMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode export message: %w", err)
		}
		return &msg, nil
	case KindDelete:
		var msg DeleteMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode delete message: %w", err)
		}
		return &msg, nil
	default:
		return nil, fmt.Errorf("unknown message kind %q", env.Kind)
	}
}
