// Package wire defines the request and stream message formats shared by
// the transfer strategies and the receiver.
package wire

import "github.com/bft-labs/xferbench/internal/domain"

// Receiver decision strings carried in responses and acknowledgments.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// SaveRequest is the body of POST /data/save for the request strategies.
type SaveRequest struct {
	Record domain.Record `json:"record"`
}

// SaveResponse is the receiver's per-record decision for POST /data/save.
type SaveResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Stream envelope types. Each websocket message carries exactly one
// envelope; the Type field selects which payload field is populated.
const (
	TypeHello   = "hello"   // receiver -> sender, once after connect
	TypeRecord  = "record"  // sender -> receiver
	TypeEnd     = "end"     // sender -> receiver, no more records
	TypeAck     = "ack"     // receiver -> sender, per record
	TypeSummary = "summary" // receiver -> sender, once after end
)

// Envelope is one framed stream message.
type Envelope struct {
	Type         string         `json:"type"`
	ConnectionID string         `json:"connectionId,omitempty"`
	Record       *domain.Record `json:"record,omitempty"`
	Ack          *Ack           `json:"ack,omitempty"`
	Summary      *Summary       `json:"summary,omitempty"`
}

// Ack is the receiver's decision for one streamed record.
type Ack struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Summary is the receiver's final tally, emitted after the end marker.
type Summary struct {
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}
