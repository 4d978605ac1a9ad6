package streaming

import (
	"encoding/json"

	"github.com/skyroute/flightplanner/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypePlanUpdate = "plan_update"
	TypePlanSaved  = "plan_saved"
	TypeAck        = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// PlanUpdatePayload carries the plan inputs and their derived summary.
type PlanUpdatePayload struct {
	Revision uint64          `json:"revision"`
	Plan     core.FlightPlan `json:"plan"`
	Summary  core.Summary    `json:"summary"`
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}
