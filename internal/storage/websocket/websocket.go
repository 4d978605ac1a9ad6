package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/skyroute/flightplanner/internal/storage"
	"github.com/skyroute/flightplanner/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
	Logger *slog.Logger
}

// Backend streams plan updates over WebSocket to a live display server.
// It implements storage.Backend but not storage.Exporter.
type Backend struct {
	link *link
	cfg  Config
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		link: newLink(logger.With("component", "websocket")),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.link.open(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.link.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	env, err := streaming.NewEnvelope(msgType, payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func payloadOf(s *storage.Snapshot) streaming.PlanUpdatePayload {
	return streaming.PlanUpdatePayload{
		Revision: s.Revision,
		Plan:     s.Plan,
		Summary:  s.Summary,
	}
}

// PublishPlan sends plan_update without waiting for an ack. The message is
// kept for replay after a reconnect.
func (b *Backend) PublishPlan(s *storage.Snapshot) error {
	data, err := marshalEnvelope(streaming.TypePlanUpdate, payloadOf(s))
	if err != nil {
		return err
	}
	b.link.keepLatest(data)
	b.link.enqueue(data)
	return nil
}

// SavePlan sends plan_saved and waits for server ack.
func (b *Backend) SavePlan(s *storage.Snapshot) error {
	data, err := marshalEnvelope(streaming.TypePlanSaved, payloadOf(s))
	if err != nil {
		return err
	}
	return b.link.request(data, streaming.TypePlanSaved, ackTimeout)
}
