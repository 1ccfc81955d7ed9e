package notify

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
)

// MoveEvent describes one committed relocation. Delivery to subscribers is
// somebody else's problem; the engine only emits.
type MoveEvent struct {
	ID         uuid.UUID     `json:"id"`
	Serial     string        `json:"serialnumber"`
	RecordID   int           `json:"record_id"`
	From       metadata.Kind `json:"from"`
	To         metadata.Kind `json:"to"`
	StoreID    *int          `json:"store_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewMoveEvent(recordID int, serial string, from, to metadata.Kind, storeID *int) MoveEvent {
	return MoveEvent{
		ID:         uuid.New(),
		Serial:     serial,
		RecordID:   recordID,
		From:       from,
		To:         to,
		StoreID:    storeID,
		OccurredAt: time.Now().UTC(),
	}
}

// Emitter receives events for successful moves. Implementations must not
// block the calling transaction path and must never fail a move.
type Emitter interface {
	Emit(event MoveEvent)
}

// LogEmitter writes move events to the application log. It stands in for the
// external notification fan-out.
type LogEmitter struct {
	log *zap.Logger
}

func NewLogEmitter(log *zap.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(event MoveEvent) {
	e.log.Info("asset moved",
		zap.String("event_id", event.ID.String()),
		zap.String("serialnumber", event.Serial),
		zap.Int("record_id", event.RecordID),
		zap.String("from", event.From.String()),
		zap.String("to", event.To.String()),
		zap.Intp("store_id", event.StoreID),
		zap.Time("occurred_at", event.OccurredAt),
	)
}

// NopEmitter drops every event. Useful in tests and offline tooling.
type NopEmitter struct{}

func (NopEmitter) Emit(MoveEvent) {}
