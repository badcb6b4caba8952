package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"saldo/internal/core"
)

// EventType names what happened to a transaction.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// TransactionEvent is published after every successful write. Deleted events
// carry only the id.
type TransactionEvent struct {
	Type          EventType         `json:"type"`
	TransactionID string            `json:"transaction_id"`
	Timestamp     time.Time         `json:"timestamp"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
}

// NewTransactionEvent creates an event stamped with the current time.
func NewTransactionEvent(typ EventType, tx core.Transaction) *TransactionEvent {
	ev := &TransactionEvent{
		Type:          typ,
		TransactionID: tx.ID,
		Timestamp:     time.Now().UTC(),
	}
	if typ != EventDeleted {
		copied := tx
		ev.Transaction = &copied
	}
	return ev
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.TransactionID == "" {
		return nil, fmt.Errorf("event without transaction id")
	}
	if ev.Type != EventDeleted && ev.Transaction == nil {
		return nil, fmt.Errorf("%s event without transaction payload", ev.Type)
	}
	return &ev, nil
}
