package amqp

import (
	"encoding/json"
	"time"

	"ledgerd/internal/core"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// LedgerEvent announces a committed ledger mutation. Creates carry the full
// record so consumers need no read-back; deletes carry identifiers only.
type LedgerEvent struct {
	Action      string            `json:"action"`
	Kind        core.Kind         `json:"kind"`
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func NewCreatedEvent(tx core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Action:      ActionCreated,
		Kind:        tx.Kind,
		ID:          tx.ID,
		OwnerID:     tx.OwnerID,
		Transaction: &tx,
		Timestamp:   time.Now(),
	}
}

func NewDeletedEvent(kind core.Kind, id, ownerID string) *LedgerEvent {
	return &LedgerEvent{
		Action:    ActionDeleted,
		Kind:      kind,
		ID:        id,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
