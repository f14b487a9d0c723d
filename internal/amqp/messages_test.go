package amqp

import (
	"testing"

	"ledgerd/internal/core"
)

func TestCreatedEventCarriesRecord(t *testing.T) {
	tx := core.Transaction{
		ID:      "42",
		OwnerID: "u1",
		Kind:    core.KindIncome,
		Title:   "Salary",
		Amount:  core.Money{Cents: 500000},
	}

	event := NewCreatedEvent(tx)
	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Action != ActionCreated || got.ID != "42" || got.Kind != core.KindIncome {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Transaction == nil || got.Transaction.Amount.Cents != 500000 {
		t.Fatalf("created event must carry the full record, got %+v", got.Transaction)
	}
}

func TestDeletedEventHasNoRecord(t *testing.T) {
	event := NewDeletedEvent(core.KindExpense, "7", "u1")
	body, _ := event.ToJSON()

	got, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Action != ActionDeleted || got.Transaction != nil {
		t.Fatalf("deleted event must carry identifiers only, got %+v", got)
	}
}

func TestLedgerEventFromJSONInvalid(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
