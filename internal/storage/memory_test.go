package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledgerd/internal/core"
)

func record(owner string, kind core.Kind, title string, createdAt time.Time) core.Transaction {
	return core.Transaction{
		OwnerID:     owner,
		Kind:        kind,
		Title:       title,
		Amount:      core.Money{Cents: 1000},
		Category:    "misc",
		Description: "x",
		Date:        core.NewDate(2024, 6, 1),
		CreatedAt:   createdAt,
	}
}

func TestMemoryInsertAssignsIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Insert(ctx, record("u1", core.KindIncome, "a", time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	b, _ := s.Insert(ctx, record("u1", core.KindIncome, "b", time.Now()))
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids must be unique and non-empty: %q %q", a.ID, b.ID)
	}
}

func TestMemoryListOwnerScopedNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	s.Insert(ctx, record("u1", core.KindIncome, "old", base))
	s.Insert(ctx, record("u1", core.KindIncome, "new", base.Add(time.Hour)))
	s.Insert(ctx, record("u2", core.KindIncome, "other", base.Add(2*time.Hour)))
	s.Insert(ctx, record("u1", core.KindExpense, "wrong kind", base.Add(3*time.Hour)))

	got, err := s.ListByOwner(ctx, core.KindIncome, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 records, got %d", len(got))
	}
	if got[0].Title != "new" || got[1].Title != "old" {
		t.Fatalf("want newest first, got %q then %q", got[0].Title, got[1].Title)
	}
	for _, tx := range got {
		if tx.OwnerID != "u1" {
			t.Fatalf("leaked record owned by %q", tx.OwnerID)
		}
	}
}

func TestMemoryDeleteOwned(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	mine, _ := s.Insert(ctx, record("u1", core.KindExpense, "mine", time.Now()))

	t.Run("wrong owner", func(t *testing.T) {
		if err := s.DeleteOwned(ctx, core.KindExpense, mine.ID, "u2"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
		// Record must be untouched.
		got, _ := s.ListByOwner(ctx, core.KindExpense, "u1")
		if len(got) != 1 {
			t.Fatalf("record vanished after unauthorized delete")
		}
	})

	t.Run("wrong kind", func(t *testing.T) {
		if err := s.DeleteOwned(ctx, core.KindIncome, mine.ID, "u1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("owner deletes, then repeat is not found", func(t *testing.T) {
		if err := s.DeleteOwned(ctx, core.KindExpense, mine.ID, "u1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.DeleteOwned(ctx, core.KindExpense, mine.ID, "u1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("second delete: want ErrNotFound, got %v", err)
		}
		got, _ := s.ListByOwner(ctx, core.KindExpense, "u1")
		if len(got) != 0 {
			t.Fatalf("record still listed after delete")
		}
	})
}
