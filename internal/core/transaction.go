package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	// Kind discriminates the two entity kinds sharing the record shape.
	Kind string

	// Date is a calendar date: the transaction's effective date, distinct
	// from CreatedAt. Marshals as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Transaction is a single ledger record. ID, OwnerID and CreatedAt are
	// assigned server-side on creation and never change afterwards.
	Transaction struct {
		ID          string    `json:"id"`
		OwnerID     string    `json:"ownerId"`
		Kind        Kind      `json:"type"`
		Title       string    `json:"title"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Description string    `json:"description"`
		Date        Date      `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}
)

var (
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrInvalidDate   = errors.New("invalid date")
)

// IsValid reports whether k is one of the two known kinds.
func (k Kind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

func (k Kind) String() string {
	return string(k)
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD, falling back to RFC 3339 for clients that
// send full timestamps from a date picker.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Date{Time: t}, nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the fields a caller controls. ID, OwnerID and CreatedAt
// are assigned by the server and are not the client's to get wrong.
func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return fmt.Errorf("unknown transaction kind %q", t.Kind)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if strings.TrimSpace(t.Category) == "" {
		return fmt.Errorf("%w: category", ErrMissingField)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description", ErrMissingField)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date", ErrMissingField)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
