// Package export appends recorded ledger activity to a Google Sheets
// spreadsheet. The sheet is an append-only audit trail, not a replica:
// deletions land as tombstone rows rather than removing anything.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"ledgerd/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type SheetsAppender struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsAppender builds a client for the given spreadsheet. Credentials
// come from GOOGLE_CREDENTIALS_JSON when set, otherwise application
// default credentials.
func NewSheetsAppender(ctx context.Context, spreadsheetID, sheetName string) (*SheetsAppender, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transactions"
	}

	var opts []goption.ClientOption
	if credsJSON := os.Getenv("GOOGLE_CREDENTIALS_JSON"); credsJSON != "" {
		opts = append(opts, goption.WithCredentialsJSON([]byte(credsJSON)))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsAppender{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendTransaction writes one row for a created record.
func (a *SheetsAppender) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	row := []interface{}{
		tx.Date.Format("2006-01-02"),
		tx.Kind.String(),
		tx.Title,
		tx.Amount.Units(),
		tx.Category,
		tx.Description,
		tx.OwnerID,
		tx.ID,
		tx.CreatedAt.Format(time.RFC3339),
	}
	if err := a.append(ctx, row); err != nil {
		return fmt.Errorf("append transaction row: %w", err)
	}

	slog.InfoContext(ctx, "Transaction exported to sheet",
		"id", tx.ID, "kind", tx.Kind, "sheet", a.sheetName)
	return nil
}

// AppendDeletion writes a tombstone row for a deleted record.
func (a *SheetsAppender) AppendDeletion(ctx context.Context, kind core.Kind, id, ownerID string) error {
	row := []interface{}{
		time.Now().Format("2006-01-02"),
		kind.String(),
		"(deleted)",
		"",
		"",
		"",
		ownerID,
		id,
		time.Now().Format(time.RFC3339),
	}
	if err := a.append(ctx, row); err != nil {
		return fmt.Errorf("append deletion row: %w", err)
	}
	return nil
}

func (a *SheetsAppender) append(ctx context.Context, row []interface{}) error {
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}
	_, err := a.svc.Spreadsheets.Values.
		Append(a.spreadsheetID, a.sheetName+"!A:I", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(cctx).
		Do()
	return err
}
