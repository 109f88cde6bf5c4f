package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"homeledger/internal/config"
	"homeledger/internal/core"
)

// SheetsClient appends day rows to a Google spreadsheet using service
// account credentials.
type SheetsClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ DayWriter = (*SheetsClient)(nil)

// NewSheetsClient builds a client from the export configuration. Credentials
// come from GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE.
func NewSheetsClient(ctx context.Context, cfg *config.Config) (*SheetsClient, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleCredentialsJSON != "":
		credentialsJSON = []byte(cfg.GoogleCredentialsJSON)
	case cfg.GoogleCredentialsFile != "":
		data, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	return &SheetsClient{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
	}, nil
}

// AppendDayRows writes one row per entry below the current sheet contents:
// date, category id, description, amount in whole currency units.
func (c *SheetsClient) AppendDayRows(ctx context.Context, date string, entries []core.Entry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(entries) == 0 {
		return nil
	}

	// Find the next empty row from the sheet's first column.
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get sheet dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	values := make([][]any, 0, len(entries))
	for _, e := range entries {
		values = append(values, []any{
			e.Date,
			e.CategoryID,
			e.Description,
			float64(e.AmountCents) / 100.0,
		})
	}

	dataRange := fmt.Sprintf("%s!A%d:D%d", c.sheetName, nextRow, nextRow+len(values)-1)
	vr := &gsheet.ValueRange{Values: values}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update rows in sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Exported day to spreadsheet",
		"date", date, "rows", len(values), "sheet", c.sheetName)
	return nil
}
