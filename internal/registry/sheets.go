package registry

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetID extracts the id from a Google Sheets URL. A bare id is
// returned unchanged.
func SpreadsheetID(sheetURL string) (string, error) {
	if m := spreadsheetIDPattern.FindStringSubmatch(sheetURL); m != nil {
		return m[1], nil
	}
	if sheetURL != "" && !strings.ContainsAny(sheetURL, "/:?") {
		return sheetURL, nil
	}
	return "", fmt.Errorf("cannot find a spreadsheet id in %q", sheetURL)
}

// SheetsRegistry keeps the sites in a Google Sheets worksheet
type SheetsRegistry struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string // empty = first worksheet

	mu       sync.Mutex
	resolved *sheets.SheetProperties
}

// NewSheetsRegistry connects to the spreadsheet behind sheetURL
func NewSheetsRegistry(ctx context.Context, sheetURL, sheetName string, opts ...option.ClientOption) (*SheetsRegistry, error) {
	id, err := SpreadsheetID(sheetURL)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets client: %w", err)
	}

	return &SheetsRegistry{
		svc:           svc,
		spreadsheetID: id,
		sheetName:     sheetName,
	}, nil
}

// worksheet resolves the target worksheet once
func (r *SheetsRegistry) worksheet(ctx context.Context) (*sheets.SheetProperties, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return r.resolved, nil
	}

	spreadsheet, err := r.svc.Spreadsheets.Get(r.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil {
			continue
		}
		if r.sheetName == "" || sheet.Properties.Title == r.sheetName {
			r.resolved = sheet.Properties
			return r.resolved, nil
		}
	}

	if r.sheetName == "" {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", r.spreadsheetID)
	}
	return nil, fmt.Errorf("worksheet %q not found in spreadsheet %s", r.sheetName, r.spreadsheetID)
}

func a1Range(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!A:B"
}

func (r *SheetsRegistry) rows(ctx context.Context) (*sheets.SheetProperties, [][]string, error) {
	ws, err := r.worksheet(ctx)
	if err != nil {
		return nil, nil, err
	}

	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, a1Range(ws.Title)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read worksheet %q: %w", ws.Title, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		rows[i] = cells
	}
	return ws, rows, nil
}

func (r *SheetsRegistry) List(ctx context.Context) ([]Site, error) {
	_, rows, err := r.rows(ctx)
	if err != nil {
		return nil, err
	}
	return sitesFromRows(rows), nil
}

func (r *SheetsRegistry) Append(ctx context.Context, site Site) error {
	ws, rows, err := r.rows(ctx)
	if err != nil {
		return err
	}
	if err := checkAppend(sitesFromRows(rows), site); err != nil {
		return err
	}

	values := [][]interface{}{{site.Name, site.PropertyID}}
	if len(rows) == 0 {
		values = append([][]interface{}{{HeaderSiteName, HeaderPropertyID}}, values...)
	}

	_, err = r.svc.Spreadsheets.Values.Append(r.spreadsheetID, a1Range(ws.Title), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append site: %w", err)
	}
	return nil
}

func (r *SheetsRegistry) Delete(ctx context.Context, name string) error {
	ws, rows, err := r.rows(ctx)
	if err != nil {
		return err
	}

	idx := rowIndex(rows, name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSiteNotFound, name)
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         ws.SheetId,
					Dimension:       "ROWS",
					StartIndex:      int64(idx),
					EndIndex:        int64(idx + 1),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}

	if _, err := r.svc.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete row %d: %w", idx+1, err)
	}
	return nil
}
