package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
)

const DefaultWorkbookSheet = "Sites"

// WorkbookRegistry keeps the sites in a local .xlsx file
type WorkbookRegistry struct {
	path  string
	sheet string
	mu    sync.Mutex
}

// NewWorkbookRegistry uses the given worksheet of path; the file is created
// on the first append
func NewWorkbookRegistry(path, sheet string) *WorkbookRegistry {
	if sheet == "" {
		sheet = DefaultWorkbookSheet
	}
	return &WorkbookRegistry{path: path, sheet: sheet}
}

// open returns the workbook and the worksheet rows; missing file or sheet
// yields a nil file and no rows
func (r *WorkbookRegistry) open() (*excelize.File, [][]string, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	idx, err := f.GetSheetIndex(r.sheet)
	if err != nil || idx < 0 {
		return f, nil, nil
	}

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to read worksheet %q: %w", r.sheet, err)
	}
	return f, rows, nil
}

func (r *WorkbookRegistry) List(ctx context.Context) ([]Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, rows, err := r.open()
	if err != nil {
		return nil, err
	}
	if f != nil {
		f.Close()
	}
	return sitesFromRows(rows), nil
}

func (r *WorkbookRegistry) Append(ctx context.Context, site Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, rows, err := r.open()
	if err != nil {
		return err
	}
	if f == nil {
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", r.sheet); err != nil {
			f.Close()
			return fmt.Errorf("failed to name worksheet: %w", err)
		}
	} else if idx, _ := f.GetSheetIndex(r.sheet); idx < 0 {
		if _, err := f.NewSheet(r.sheet); err != nil {
			f.Close()
			return fmt.Errorf("failed to add worksheet: %w", err)
		}
	}
	defer f.Close()

	if err := checkAppend(sitesFromRows(rows), site); err != nil {
		return err
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		if err := f.SetSheetRow(r.sheet, "A1", &[]interface{}{HeaderSiteName, HeaderPropertyID}); err != nil {
			return err
		}
		next = 2
	}

	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(r.sheet, cell, &[]interface{}{site.Name, site.PropertyID}); err != nil {
		return fmt.Errorf("failed to write site: %w", err)
	}

	return r.save(f)
}

func (r *WorkbookRegistry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, rows, err := r.open()
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: %s", ErrSiteNotFound, name)
	}
	defer f.Close()

	idx := rowIndex(rows, name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSiteNotFound, name)
	}

	if err := f.RemoveRow(r.sheet, idx+1); err != nil {
		return fmt.Errorf("failed to delete row %d: %w", idx+1, err)
	}

	return r.save(f)
}

func (r *WorkbookRegistry) save(f *excelize.File) error {
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create workbook directory: %w", err)
		}
	}
	if err := f.SaveAs(r.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
