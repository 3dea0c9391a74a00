package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Site{Name: "Acme", PropertyID: "123456789"}))
	assert.ErrorIs(t, Validate(Site{Name: " ", PropertyID: "1"}), ErrInvalidSite)
	assert.ErrorIs(t, Validate(Site{Name: "Acme", PropertyID: "properties/1"}), ErrInvalidSite)
	assert.ErrorIs(t, Validate(Site{Name: "Acme"}), ErrInvalidSite)
}

func TestSitesFromRows(t *testing.T) {
	rows := [][]string{
		{"SiteName", "PropertyID"},
		{"Acme", "123"},
		{},
		{"", "999"},
		{" Beta ", " 456 "},
		{"Gamma"},
	}
	assert.Equal(t, []Site{
		{Name: "Acme", PropertyID: "123"},
		{Name: "Beta", PropertyID: "456"},
		{Name: "Gamma"},
	}, sitesFromRows(rows))
	assert.Equal(t, 1, rowIndex(rows, "Acme"))
	assert.Equal(t, -1, rowIndex(rows, "SiteName"))
}

func TestWorkbookRegistry_CRUD(t *testing.T) {
	ctx := context.Background()
	reg := NewWorkbookRegistry(filepath.Join(t.TempDir(), "nested", "sites.xlsx"), "")

	sites, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites)

	require.NoError(t, reg.Append(ctx, Site{Name: "Acme", PropertyID: "123456789"}))
	require.NoError(t, reg.Append(ctx, Site{Name: "Beta", PropertyID: "222"}))
	require.NoError(t, reg.Append(ctx, Site{Name: "Gamma", PropertyID: "333"}))

	assert.ErrorIs(t, reg.Append(ctx, Site{Name: "Beta", PropertyID: "444"}), ErrDuplicateSite)
	assert.ErrorIs(t, reg.Append(ctx, Site{Name: "Delta", PropertyID: "x"}), ErrInvalidSite)

	sites, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Site{
		{Name: "Acme", PropertyID: "123456789"},
		{Name: "Beta", PropertyID: "222"},
		{Name: "Gamma", PropertyID: "333"},
	}, sites)

	require.NoError(t, reg.Delete(ctx, "Beta"))
	assert.ErrorIs(t, reg.Delete(ctx, "Beta"), ErrSiteNotFound)
	assert.ErrorIs(t, reg.Delete(ctx, "beta"), ErrSiteNotFound)

	sites, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Site{
		{Name: "Acme", PropertyID: "123456789"},
		{Name: "Gamma", PropertyID: "333"},
	}, sites)
}

var handEditedDuplicates = [][]string{
	{"SiteName", "PropertyID"},
	{"Acme", "111"},
	{"Beta", "2"},
	{"Acme", "333"},
}

func TestFind_FirstMatch(t *testing.T) {
	sites := sitesFromRows(handEditedDuplicates)

	site, ok := Find(sites, "Acme")
	require.True(t, ok)
	assert.Equal(t, Site{Name: "Acme", PropertyID: "111"}, site)
	assert.Equal(t, 1, rowIndex(handEditedDuplicates, "Acme"))

	_, ok = Find(sites, "acme")
	assert.False(t, ok)
}

func TestWorkbookRegistry_DeleteRemovesFirstDuplicate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sites.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", DefaultWorkbookSheet))
	for i, row := range handEditedDuplicates {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(DefaultWorkbookSheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	reg := NewWorkbookRegistry(path, "")
	require.NoError(t, reg.Delete(ctx, "Acme"))

	sites, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Site{
		{Name: "Beta", PropertyID: "2"},
		{Name: "Acme", PropertyID: "333"},
	}, sites)

	site, ok := Find(sites, "Acme")
	require.True(t, ok)
	assert.Equal(t, "333", site.PropertyID)
}

func TestWorkbookRegistry_DeleteMissingFile(t *testing.T) {
	reg := NewWorkbookRegistry(filepath.Join(t.TempDir(), "none.xlsx"), "Sites")
	assert.ErrorIs(t, reg.Delete(context.Background(), "Acme"), ErrSiteNotFound)
}

func TestStaticRegistry(t *testing.T) {
	ctx := context.Background()
	reg := NewStaticRegistry(Site{Name: "Acme", PropertyID: "123456789"})

	sites, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Site{{Name: "Acme", PropertyID: "123456789"}}, sites)

	assert.ErrorIs(t, reg.Append(ctx, Site{Name: "Beta", PropertyID: "1"}), ErrReadOnly)
	assert.ErrorIs(t, reg.Delete(ctx, "Acme"), ErrReadOnly)
}

type countingRegistry struct {
	Registry
	lists int
}

func (c *countingRegistry) List(ctx context.Context) ([]Site, error) {
	c.lists++
	return c.Registry.List(ctx)
}

func TestCachedRegistry_InvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	backend := &countingRegistry{Registry: NewWorkbookRegistry(filepath.Join(t.TempDir(), "sites.xlsx"), "")}
	reg, err := NewCachedRegistry(backend, time.Minute, nil)
	require.NoError(t, err)
	defer reg.Close()

	_, err = reg.List(ctx)
	require.NoError(t, err)
	_, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.lists)

	require.NoError(t, reg.Append(ctx, Site{Name: "Acme", PropertyID: "1"}))

	sites, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.lists)
	assert.Equal(t, []Site{{Name: "Acme", PropertyID: "1"}}, sites)

	// callers cannot corrupt the cached slice
	sites[0].Name = "mutated"
	sites, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme", sites[0].Name)
	assert.Equal(t, 2, backend.lists)
}

func TestCachedRegistry_ZeroTTLPassesThrough(t *testing.T) {
	ctx := context.Background()
	backend := &countingRegistry{Registry: NewStaticRegistry(Site{Name: "Acme", PropertyID: "1"})}
	reg, err := NewCachedRegistry(backend, 0, nil)
	require.NoError(t, err)
	defer reg.Close()

	for i := 0; i < 3; i++ {
		_, err := reg.List(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, backend.lists)
}

func TestCachedRegistry_EntryExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	backend := &countingRegistry{Registry: NewStaticRegistry(Site{Name: "Acme", PropertyID: "1"})}
	reg, err := NewCachedRegistry(backend, time.Second, nil)
	require.NoError(t, err)
	defer reg.Close()

	for i := 0; i < 2; i++ {
		_, err := reg.List(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, backend.lists)

	time.Sleep(1500 * time.Millisecond)

	sites, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Site{{Name: "Acme", PropertyID: "1"}}, sites)
	assert.Equal(t, 2, backend.lists)
}

func TestSpreadsheetID(t *testing.T) {
	id, err := SpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_EF/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_EF", id)

	id, err = SpreadsheetID("1AbC-d_EF")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_EF", id)

	_, err = SpreadsheetID("https://example.com/nothing")
	assert.Error(t, err)
	_, err = SpreadsheetID("")
	assert.Error(t, err)
}

// fakeSheets serves the small subset of the Sheets v4 API the registry uses
type fakeSheets struct {
	mu   sync.Mutex
	rows [][]interface{}
	t    *testing.T
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(path, ":append"):
		assert.Equal(f.t, "RAW", r.URL.Query().Get("valueInputOption"))
		var vr sheets.ValueRange
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&vr))
		f.rows = append(f.rows, vr.Values...)
		fmt.Fprint(w, `{"spreadsheetId":"sheet123"}`)

	case strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(f.t, req.Requests, 1)
		rng := req.Requests[0].DeleteDimension.Range
		assert.Equal(f.t, int64(7), rng.SheetId)
		assert.Equal(f.t, "ROWS", rng.Dimension)
		f.rows = append(f.rows[:rng.StartIndex], f.rows[rng.EndIndex:]...)
		fmt.Fprint(w, `{"spreadsheetId":"sheet123"}`)

	case strings.Contains(path, "/values/"):
		json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "Sites!A1:B10",
			"majorDimension": "ROWS",
			"values":         f.rows,
		})

	case strings.HasSuffix(path, "/spreadsheets/sheet123"):
		fmt.Fprint(w, `{"sheets":[{"properties":{"sheetId":7,"title":"Sites"}}]}`)

	default:
		http.NotFound(w, r)
	}
}

func TestSheetsRegistry_CRUD(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSheets{t: t}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	reg, err := NewSheetsRegistry(ctx, "https://docs.google.com/spreadsheets/d/sheet123/edit", "",
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	sites, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites)

	require.NoError(t, reg.Append(ctx, Site{Name: "Acme", PropertyID: "123456789"}))
	require.NoError(t, reg.Append(ctx, Site{Name: "Beta", PropertyID: "222"}))
	assert.ErrorIs(t, reg.Append(ctx, Site{Name: "Acme", PropertyID: "1"}), ErrDuplicateSite)

	// header written with the first site
	require.Len(t, fake.rows, 3)
	assert.Equal(t, []interface{}{"SiteName", "PropertyID"}, fake.rows[0])

	require.NoError(t, reg.Delete(ctx, "Acme"))
	assert.ErrorIs(t, reg.Delete(ctx, "Acme"), ErrSiteNotFound)

	sites, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Site{{Name: "Beta", PropertyID: "222"}}, sites)
}

func TestSheetsRegistry_DeleteRemovesFirstDuplicate(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSheets{t: t}
	for _, row := range handEditedDuplicates {
		fake.rows = append(fake.rows, []interface{}{row[0], row[1]})
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	reg, err := NewSheetsRegistry(ctx, "sheet123", "",
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	sites, err := reg.List(ctx)
	require.NoError(t, err)
	site, ok := Find(sites, "Acme")
	require.True(t, ok)
	assert.Equal(t, "111", site.PropertyID)

	require.NoError(t, reg.Delete(ctx, "Acme"))

	sites, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Site{
		{Name: "Beta", PropertyID: "2"},
		{Name: "Acme", PropertyID: "333"},
	}, sites)
	assert.Equal(t, []interface{}{"SiteName", "PropertyID"}, fake.rows[0])
}

func TestSheetsRegistry_UnknownWorksheet(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(&fakeSheets{t: t})
	defer srv.Close()

	reg, err := NewSheetsRegistry(ctx, "sheet123", "Missing",
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = reg.List(ctx)
	assert.ErrorContains(t, err, `worksheet "Missing" not found`)
}
