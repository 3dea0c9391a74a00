package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ga4insight/internal/api"
	"ga4insight/internal/registry"
	"ga4insight/internal/report"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }

type fakeSites struct {
	sites []registry.Site
	err   error
}

func (f fakeSites) List(ctx context.Context) ([]registry.Site, error) { return f.sites, f.err }

type fakeRecommender struct {
	goal, summary string
	err           error
}

func (f *fakeRecommender) Recommend(ctx context.Context, goal, summary string) (string, error) {
	f.goal, f.summary = goal, summary
	if f.err != nil {
		return "", f.err
	}
	return "### 1. 現状の要約\n好調です", nil
}

func values(vs ...string) []api.MetricValue {
	out := make([]api.MetricValue, len(vs))
	for i, v := range vs {
		out[i] = api.MetricValue{Value: v}
	}
	return out
}

func dims(vs ...string) []api.DimensionValue {
	out := make([]api.DimensionValue, len(vs))
	for i, v := range vs {
		out[i] = api.DimensionValue{Value: v}
	}
	return out
}

// scriptedRunner answers the three dashboard reports by shape
type scriptedRunner struct {
	calls   []string
	failOn  string
	kpiRows []api.Row
}

func (r *scriptedRunner) RunReport(ctx context.Context, req *api.RunReportRequest) (*api.RunReportResponse, error) {
	kind := "details"
	switch {
	case len(req.DateRanges) == 2:
		kind = "kpi"
	case len(req.Dimensions) == 1 && req.Dimensions[0].Name == "pageTitle":
		kind = "pages"
	}
	r.calls = append(r.calls, kind)
	if kind == r.failOn {
		return nil, errors.New("backend unavailable")
	}

	switch kind {
	case "kpi":
		return &api.RunReportResponse{Rows: r.kpiRows}, nil
	case "pages":
		return &api.RunReportResponse{Rows: []api.Row{
			{DimensionValues: dims("Home"), MetricValues: values("900")},
			{DimensionValues: dims("Pricing"), MetricValues: values("300")},
		}}, nil
	default:
		return &api.RunReportResponse{Rows: []api.Row{
			{DimensionValues: dims("Direct", "desktop", "25-34"), MetricValues: values("50")},
			{DimensionValues: dims("Organic", "mobile", "18-24"), MetricValues: values("30")},
			{DimensionValues: dims("Direct", "mobile", "25-34"), MetricValues: values("10")},
		}}, nil
	}
}

func acmeOnly() fakeSites {
	return fakeSites{sites: []registry.Site{{Name: "Acme", PropertyID: "123456789"}}}
}

func TestGenerate_EndToEnd(t *testing.T) {
	runner := &scriptedRunner{kpiRows: []api.Row{
		{MetricValues: values("100", "150", "10", "125")},
		{MetricValues: values("80", "140", "8", "95")},
	}}
	rec := &fakeRecommender{}
	svc := NewService(acmeOnly(), runner, WithRecommender(rec), WithClock(fixedNow))

	d, err := svc.Generate(context.Background(), Request{Goal: "売上を増やす"})
	require.NoError(t, err)

	assert.Equal(t, []string{"kpi", "details", "pages"}, runner.calls)
	assert.Equal(t, "Acme", d.SiteName)
	assert.Equal(t, "2026-09-20", d.CurrentWindow.StartDate())
	assert.Equal(t, report.KPIVector{20, 10, 2, 30}, d.Deltas)
	assert.Equal(t, "0分30秒", report.FormatDuration(d.Deltas[report.AvgSessionDuration]))
	assert.Equal(t, []string{"Direct", "Organic"}, d.Channels.Keys())
	assert.Equal(t, []string{"Home", "Pricing"}, d.Pages.Keys())

	assert.Equal(t, "売上を増やす", rec.goal)
	assert.Equal(t, d.Summary, rec.summary)
	assert.Contains(t, d.Narrative, "好調です")
	assert.Equal(t, fixedNow(), d.GeneratedAt)
}

func TestGenerate_EmptyKPIDefaultsToZero(t *testing.T) {
	svc := NewService(acmeOnly(), &scriptedRunner{}, WithClock(fixedNow))

	d, err := svc.Generate(context.Background(), Request{SiteName: "Acme", SkipNarrative: true})
	require.NoError(t, err)
	assert.Equal(t, report.KPIVector{}, d.Current)
	assert.Equal(t, report.KPIVector{}, d.Previous)
	assert.Empty(t, d.Narrative)
}

func TestGenerate_SiteSelection(t *testing.T) {
	two := fakeSites{sites: []registry.Site{{Name: "Acme", PropertyID: "1"}, {Name: "Beta", PropertyID: "2"}}}

	tests := []struct {
		name    string
		sites   fakeSites
		site    string
		wantErr error
	}{
		{"no sites", fakeSites{}, "", ErrNoSites},
		{"ambiguous", two, "", ErrSiteRequired},
		{"unknown", two, "Gamma", registry.ErrSiteNotFound},
		{"registry down", fakeSites{err: errors.New("403 forbidden")}, "Acme", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptedRunner{}
			svc := NewService(tt.sites, runner)
			_, err := svc.Generate(context.Background(), Request{SiteName: tt.site, SkipNarrative: true})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			var stage *StageError
			require.ErrorAs(t, err, &stage)
			assert.Equal(t, StageRegistry, stage.Stage)
			assert.Empty(t, runner.calls)
		})
	}
}

func TestGenerate_StopsAtFirstFailure(t *testing.T) {
	runner := &scriptedRunner{failOn: "details"}
	rec := &fakeRecommender{}
	svc := NewService(acmeOnly(), runner, WithRecommender(rec))

	_, err := svc.Generate(context.Background(), Request{Goal: "g"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "details query")
	assert.ErrorContains(t, err, "backend unavailable")
	assert.Equal(t, []string{"kpi", "details"}, runner.calls)
	assert.Empty(t, rec.summary)
}

func TestGenerate_NarrativeFailure(t *testing.T) {
	rec := &fakeRecommender{err: errors.New("quota")}
	svc := NewService(acmeOnly(), &scriptedRunner{}, WithRecommender(rec))

	_, err := svc.Generate(context.Background(), Request{Goal: "g"})
	var stage *StageError
	require.ErrorAs(t, err, &stage)
	assert.Equal(t, StageNarrative, stage.Stage)
}

func TestGenerate_NarrativeRequiresRecommender(t *testing.T) {
	runner := &scriptedRunner{}
	svc := NewService(acmeOnly(), runner)

	_, err := svc.Generate(context.Background(), Request{Goal: "g"})
	assert.ErrorIs(t, err, ErrNoRecommender)
	assert.Empty(t, runner.calls)
}

func TestGenerate_AgainstDataAPI(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if ranges := req["dateRanges"].([]interface{}); len(ranges) == 2 {
			_, _ = w.Write([]byte(`{
				"dimensionHeaders":[{"name":"dateRange"}],
				"metricHeaders":[{"name":"activeUsers"},{"name":"sessions"},{"name":"conversions"},{"name":"averageSessionDuration"}],
				"rows":[
					{"dimensionValues":[{"value":"current"}],"metricValues":[{"value":"100"},{"value":"150"},{"value":"10"},{"value":"125"}]},
					{"dimensionValues":[{"value":"previous"}],"metricValues":[{"value":"80"},{"value":"140"},{"value":"8"},{"value":"95"}]}
				]}`))
			return
		}
		_, _ = w.Write([]byte(`{"rows":[]}`))
	}))
	defer srv.Close()

	client := api.NewDataClient(api.StaticClientProvider{Client: srv.Client()}, api.WithDataBaseURL(srv.URL))
	sites := registry.NewStaticRegistry(registry.Site{Name: "Acme", PropertyID: "123456789"})
	svc := NewService(sites, client, WithClock(fixedNow))

	d, err := svc.Generate(context.Background(), Request{SkipNarrative: true})
	require.NoError(t, err)
	assert.Equal(t, report.KPIVector{20, 10, 2, 30}, d.Deltas)
	assert.Empty(t, d.Channels)
	assert.Contains(t, d.Summary, "流入経路 TOP5: データなし")
	assert.Len(t, paths, 3)
	assert.Equal(t, "/properties/123456789:runReport", paths[0])
}

func TestGenerate_WindowsUseUTCDate(t *testing.T) {
	// 22:00 on the 19th in UTC-5 is already the 20th in UTC
	late := time.Date(2026, 10, 19, 22, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))
	svc := NewService(acmeOnly(), &scriptedRunner{}, WithClock(func() time.Time { return late }))

	d, err := svc.Generate(context.Background(), Request{SkipNarrative: true})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", d.CurrentWindow.EndDate())
	assert.Equal(t, "2026-09-21", d.CurrentWindow.StartDate())
	assert.Equal(t, "2026-09-20", d.PreviousWindow.EndDate())
	assert.Equal(t, late, d.GeneratedAt)
}

func TestGenerate_DuplicateNamesPickFirstRow(t *testing.T) {
	sites := fakeSites{sites: []registry.Site{
		{Name: "Acme", PropertyID: "111"},
		{Name: "Beta", PropertyID: "2"},
		{Name: "Acme", PropertyID: "333"},
	}}
	runner := &scriptedRunner{}
	var properties []string
	svc := NewService(sites, runnerFunc(func(ctx context.Context, req *api.RunReportRequest) (*api.RunReportResponse, error) {
		properties = append(properties, req.Property)
		return runner.RunReport(ctx, req)
	}), WithClock(fixedNow))

	d, err := svc.Generate(context.Background(), Request{SiteName: "Acme", SkipNarrative: true})
	require.NoError(t, err)
	assert.Equal(t, "111", d.PropertyID)
	assert.Equal(t, []string{"111", "111", "111"}, properties)
}

type runnerFunc func(ctx context.Context, req *api.RunReportRequest) (*api.RunReportResponse, error)

func (f runnerFunc) RunReport(ctx context.Context, req *api.RunReportRequest) (*api.RunReportResponse, error) {
	return f(ctx, req)
}
