// Package dashboard runs one report generation: pick the site, fetch the
// three GA4 reports one after another, aggregate and ask for a narrative.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ga4insight/internal/query"
	"ga4insight/internal/registry"
	"ga4insight/internal/report"
)

// Pipeline stages named in StageError
const (
	StageRegistry  = "registry"
	StageKPI       = "kpi query"
	StageDetails   = "details query"
	StagePages     = "pages query"
	StageAggregate = "aggregate"
	StageNarrative = "narrative"
)

var (
	ErrNoSites       = errors.New("no sites registered")
	ErrSiteRequired  = errors.New("several sites registered, choose one")
	ErrNoRecommender = errors.New("narrative provider not configured")
)

// StageError reports which step of the run failed
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// SiteSource lists registered sites; satisfied by any registry.Registry
type SiteSource interface {
	List(ctx context.Context) ([]registry.Site, error)
}

// Recommender produces the narrative; satisfied by *narrative.Service
type Recommender interface {
	Recommend(ctx context.Context, goal, summary string) (string, error)
}

// Request selects what to generate
type Request struct {
	SiteName      string // may be empty when exactly one site is registered
	Goal          string
	SkipNarrative bool
}

// Service generates dashboards
type Service struct {
	sites       SiteSource
	executor    *query.Executor
	recommender Recommender
	now         func() time.Time
	log         *zap.Logger
}

// Option customises a Service
type Option func(*Service)

// WithRecommender enables the narrative step
func WithRecommender(r Recommender) Option {
	return func(s *Service) { s.recommender = r }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(sites SiteSource, runner query.Runner, opts ...Option) *Service {
	s := &Service{
		sites:    sites,
		executor: query.NewExecutor(runner),
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sites returns the registered sites for the selector
func (s *Service) Sites(ctx context.Context) ([]registry.Site, error) {
	sites, err := s.sites.List(ctx)
	if err != nil {
		return nil, stageErr(StageRegistry, err)
	}
	return sites, nil
}

// Generate runs the whole pipeline. The first failure stops the run.
func (s *Service) Generate(ctx context.Context, req Request) (*report.Dashboard, error) {
	site, err := s.resolveSite(ctx, req.SiteName)
	if err != nil {
		return nil, stageErr(StageRegistry, err)
	}

	if !req.SkipNarrative && s.recommender == nil {
		return nil, stageErr(StageNarrative, ErrNoRecommender)
	}

	generatedAt := s.now()
	// windows use the UTC calendar date
	currentWindow, previousWindow := report.NewWindows(generatedAt.UTC())
	current := dateRange(currentWindow)
	previous := dateRange(previousWindow)

	log := s.log.With(
		zap.String("site", site.Name),
		zap.String("property_id", site.PropertyID))
	log.Info("generating dashboard",
		zap.String("current", currentWindow.String()),
		zap.String("previous", previousWindow.String()))

	kpi, err := s.executor.Execute(ctx, query.KPI(site.PropertyID, current, previous))
	if err != nil {
		return nil, stageErr(StageKPI, err)
	}

	details, err := s.executor.Execute(ctx, query.Details(site.PropertyID, current))
	if err != nil {
		return nil, stageErr(StageDetails, err)
	}

	pages, err := s.executor.Execute(ctx, query.TopPages(site.PropertyID, current))
	if err != nil {
		return nil, stageErr(StagePages, err)
	}

	log.Debug("reports fetched",
		zap.Int("kpi_rows", kpi.RowCount),
		zap.Int("detail_rows", details.RowCount),
		zap.Int("page_rows", pages.RowCount))

	d, err := report.Aggregate(report.Input{
		SiteName:       site.Name,
		PropertyID:     site.PropertyID,
		CurrentWindow:  currentWindow,
		PreviousWindow: previousWindow,
		KPI:            kpi.Response,
		Details:        details.Response,
		Pages:          pages.Response,
		GeneratedAt:    generatedAt,
	})
	if err != nil {
		return nil, stageErr(StageAggregate, err)
	}
	d.Goal = req.Goal

	if req.SkipNarrative {
		return d, nil
	}

	text, err := s.recommender.Recommend(ctx, req.Goal, d.Summary)
	if err != nil {
		return nil, stageErr(StageNarrative, err)
	}
	d.Narrative = text

	return d, nil
}

func (s *Service) resolveSite(ctx context.Context, name string) (registry.Site, error) {
	sites, err := s.sites.List(ctx)
	if err != nil {
		return registry.Site{}, err
	}

	if len(sites) == 0 {
		return registry.Site{}, ErrNoSites
	}

	if name == "" {
		if len(sites) == 1 {
			return sites[0], nil
		}
		return registry.Site{}, ErrSiteRequired
	}

	site, ok := registry.Find(sites, name)
	if !ok {
		return registry.Site{}, fmt.Errorf("%w: %s", registry.ErrSiteNotFound, name)
	}
	return site, nil
}

func dateRange(w report.DateWindow) query.DateRange {
	return query.DateRange{StartDate: w.StartDate(), EndDate: w.EndDate()}
}
