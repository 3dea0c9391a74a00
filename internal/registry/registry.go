// Package registry stores the list of tracked sites and their GA4 property
// ids. Every backend uses the same two-column layout: a SiteName | PropertyID
// header followed by one site per row.
package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"ga4insight/internal/api"
	"ga4insight/internal/config"
)

const (
	HeaderSiteName   = "SiteName"
	HeaderPropertyID = "PropertyID"
)

var (
	ErrInvalidSite   = errors.New("invalid site")
	ErrDuplicateSite = errors.New("site already registered")
	ErrSiteNotFound  = errors.New("site not found")
	ErrReadOnly      = errors.New("registry is read-only")
)

var propertyIDPattern = regexp.MustCompile(`^[0-9]+$`)

// Site maps a display name to a GA4 property id
type Site struct {
	Name       string `json:"name" yaml:"name"`
	PropertyID string `json:"property_id" yaml:"property_id"`
}

// Registry is the site list used by the dashboard and the sites command
type Registry interface {
	List(ctx context.Context) ([]Site, error)
	Append(ctx context.Context, site Site) error
	// Delete removes the first site whose name matches exactly
	Delete(ctx context.Context, name string) error
}

// Validate checks a site before it is written
func Validate(site Site) error {
	if strings.TrimSpace(site.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSite)
	}
	if !propertyIDPattern.MatchString(site.PropertyID) {
		return fmt.Errorf("%w: property id %q must be numeric", ErrInvalidSite, site.PropertyID)
	}
	return nil
}

// Find returns the first site with the given name
func Find(sites []Site, name string) (Site, bool) {
	if i := indexOf(sites, name); i >= 0 {
		return sites[i], true
	}
	return Site{}, false
}

func indexOf(sites []Site, name string) int {
	for i, s := range sites {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// checkAppend validates site against the current list
func checkAppend(existing []Site, site Site) error {
	if err := Validate(site); err != nil {
		return err
	}
	if indexOf(existing, site.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateSite, site.Name)
	}
	return nil
}

// sitesFromRows turns sheet rows into sites. The header row and rows
// without a name are skipped.
func sitesFromRows(rows [][]string) []Site {
	sites := make([]Site, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || (i == 0 && name == HeaderSiteName) {
			continue
		}
		var propertyID string
		if len(row) > 1 {
			propertyID = strings.TrimSpace(row[1])
		}
		sites = append(sites, Site{Name: name, PropertyID: propertyID})
	}
	return sites
}

// rowIndex returns the zero-based row holding the first match, or -1
func rowIndex(rows [][]string, name string) int {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if i == 0 && cell == HeaderSiteName {
			continue
		}
		if cell == name {
			return i
		}
	}
	return -1
}

// Open builds the configured backend wrapped in a read cache
func Open(ctx context.Context, cfg config.RegistryConfig, ttl time.Duration, creds api.CredentialProvider, log *zap.Logger) (*CachedRegistry, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var backend Registry

	switch cfg.Backend {
	case config.RegistrySheets:
		httpClient, err := creds.HTTPClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		sheetsRegistry, err := NewSheetsRegistry(ctx, cfg.SheetURL, cfg.SheetName, option.WithHTTPClient(httpClient))
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		backend = sheetsRegistry
	case config.RegistryWorkbook:
		backend = NewWorkbookRegistry(cfg.WorkbookPath, cfg.SheetName)
	case config.RegistryStatic:
		backend = NewStaticRegistry(Site{Name: cfg.StaticSiteName, PropertyID: cfg.StaticProperty})
	default:
		return nil, fmt.Errorf("registry: unknown backend %q", cfg.Backend)
	}

	log.Debug("site registry opened",
		zap.String("backend", cfg.Backend),
		zap.Duration("ttl", ttl))

	return NewCachedRegistry(backend, ttl, log)
}
