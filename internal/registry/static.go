package registry

import "context"

// StaticRegistry serves one site fixed in configuration
type StaticRegistry struct {
	site Site
}

func NewStaticRegistry(site Site) *StaticRegistry {
	return &StaticRegistry{site: site}
}

func (r *StaticRegistry) List(ctx context.Context) ([]Site, error) {
	return []Site{r.site}, nil
}

func (r *StaticRegistry) Append(ctx context.Context, site Site) error {
	return ErrReadOnly
}

func (r *StaticRegistry) Delete(ctx context.Context, name string) error {
	return ErrReadOnly
}
