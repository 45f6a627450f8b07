// Package platform resolves user-supplied media locators into URIs the engine can open.
package platform

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
)

// Resolver turns locators of one platform into playable URIs.
type Resolver interface {
	// Resolve returns a URI the engine can open directly.
	Resolve(ctx context.Context, locator string) (string, error)

	// CanHandle returns true if this resolver understands the locator.
	CanHandle(locator string) bool

	// Name returns the platform name (e.g., "youtube", "file").
	Name() string
}

// Registry holds resolvers in registration order. Locators no resolver claims are
// passed through unchanged.
type Registry struct {
	resolvers []Resolver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resolvers: make([]Resolver, 0),
	}
}

// Register adds a resolver.
func (r *Registry) Register(resolver Resolver) {
	r.resolvers = append(r.resolvers, resolver)
}

// Find returns the first resolver that can handle locator, or nil.
func (r *Registry) Find(locator string) Resolver {
	for _, res := range r.resolvers {
		if res.CanHandle(locator) {
			return res
		}
	}
	return nil
}

// ByName finds a resolver by platform name.
func (r *Registry) ByName(name string) Resolver {
	for _, res := range r.resolvers {
		if res.Name() == name {
			return res
		}
	}
	return nil
}

// Names returns all registered platform names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.resolvers))
	for i, res := range r.resolvers {
		names[i] = res.Name()
	}
	return names
}

// Resolve runs the matching resolver, or returns locator as is.
func (r *Registry) Resolve(ctx context.Context, locator string) (string, error) {
	if r == nil {
		return locator, nil
	}
	res := r.Find(locator)
	if res == nil {
		return locator, nil
	}
	return res.Resolve(ctx, locator)
}

// File turns local paths into file:// URIs.
type File struct{}

func (File) Name() string { return "file" }

// CanHandle accepts absolute and dot-relative paths, but not URIs.
func (File) CanHandle(locator string) bool {
	if strings.Contains(locator, "://") {
		return false
	}
	return filepath.IsAbs(locator) || strings.HasPrefix(locator, "./") || strings.HasPrefix(locator, "../")
}

func (File) Resolve(ctx context.Context, locator string) (string, error) {
	abs, err := filepath.Abs(locator)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
