package godownloader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
)

var (
	ErrDuplicateBackend = errors.New("duplicate backend name")
	ErrInvalidBackend   = errors.New("invalid backend")
)

var (
	PriorityHighest int16 = math.MinInt16
	PriorityDefault int16 = 0
	PriorityLowest  int16 = math.MaxInt16
)

// A Backend wraps one external download tool. Match decides whether the
// backend wants a URL; Execute runs the tool synchronously with workdir as its
// output directory and returns the artifact paths it produced. An artifact
// path may be a directory, in which case the caller enumerates its contents.
//
// Execute must not fail just because the executable is missing; that condition
// is reported through the returned error, never a panic.
type Backend interface {
	Name() string
	// Hosts returns the host substrings this backend claims, or nil for a
	// catch-all backend.
	Hosts() []string
	Match(u *url.URL) bool
	Execute(ctx context.Context, rawURL string, workdir string) ([]string, error)
}

type registeredBackend struct {
	backend  Backend
	priority int16
}

// A Registry is an ordered collection of Backend instances. Select walks them
// in priority order (registration order breaks ties) and returns the first
// whose Match accepts the URL, so backends should be registered most-specific
// first with the generic catch-all last.
type Registry struct {
	backends   []*registeredBackend
	backendMap map[string]*registeredBackend
}

// Add registers a Backend. Backend.Name must be non-empty and unique within
// the Registry.
func (r *Registry) Add(b Backend, priority int16) error {
	if r.backendMap == nil {
		r.backendMap = make(map[string]*registeredBackend)
	}
	if b == nil || b.Name() == "" {
		return ErrInvalidBackend
	}
	if _, ok := r.backendMap[b.Name()]; ok {
		return ErrDuplicateBackend
	}
	rb := &registeredBackend{backend: b, priority: priority}
	r.backendMap[b.Name()] = rb
	r.backends = append(r.backends, rb)
	r.sortByPriority()
	return nil
}

// MustAdd wraps Add but panics if there is an error.
func (r *Registry) MustAdd(b Backend, priority int16) {
	if err := r.Add(b, priority); err != nil {
		panic(err)
	}
}

// List returns the names of registered backends in priority order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.backends))
	for _, rb := range r.backends {
		names = append(names, rb.backend.Name())
	}
	return names
}

// Backends returns the registered backends in priority order.
func (r *Registry) Backends() []Backend {
	backends := make([]Backend, 0, len(r.backends))
	for _, rb := range r.backends {
		backends = append(backends, rb.backend)
	}
	return backends
}

// Select returns the first backend that accepts the URL, or an error wrapping
// ErrNoBackend. Not matching is distinct from a backend running and failing.
func (r *Registry) Select(u *url.URL) (Backend, error) {
	for _, rb := range r.backends {
		if rb.backend.Match(u) {
			return rb.backend, nil
		}
	}
	return nil, fmt.Errorf("%w: no backend accepts %q", ErrNoBackend, u.Host)
}

func (r *Registry) sortByPriority() {
	sort.SliceStable(r.backends, func(i, j int) bool {
		return r.backends[i].priority < r.backends[j].priority
	})
}
