package views

import (
	"log"
	"sync"
)

// Invalidator is called after any state-changing chat or admin operation so
// server-rendered views drop their cached copies of the route.
type Invalidator interface {
	Invalidate(routePath string)
}

// VersionInvalidator bumps a per-route version counter. Render layers compare
// the version they cached against the current one to decide on a re-render.
type VersionInvalidator struct {
	mu       sync.Mutex
	versions map[string]uint64
}

// NewVersionInvalidator constructs a VersionInvalidator.
func NewVersionInvalidator() *VersionInvalidator {
	return &VersionInvalidator{versions: make(map[string]uint64)}
}

// Invalidate bumps the route version.
func (v *VersionInvalidator) Invalidate(routePath string) {
	v.mu.Lock()
	v.versions[routePath]++
	version := v.versions[routePath]
	v.mu.Unlock()
	log.Printf("view invalidated route=%s version=%d", routePath, version)
}

// Version returns the current version for a route.
func (v *VersionInvalidator) Version(routePath string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.versions[routePath]
}
