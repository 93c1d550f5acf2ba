// Package scenario selects which fixture scenario a test runs under.
//
// Resolvers inspect the test identity and nominate a scenario name; the
// registry picks the winner by priority. Registration happens once at
// setup and lookups may run concurrently afterwards.
package scenario

import (
	"sync"

	"github.com/seijikohara/db-tester-sub006/pkg/convention"
)

// Resolver nominates scenario names for test identities.
type Resolver interface {
	// Name identifies the resolver in logs.
	Name() string

	// Priority ranks competing resolvers; higher wins.
	Priority() int

	// CanResolve reports whether the resolver applies to the test.
	CanResolve(id convention.TestID) bool

	// ScenarioName returns the scenario for the test.
	ScenarioName(id convention.TestID) string
}

// Registry selects the scenario for a test among registered resolvers.
type Registry struct {
	mu        sync.RWMutex
	resolvers []Resolver
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a resolver.
func (r *Registry) Register(res Resolver) {
	if res == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers = append(r.resolvers, res)
}

// Resolve returns the scenario name for the test. Among resolvers whose
// CanResolve accepts the test the highest priority wins, and equal
// priorities keep registration order. No applicable resolver means the
// shared fixtures, named by the empty string.
func (r *Registry) Resolve(id convention.TestID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best Resolver
	for _, res := range r.resolvers {
		if !res.CanResolve(id) {
			continue
		}
		if best == nil || res.Priority() > best.Priority() {
			best = res
		}
	}
	if best == nil {
		return ""
	}
	return best.ScenarioName(id)
}

// FixedResolver nominates one fixed scenario for every test its match
// function accepts.
type FixedResolver struct {
	// ID identifies the resolver; empty defaults to "fixed".
	ID string

	// Rank is the resolver priority.
	Rank int

	// Scenario is the nominated scenario name.
	Scenario string

	// Match accepts the tests the resolver applies to. Nil accepts all.
	Match func(convention.TestID) bool
}

// Name implements Resolver.
func (f *FixedResolver) Name() string {
	if f.ID == "" {
		return "fixed"
	}
	return f.ID
}

// Priority implements Resolver.
func (f *FixedResolver) Priority() int {
	return f.Rank
}

// CanResolve implements Resolver.
func (f *FixedResolver) CanResolve(id convention.TestID) bool {
	return f.Match == nil || f.Match(id)
}

// ScenarioName implements Resolver.
func (f *FixedResolver) ScenarioName(convention.TestID) string {
	return f.Scenario
}
