package scenario

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seijikohara/db-tester-sub006/pkg/convention"
)

func TestRegistry_HighestPriorityWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&FixedResolver{ID: "low", Rank: 1, Scenario: "base"})
	r.Register(&FixedResolver{ID: "high", Rank: 10, Scenario: "special"})

	got := r.Resolve(convention.TestID{Class: "acme.UserTest", Method: "create"})
	assert.Equal(t, "special", got)
}

func TestRegistry_EqualPriorityKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&FixedResolver{ID: "first", Rank: 5, Scenario: "one"})
	r.Register(&FixedResolver{ID: "second", Rank: 5, Scenario: "two"})

	got := r.Resolve(convention.TestID{Class: "acme.UserTest", Method: "create"})
	assert.Equal(t, "one", got)
}

func TestRegistry_SkipsNonMatching(t *testing.T) {
	r := NewRegistry()
	r.Register(&FixedResolver{
		ID:       "orders-only",
		Rank:     10,
		Scenario: "orders",
		Match: func(id convention.TestID) bool {
			return strings.Contains(id.Class, "Order")
		},
	})
	r.Register(&FixedResolver{ID: "fallback", Rank: 1, Scenario: "base"})

	assert.Equal(t, "orders", r.Resolve(convention.TestID{Class: "acme.OrderTest", Method: "x"}))
	assert.Equal(t, "base", r.Resolve(convention.TestID{Class: "acme.UserTest", Method: "x"}))
}

func TestRegistry_NoMatchMeansSharedFixtures(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "", r.Resolve(convention.TestID{Class: "acme.UserTest", Method: "x"}))

	r.Register(&FixedResolver{
		Rank:     1,
		Scenario: "never",
		Match:    func(convention.TestID) bool { return false },
	})
	assert.Equal(t, "", r.Resolve(convention.TestID{Class: "acme.UserTest", Method: "x"}))
}

func TestFixedResolver_Defaults(t *testing.T) {
	f := &FixedResolver{Scenario: "s"}
	assert.Equal(t, "fixed", f.Name())
	assert.True(t, f.CanResolve(convention.TestID{}))

	named := &FixedResolver{ID: "mine"}
	assert.Equal(t, "mine", named.Name())
}

func TestRegistry_ConcurrentResolves(t *testing.T) {
	r := NewRegistry()
	r.Register(&FixedResolver{ID: "only", Rank: 1, Scenario: "s"})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "s", r.Resolve(convention.TestID{Class: "a.B", Method: "c"}))
		}()
	}
	wg.Wait()
}
