// Package ordering decides the sequence tables are written to the database
// in. Insert-type operations need parents before children so foreign keys
// resolve; delete-type operations walk the same order backwards.
package ordering

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Strategy selects how the table order is computed.
type Strategy int

const (
	// Auto orders tables by a topological sort over the database's foreign
	// key relationships, parents first. Ties resolve to input order.
	Auto Strategy = iota

	// Declared follows the load-order list verbatim; tables absent from
	// the list are appended in input order. Foreign keys are ignored.
	Declared

	// None keeps the input order untouched.
	None
)

// ParseStrategy returns the strategy named by s (AUTO, DECLARED or NONE,
// case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToUpper(s) {
	case "AUTO":
		return Auto, nil
	case "DECLARED":
		return Declared, nil
	case "NONE":
		return None, nil
	default:
		return Auto, fmt.Errorf("unknown ordering strategy %q (want AUTO, DECLARED or NONE)", s)
	}
}

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case Declared:
		return "DECLARED"
	case None:
		return "NONE"
	default:
		return "AUTO"
	}
}

// Edge is one foreign key relationship: Child holds a reference to Parent.
type Edge struct {
	Child  string
	Parent string
}

// Oracle reports the foreign key relationships of a database.
type Oracle interface {
	ForeignKeyEdges(ctx context.Context) ([]Edge, error)
}

// Order is one computed table sequence with forward and reverse views.
type Order struct {
	names []string
}

// NewOrder returns an order over the given sequence.
func NewOrder(names []string) *Order {
	return &Order{names: slices.Clone(names)}
}

// Forward returns the insertion-safe sequence, parents before children.
func (o *Order) Forward() []string {
	return slices.Clone(o.names)
}

// Reverse returns the deletion-safe sequence, children before parents.
func (o *Order) Reverse() []string {
	r := slices.Clone(o.names)
	slices.Reverse(r)
	return r
}

// Len returns the number of tables.
func (o *Order) Len() int {
	return len(o.names)
}

// CycleError reports that foreign key relationships among the input tables
// form a cycle, so no insertion-safe order exists.
type CycleError struct {
	// Tables lists the tables participating in the cycle, in input order.
	Tables []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic foreign key dependencies among tables: %s", strings.Join(e.Tables, ", "))
}

// Orderer computes table orders under one strategy.
type Orderer struct {
	// Strategy selects the algorithm.
	Strategy Strategy

	// Oracle supplies foreign key edges. Required for Auto.
	Oracle Oracle

	// Declared is the load-order list consulted by Declared.
	Declared []string
}

// Compute returns the order for the given tables. The same inputs always
// produce the same order.
func (o *Orderer) Compute(ctx context.Context, tables []string) (*Order, error) {
	switch o.Strategy {
	case Declared:
		return o.declaredOrder(tables), nil
	case None:
		return NewOrder(tables), nil
	default:
		return o.autoOrder(ctx, tables)
	}
}

func (o *Orderer) declaredOrder(tables []string) *Order {
	placed := make(map[string]bool)
	names := make([]string, 0, len(tables))
	for _, name := range o.Declared {
		if slices.Contains(tables, name) && !placed[name] {
			placed[name] = true
			names = append(names, name)
		}
	}
	for _, name := range tables {
		if !placed[name] {
			names = append(names, name)
		}
	}
	return &Order{names: names}
}

// autoOrder runs Kahn's algorithm. Each step takes the first table in input
// order with no unplaced parent, which makes the result deterministic and
// breaks ties by input position.
func (o *Orderer) autoOrder(ctx context.Context, tables []string) (*Order, error) {
	if o.Oracle == nil {
		return nil, fmt.Errorf("ordering strategy AUTO requires a foreign key oracle")
	}
	edges, err := o.Oracle.ForeignKeyEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch foreign key edges: %w", err)
	}

	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}

	// Edges outside the input set carry no ordering constraint here; a
	// self-referential foreign key never forces an order either.
	children := make(map[string][]string)
	indegree := make(map[string]int)
	seen := make(map[Edge]bool)
	for _, e := range edges {
		if e.Child == e.Parent || !present[e.Child] || !present[e.Parent] || seen[e] {
			continue
		}
		seen[e] = true
		children[e.Parent] = append(children[e.Parent], e.Child)
		indegree[e.Child]++
	}

	placed := make(map[string]bool, len(tables))
	names := make([]string, 0, len(tables))
	for len(names) < len(tables) {
		next := ""
		for _, t := range tables {
			if !placed[t] && indegree[t] == 0 {
				next = t
				break
			}
		}
		if next == "" {
			var cyclic []string
			for _, t := range tables {
				if !placed[t] {
					cyclic = append(cyclic, t)
				}
			}
			return nil, &CycleError{Tables: cyclic}
		}
		placed[next] = true
		names = append(names, next)
		for _, c := range children[next] {
			indegree[c]--
		}
	}
	return &Order{names: names}, nil
}
