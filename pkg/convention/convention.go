// Package convention maps a test identity to its fixture directories.
//
// Fixtures live under a root directory, one subtree per test class and one
// leaf directory per test method. A dotted class name contributes one path
// segment per component, so com.example.UserServiceTest with method
// create resolves to <root>/com/example/UserServiceTest/create. Expected
// fixtures live in an expected subdirectory of the method leaf. When a
// scenario name is supplied and a scenario-specific directory exists it is
// preferred; otherwise the shared method directory is used and scenario
// narrowing happens per row.
package convention

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpectedDirName is the leaf subdirectory holding expected fixtures.
const ExpectedDirName = "expected"

// Role selects which fixture tree a resolution targets.
type Role int

const (
	// Preparation resolves the fixtures applied before the test runs.
	Preparation Role = iota

	// Expectation resolves the fixtures the database is compared against
	// after the test runs.
	Expectation
)

// String implements fmt.Stringer.
func (r Role) String() string {
	if r == Expectation {
		return "expectation"
	}
	return "preparation"
}

// TestID identifies one test method.
type TestID struct {
	// Class is the fully qualified test class or suite name. Dots and
	// slashes both separate path segments.
	Class string

	// Method is the test method name, one path segment. It may be empty
	// for class-level fixtures.
	Method string
}

// Resolver resolves test identities against one fixture root.
type Resolver struct {
	// Root is the fixture root directory.
	Root string

	// Exclusions lists table base names that resolutions carry as
	// skip-tables, so excluded fixture files are never read.
	Exclusions []string
}

// Resolution is the outcome of resolving one test identity.
type Resolution struct {
	// Dir is the first existing candidate directory, or "" when none
	// exists ("no fixture", a successful empty result).
	Dir string

	// Candidates lists the evaluated directories in preference order.
	Candidates []string

	// Scenario is the scenario name the caller should narrow rows to.
	Scenario string

	// SkipTables carries the resolver's exclusions.
	SkipTables []string
}

// Resolve computes the fixture directory for a test identity. Candidates
// are evaluated most-specific first: the scenario-specific directory when a
// scenario name is given, then the shared directory. A missing directory is
// never an error; the returned Dir is empty when no candidate exists.
func (r *Resolver) Resolve(id TestID, scenario string, role Role) Resolution {
	base := filepath.Join(append([]string{r.Root}, segments(id)...)...)

	var candidates []string
	switch role {
	case Expectation:
		if scenario != "" {
			candidates = append(candidates, filepath.Join(base, scenario, ExpectedDirName))
		}
		candidates = append(candidates, filepath.Join(base, ExpectedDirName))
	default:
		if scenario != "" {
			candidates = append(candidates, filepath.Join(base, scenario))
		}
		candidates = append(candidates, base)
	}

	res := Resolution{
		Candidates: candidates,
		Scenario:   scenario,
		SkipTables: r.Exclusions,
	}
	for _, dir := range candidates {
		if dirExists(dir) {
			res.Dir = dir
			break
		}
	}
	return res
}

func segments(id TestID) []string {
	raw := strings.FieldsFunc(id.Class, func(r rune) bool {
		return r == '.' || r == '/'
	})
	if id.Method != "" {
		raw = append(raw, id.Method)
	}
	return raw
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
