package convention

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}
}

func TestResolve_PreparationSharedDirectory(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "com/example/UserServiceTest/create")

	r := Resolver{Root: root}
	res := r.Resolve(TestID{Class: "com.example.UserServiceTest", Method: "create"}, "", Preparation)

	assert.Equal(t, filepath.Join(root, "com", "example", "UserServiceTest", "create"), res.Dir)
	assert.Len(t, res.Candidates, 1)
}

func TestResolve_ExpectationAppendsLeaf(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "com/example/UserServiceTest/create/expected")

	r := Resolver{Root: root}
	res := r.Resolve(TestID{Class: "com.example.UserServiceTest", Method: "create"}, "", Expectation)

	assert.Equal(t, filepath.Join(root, "com", "example", "UserServiceTest", "create", "expected"), res.Dir)
}

func TestResolve_ScenarioDirectoryPreferred(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root,
		"UserServiceTest/create",
		"UserServiceTest/create/duplicate-email",
	)

	r := Resolver{Root: root}
	res := r.Resolve(TestID{Class: "UserServiceTest", Method: "create"}, "duplicate-email", Preparation)

	assert.Equal(t, filepath.Join(root, "UserServiceTest", "create", "duplicate-email"), res.Dir)
	assert.Equal(t, "duplicate-email", res.Scenario)
}

func TestResolve_SharedDirectoryWhenScenarioDirMissing(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "UserServiceTest/create")

	r := Resolver{Root: root}
	res := r.Resolve(TestID{Class: "UserServiceTest", Method: "create"}, "duplicate-email", Preparation)

	// The shared directory serves the scenario; rows narrow by tag.
	assert.Equal(t, filepath.Join(root, "UserServiceTest", "create"), res.Dir)
	assert.Equal(t, "duplicate-email", res.Scenario)
	assert.Len(t, res.Candidates, 2)
}

func TestResolve_ScenarioExpectation(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root,
		"UserServiceTest/create/expected",
		"UserServiceTest/create/duplicate-email/expected",
	)

	r := Resolver{Root: root}
	res := r.Resolve(TestID{Class: "UserServiceTest", Method: "create"}, "duplicate-email", Expectation)

	assert.Equal(t, filepath.Join(root, "UserServiceTest", "create", "duplicate-email", "expected"), res.Dir)
}

func TestResolve_MissingEverywhereIsEmptyNotError(t *testing.T) {
	r := Resolver{Root: t.TempDir()}
	res := r.Resolve(TestID{Class: "Nope", Method: "nothing"}, "", Preparation)

	assert.Equal(t, "", res.Dir)
}

func TestResolve_SlashSeparatedClass(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "svc/user/Test/run")

	r := Resolver{Root: root}
	res := r.Resolve(TestID{Class: "svc/user/Test", Method: "run"}, "", Preparation)

	assert.Equal(t, filepath.Join(root, "svc", "user", "Test", "run"), res.Dir)
}

func TestResolve_EmptyMethodUsesClassDir(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "SuiteWide")

	r := Resolver{Root: root}
	res := r.Resolve(TestID{Class: "SuiteWide"}, "", Preparation)

	assert.Equal(t, filepath.Join(root, "SuiteWide"), res.Dir)
}

func TestResolve_CarriesExclusions(t *testing.T) {
	r := Resolver{Root: t.TempDir(), Exclusions: []string{"AUDIT_LOG"}}
	res := r.Resolve(TestID{Class: "T", Method: "m"}, "", Preparation)

	assert.Equal(t, []string{"AUDIT_LOG"}, res.SkipTables)
}
