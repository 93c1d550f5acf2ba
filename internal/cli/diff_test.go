package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seijikohara/db-tester-sub006/internal/testutil"
)

func TestDiffEqualDirectories(t *testing.T) {
	root := testutil.WriteFixtures(t, map[string]string{
		"expected/USERS.csv": "ID,NAME\n1,alice\n2,bob\n",
		"actual/USERS.csv":   "NAME,ID\nbob,2\nalice,1\n",
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(root, "expected"), filepath.Join(root, "actual")})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Datasets match")
}

func TestDiffReportsDifferences(t *testing.T) {
	root := testutil.WriteFixtures(t, map[string]string{
		"expected/USERS.csv": "ID,NAME\n1,alice\n",
		"actual/USERS.csv":   "ID,NAME\n1,alicia\n",
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(root, "expected"), filepath.Join(root, "actual")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ 1 difference(s) found")
	assert.Contains(t, output, `USERS: row 0, NAME: expected "alice", found "alicia"`)
}

func TestDiffNormalizedCells(t *testing.T) {
	root := testutil.WriteFixtures(t, map[string]string{
		"expected/ITEMS.csv": "ID,PRICE,ACTIVE\n1,1.50,TRUE\n",
		"actual/ITEMS.csv":   "ID,PRICE,ACTIVE\n1,1.5,1\n",
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(root, "expected"), filepath.Join(root, "actual")})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Datasets match")
}

func TestDiffJSON(t *testing.T) {
	root := testutil.WriteFixtures(t, map[string]string{
		"expected/USERS.csv": "ID,NAME\n1,alice\n",
		"actual/USERS.csv":   "ID,NAME\n1,alicia\n",
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(root, "expected"), filepath.Join(root, "actual")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DIFF_FOUND", resp.Error.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["equal"])
	assert.Equal(t, float64(1), data["findings"])
}

func TestDiffJSONEqual(t *testing.T) {
	root := testutil.WriteFixtures(t, map[string]string{
		"expected/USERS.csv": "ID,NAME\n1,alice\n",
		"actual/USERS.csv":   "ID,NAME\n1,alice\n",
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(root, "expected"), filepath.Join(root, "actual")})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["equal"])
}

func TestDiffConfigExclusions(t *testing.T) {
	root := testutil.WriteFixtures(t, map[string]string{
		"expected/USERS.csv": "ID,NAME,UPDATED_AT\n1,alice,2024-01-01\n",
		"actual/USERS.csv":   "ID,NAME,UPDATED_AT\n1,alice,2024-02-02\n",
		"dbtester.yaml":      "exclusions:\n  USERS:\n    - UPDATED_AT\n",
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: filepath.Join(root, "dbtester.yaml")}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(root, "expected"), filepath.Join(root, "actual")})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Datasets match")
}

func TestDiffStructuralFindings(t *testing.T) {
	root := testutil.WriteFixtures(t, map[string]string{
		"expected/USERS.csv":  "ID,NAME\n1,alice\n",
		"expected/GROUPS.csv": "ID\n1\n",
		"actual/USERS.csv":    "ID\n1\n",
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(root, "expected"), filepath.Join(root, "actual")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "USERS: missing columns: NAME")
	assert.Contains(t, output, "GROUPS: table is missing")
}

func TestDiffMalformedInput(t *testing.T) {
	root := testutil.WriteFixtures(t, map[string]string{
		"expected/USERS.csv": "ID,NAME\n1\n",
		"actual/USERS.csv":   "ID,NAME\n1,alice\n",
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(root, "expected"), filepath.Join(root, "actual")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E002")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
