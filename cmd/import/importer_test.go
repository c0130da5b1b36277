package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
	"github.com/khushigoel4699/Testplansserver/internal/ado/adotest"
)

const sampleFile = `
planId: 12
suiteId: 34
testCases:
  - title: Login with valid credentials
    priority: 1
    steps:
      - action: Open the login page
        expected: Form is shown
      - action: Submit valid credentials
        expected: Dashboard is shown
  - title: Logout
    steps:
      - action: Click logout
        expected: Login page is shown
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseImportFile(t *testing.T) {
	file, err := parseImportFile([]byte(sampleFile))
	require.NoError(t, err)
	assert.Equal(t, 12, file.PlanID)
	assert.Equal(t, 34, file.SuiteID)
	require.Len(t, file.TestCases, 2)
	assert.Equal(t, ado.Step{Action: "Click logout", Expected: "Login page is shown"}, file.TestCases[1].Steps[0])
}

func TestParseImportFile_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":         "testCases: []",
		"missing title": "testCases:\n  - priority: 2",
		"suite only":    "suiteId: 3\ntestCases:\n  - title: x",
		"negative plan": "planId: -1\nsuiteId: 3\ntestCases:\n  - title: x",
		"bad yaml":      "testCases: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseImportFile([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestImporterRun(t *testing.T) {
	file, err := parseImportFile([]byte(sampleFile))
	require.NoError(t, err)

	vendor := adotest.NewFake()
	report, err := newImporter(vendor, discardLogger()).Run(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, []int{1001, 1002}, report.Created)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2, report.AddedToSuite)

	assert.Equal(t,
		"1. Open the login page|Form is shown\n2. Submit valid credentials|Dashboard is shown",
		vendor.TestCases[1001].Steps)
	assert.Len(t, vendor.SuiteCases[[2]int{12, 34}], 2)
}

func TestImporterRun_VendorFailure(t *testing.T) {
	file, err := parseImportFile([]byte(sampleFile))
	require.NoError(t, err)

	vendor := adotest.NewFake()
	vendor.Err = errors.New("unauthorized")
	report, err := newImporter(vendor, discardLogger()).Run(context.Background(), file)
	require.NoError(t, err)

	assert.Empty(t, report.Created)
	assert.Equal(t, []string{"Login with valid credentials", "Logout"}, report.Failed)
	for _, call := range vendor.Calls() {
		assert.NotEqual(t, "AddTestCasesToSuite", call.Method)
	}
}

func TestImporterRun_RejectsUnpairedTarget(t *testing.T) {
	file, err := parseImportFile([]byte(sampleFile))
	require.NoError(t, err)
	file.SuiteID = 0

	vendor := adotest.NewFake()
	_, err = newImporter(vendor, discardLogger()).Run(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set together")
	assert.Empty(t, vendor.Calls())
}

func TestImportCommand_OverridesAreValidated(t *testing.T) {
	dir := t.TempDir()
	withTarget := filepath.Join(dir, "with-target.yaml")
	require.NoError(t, os.WriteFile(withTarget, []byte(sampleFile), 0o600))
	withoutTarget := filepath.Join(dir, "without-target.yaml")
	require.NoError(t, os.WriteFile(withoutTarget, []byte("testCases:\n  - title: Logout\n"), 0o600))

	cases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"ClearSuite", []string{"--data", withTarget, "--suite", "0"}, "set together"},
		{"PlanOnly", []string{"--data", withoutTarget, "--plan", "5"}, "set together"},
		{"NegativeSuite", []string{"--data", withTarget, "--suite=-2"}, "must not be negative"},
		{"ClearBoth", []string{"--data", withTarget, "--plan", "0", "--suite", "0"}, ""},
		{"SetBoth", []string{"--data", withoutTarget, "--plan", "5", "--suite", "6"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out strings.Builder
			cmd := newImportCommand()
			cmd.SetOut(&out)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "missing.toml"), "--dry-run"}, tc.args...))

			err := cmd.Execute()
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Contains(t, out.String(), "Logout")
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
