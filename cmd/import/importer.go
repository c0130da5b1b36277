package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
)

// ImportFile is the YAML document read by the import command.
type ImportFile struct {
	PlanID    int            `yaml:"planId"`
	SuiteID   int            `yaml:"suiteId"`
	TestCases []TestCaseData `yaml:"testCases"`
}

// TestCaseData represents a test case from YAML
type TestCaseData struct {
	Title         string     `yaml:"title"`
	Priority      int        `yaml:"priority"`
	AreaPath      string     `yaml:"areaPath"`
	IterationPath string     `yaml:"iterationPath"`
	Steps         []ado.Step `yaml:"steps"`
}

// ImportReport summarises one run.
type ImportReport struct {
	Created      []int
	Failed       []string
	AddedToSuite int
}

func parseImportFile(data []byte) (*ImportFile, error) {
	var file ImportFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.TestCases) == 0 {
		return nil, errors.New("no test cases in file")
	}
	for i, tc := range file.TestCases {
		if strings.TrimSpace(tc.Title) == "" {
			return nil, fmt.Errorf("test case %d: title is required", i+1)
		}
	}
	if err := file.validateTarget(); err != nil {
		return nil, err
	}
	return &file, nil
}

// validateTarget checks the suite the cases are added to. It runs again
// after command line overrides.
func (f *ImportFile) validateTarget() error {
	if f.PlanID < 0 || f.SuiteID < 0 {
		return errors.New("planId and suiteId must not be negative")
	}
	if (f.PlanID == 0) != (f.SuiteID == 0) {
		return errors.New("planId and suiteId must be set together")
	}
	return nil
}

type importer struct {
	client ado.Client
	logger *slog.Logger
}

func newImporter(client ado.Client, logger *slog.Logger) *importer {
	return &importer{client: client, logger: logger}
}

// Run creates every test case, continuing past individual failures, then adds
// the created ones to the suite when the file names one.
func (im *importer) Run(ctx context.Context, file *ImportFile) (*ImportReport, error) {
	report := &ImportReport{}
	if err := file.validateTarget(); err != nil {
		return report, err
	}

	for _, tc := range file.TestCases {
		created, err := im.client.CreateTestCase(ctx, ado.CreateTestCaseParams{
			Title:         tc.Title,
			Steps:         ado.FormatSteps(tc.Steps),
			Priority:      tc.Priority,
			AreaPath:      tc.AreaPath,
			IterationPath: tc.IterationPath,
		})
		if err != nil {
			im.logger.Error("failed to create test case", "title", tc.Title, "error", err)
			report.Failed = append(report.Failed, tc.Title)
			continue
		}
		im.logger.Info("created test case", "id", created.ID, "title", tc.Title)
		report.Created = append(report.Created, created.ID)
	}

	if file.SuiteID == 0 || len(report.Created) == 0 {
		return report, nil
	}

	for start := 0; start < len(report.Created); start += ado.MaxBatchSize {
		end := start + ado.MaxBatchSize
		if end > len(report.Created) {
			end = len(report.Created)
		}
		added, err := im.client.AddTestCasesToSuite(ctx, file.PlanID, file.SuiteID, report.Created[start:end])
		if err != nil {
			return report, fmt.Errorf("failed to add test cases to suite %d: %w", file.SuiteID, err)
		}
		report.AddedToSuite += len(added)
	}
	return report, nil
}
