package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
	"github.com/khushigoel4699/Testplansserver/internal/config"
	"github.com/khushigoel4699/Testplansserver/internal/logging"
)

func main() {
	if err := newImportCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCommand() *cobra.Command {
	var (
		configPath string
		dataPath   string
		planID     int
		suiteID    int
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:          "testplans-import",
		Short:        "Import test cases from a YAML file into Azure DevOps",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

			data, err := os.ReadFile(dataPath)
			if err != nil {
				return fmt.Errorf("failed to read data file: %w", err)
			}
			file, err := parseImportFile(data)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("plan") {
				file.PlanID = planID
			}
			if cmd.Flags().Changed("suite") {
				file.SuiteID = suiteID
			}
			if err := file.validateTarget(); err != nil {
				return err
			}

			if dryRun {
				for _, tc := range file.TestCases {
					cmd.Printf("%s\n%s\n\n", tc.Title, ado.FormatSteps(tc.Steps))
				}
				return nil
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			client, err := ado.Connect(cmd.Context(), cfg.AzureDevOps)
			if err != nil {
				return fmt.Errorf("failed to connect to Azure DevOps: %w", err)
			}

			report, err := newImporter(client, logging.New("import")).Run(cmd.Context(), file)
			cmd.Printf("Created %d test case(s), %d failed", len(report.Created), len(report.Failed))
			if report.AddedToSuite > 0 {
				cmd.Printf(", %d added to suite %d", report.AddedToSuite, file.SuiteID)
			}
			cmd.Println()
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to config file")
	cmd.Flags().StringVar(&dataPath, "data", "testcases.yaml", "Path to test case YAML file")
	cmd.Flags().IntVar(&planID, "plan", 0, "Test plan to add the imported cases to (overrides the file)")
	cmd.Flags().IntVar(&suiteID, "suite", 0, "Suite to add the imported cases to (overrides the file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the encoded steps without calling Azure DevOps")
	return cmd
}
