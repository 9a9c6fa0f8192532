package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowc-lang/flowc/pkg/flowc"
)

var runFixturesPath string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a program against fixtures",
	Long: `Run a flowc program, feeding it fixture data, and print its sinks.

Examples:
  flowc run pipeline.flow --fixtures fixtures.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runFixturesPath, "fixtures", "", "path to a fixtures_json file (default: {})")
}

func runRun(_ *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	fixturesJSON := "{}"
	if runFixturesPath != "" {
		data, err := os.ReadFile(runFixturesPath)
		if err != nil {
			return fmt.Errorf("failed to read fixtures file %s: %w", runFixturesPath, err)
		}
		fixturesJSON = string(data)
	}

	result := flowc.Run(string(content), fixturesJSON)
	fmt.Println("tables:", result.TablesJSON)
	fmt.Println("logs:", result.LogsJSON)
	fmt.Println()
	fmt.Println(result.Explain)
	return nil
}
