package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowc-lang/flowc/internal/explain"
	"github.com/flowc-lang/flowc/internal/parser"
)

var explainCmd = &cobra.Command{
	Use:   "explain [file]",
	Short: "Print a program's execution plan",
	Long: `Parse a flowc program and print one line per stage, in data-flow order.

Examples:
  flowc explain pipeline.flow`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(_ *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	program, errs := parser.ParseProgram(string(content))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fmt.Errorf("parsing failed with %d error(s)", len(errs))
	}

	fmt.Println(explain.Plan(program))
	return nil
}
