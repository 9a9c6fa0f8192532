package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowc-lang/flowc/pkg/flowc"
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Check a program for parse errors",
	Long: `Parse a flowc program and report whether it is well-formed.

Examples:
  flowc compile pipeline.flow`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

func runCompile(_ *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	result := flowc.Compile(string(content))
	if result.OK {
		fmt.Println("ok")
		return nil
	}

	fmt.Fprintln(os.Stderr, result.Diagnostics)
	return fmt.Errorf("compilation failed")
}
