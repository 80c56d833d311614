package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AKirsch1/Deploy-to-Grading/internal/config"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate the syntax and structure of an assignment.yml file",
	Long: `Lint checks an assignment.yml file and the task.yml files it references
for correctness. It validates required fields, task and metric name formats,
the due date timestamp, dependency references and dependency cycles without
grading anything.

Use this command to check your configuration before running 'run', 'submit'
or 'action'.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lintFile := config.AssignmentFileName

		if len(args) > 0 {
			lintFile = args[0]
		}

		fmt.Printf("Linting file: %s\n", lintFile)

		_, _, _, err := loadWorkspace(lintFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✖ Validation failed: %v\n", err)
			os.Exit(1)
		} else {
			fmt.Printf("✓ %s is valid!\n", lintFile)
		}
	},
}
