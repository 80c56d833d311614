package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AKirsch1/Deploy-to-Grading/internal/config"
	"github.com/AKirsch1/Deploy-to-Grading/internal/templates"
	"github.com/AKirsch1/Deploy-to-Grading/utils"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

// TODO
// --no-tui for headless scripting

var initCmd = &cobra.Command{
	Use:   "init [assignment-name]",
	Args:  cobra.MaximumNArgs(1),
	Short: "Scaffold a new assignment workspace",
	Long: `Initialize a new assignment workspace by scaffolding the required structure:
  - A starter assignment.yml configuration file
  - A first task folder with a task.yml
  - A .d2g/ directory for logs
  - A src/ directory inside the task for student submissions

This command can be used non-interactively with an optional [assignment-name],
or it will launch an interactive prompt to collect the assignment name,
template repository and first task name.`,
	Run: func(cmd *cobra.Command, args []string) {
		var assignmentName, templateRepo, firstTask string
		var canceled bool

		if len(args) > 0 {
			assignmentName, templateRepo, firstTask, canceled = RunInitTUI(args[0])
		} else {
			assignmentName, templateRepo, firstTask, canceled = RunInitTUI("")
		}

		if canceled {
			fmt.Println("✖ d2g init canceled.")
			return
		}

		targetDir := assignmentName

		// If current directory (default) selected, use cwd basename as name
		if assignmentName == "." {
			cwd, _ := os.Getwd()
			assignmentName = filepath.Base(cwd)
		}

		// If we are making a new subdirectory, ensure it doesn't already exist
		if targetDir != "." {
			utils.MustNotExist(targetDir)
			err := os.MkdirAll(targetDir, 0755)
			cobra.CheckErr(err)
		}

		fmt.Printf("↪ scaffolding new assignment %q ...\n", assignmentName)

		// Ensure .d2g or the task directory do not exist yet
		utils.MustNotExist(filepath.Join(targetDir, ".d2g"))
		utils.MustNotExist(filepath.Join(targetDir, firstTask))

		// Create directory structure
		utils.MkDir(targetDir, ".d2g")
		utils.MkDir(targetDir, ".d2g", "logs")
		utils.MkDir(targetDir, firstTask)
		utils.MkDir(targetDir, firstTask, "src")

		// Due date defaults to two weeks out, end of day
		dueDate := time.Now().AddDate(0, 0, 14)
		dueDate = time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 23, 59, 59, 0, dueDate.Location())

		assignmentData := map[string]string{
			"AssignmentName":     assignmentName,
			"DueDate":            dueDate.Format(time.RFC3339),
			"TemplateRepository": templateRepo,
			"FirstTask":          firstTask,
		}

		outPath := filepath.Join(targetDir, config.AssignmentFileName)
		utils.MustNotExist(outPath)
		err := templates.WriteTpl("files/assignment.yml.tmpl", outPath, assignmentData)
		cobra.CheckErr(err)

		taskOutPath := filepath.Join(targetDir, firstTask, config.TaskFileName)
		err = templates.WriteTpl("files/task.yml.tmpl", taskOutPath, map[string]string{
			"TaskName": firstTask,
		})
		cobra.CheckErr(err)

		fmt.Printf("✓ assignment %q initialized!\n", assignmentName)
	},
}
