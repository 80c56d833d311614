package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Verbose bool

var rootCmd = &cobra.Command{
	Use:   "d2g",
	Short: "d2g grades programming assignment submissions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("d2g: deploy-to-grading automation for programming assignments.")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable verbose logs to stderr")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
