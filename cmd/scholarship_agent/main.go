package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scholarship_agent",
	Short: "Scholarship application tailoring agent",
	Long: `scholarship_agent tailors a student's resume and essay to a specific
scholarship: it decodes what the scholarship values, finds the gaps in the
resume, optionally interviews the student to bridge the largest gap, rewrites
the weakest bullets, and composes the application essay.`,
}

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
