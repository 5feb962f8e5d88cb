package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Achievement and XP progression service",
	Long:  "Runs the XP progression API, applies schema migrations and loads achievement, badge and daily challenge definitions.",
}

func main() {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
