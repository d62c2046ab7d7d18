package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "remindbot",
		Short:        "Conversational task reminder bot",
		Version:      Version,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
