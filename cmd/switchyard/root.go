package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "switchyard",
	Short: "Switchyard plans graphs of media transformation elements",
	Long: `Switchyard searches a factory catalog for the cheapest set of
transformation chains delivering every requested output format from the
declared inputs, with fan-out off shared intermediate results.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
