package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjb1001/ganttGraph/internal/cli"
)

var rootCmd = &cobra.Command{Use: "ganttgraph"}

func main() {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (empty for in-memory)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
