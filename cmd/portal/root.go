package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "portal",
	Short:         "SCEH++ campus portal sessions, navigation and page guards.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, resolveCmd, usersCmd, rosterCmd)
}
