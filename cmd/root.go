/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "judgelink",
	Short: "Inline query resolver for Codeforces and AtCoder problems",
	Long: `judgelink resolves short problem/contest tokens ("150D", "abc150_d")
into canonical deep links and cached problem titles, and serves them as
inline suggestion items.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
