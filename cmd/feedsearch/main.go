package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/feedsearch/internal/config"
	"github.com/kailas-cloud/feedsearch/internal/version"
)

var (
	envName string

	rootCmd = &cobra.Command{
		Use:           "feedsearch",
		Short:         "Search core of the feed reader",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the search HTTP API",
		RunE:  runServe,
	}

	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the entity store",
		RunE:  runReindex,
	}

	optimizeCmd = &cobra.Command{
		Use:   "optimize",
		Short: "Merge index segments",
		RunE:  runOptimize,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(),
		"environment name; selects config/<env>.yaml")
	rootCmd.AddCommand(serveCmd, reindexCmd, optimizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "feedsearch:", err)
		os.Exit(1)
	}
}
