package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mpfeed/config"
	"mpfeed/internal/pipeline"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var root = &cobra.Command{
		Use:           "mpfeed",
		Short:         "Monitor news coverage of MPs and email a summary report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		configPath  string
		concurrency int
		searchOnly  bool
		analyzeOnly bool
		emailOnly   bool
	)
	var run = &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline (search, analysis, email)",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := selectMode(searchOnly, analyzeOnly, emailOnly)
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Search.MaxConcurrency = concurrency
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, err := pipeline.NewRunner(cfg, nil)
			if err != nil {
				return err
			}
			return runner.Run(ctx, mode)
		},
	}
	run.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	run.Flags().IntVar(&concurrency, "concurrency", 0, "override search.max_concurrency")
	run.Flags().BoolVar(&searchOnly, "search-only", false, "run only the search phase and save results")
	run.Flags().BoolVar(&analyzeOnly, "analyze-only", false, "run only the analysis phase from saved search results")
	run.Flags().BoolVar(&emailOnly, "email-only", false, "send only the previously generated report")

	var ver = &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(run, ver)
	if err := root.Execute(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

// selectMode maps the phase flags onto a pipeline mode, rejecting combinations.
func selectMode(searchOnly, analyzeOnly, emailOnly bool) (pipeline.Mode, error) {
	set := 0
	for _, b := range []bool{searchOnly, analyzeOnly, emailOnly} {
		if b {
			set++
		}
	}
	if set > 1 {
		return "", fmt.Errorf("--search-only, --analyze-only and --email-only are mutually exclusive")
	}
	switch {
	case searchOnly:
		return pipeline.ModeSearch, nil
	case analyzeOnly:
		return pipeline.ModeAnalyze, nil
	case emailOnly:
		return pipeline.ModeEmail, nil
	default:
		return pipeline.ModeFull, nil
	}
}
