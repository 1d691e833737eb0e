package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	jsonOutput bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "redinsight",
		Short:         "Score and summarize xiaohongshu-style posts: reports, rankings, city analyses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	root.AddCommand(reportCmd())
	root.AddCommand(rankingCmd())
	root.AddCommand(overviewCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(cityCmd())
	root.AddCommand(citiesCmd())
	root.AddCommand(compareCitiesCmd())
	root.AddCommand(trendingCitiesCmd())
	root.AddCommand(compareCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func reportCmd() *cobra.Command {
	var maxPosts int

	cmd := &cobra.Command{
		Use:   "report <keyword>",
		Short: "Search a keyword and print its statistics report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), args[0], maxPosts)
		},
	}

	cmd.Flags().IntVar(&maxPosts, "max-posts", 0, "posts to analyze, 1-20 (default: from config)")
	return cmd
}

func rankingCmd() *cobra.Command {
	var maxItems int

	cmd := &cobra.Command{
		Use:   "ranking [category]",
		Short: "Build a ranking board (hot, rising, weekly, beauty, food, ...)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			return runRanking(cmd.Context(), category, maxItems)
		},
	}

	cmd.Flags().IntVar(&maxItems, "max-items", 10, "items on the board, 1-20")
	return cmd
}

func overviewCmd() *cobra.Command {
	var maxItems int

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Summarize the category boards side by side",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverview(cmd.Context(), maxItems)
		},
	}

	cmd.Flags().IntVar(&maxItems, "max-items", 3, "items per category, 1-20")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [category|snapshot-id]",
		Short: "List stored ranking snapshots, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			return runHistory(cmd.Context(), arg, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "snapshots to list, 1-20")
	return cmd
}

func cityCmd() *cobra.Command {
	var maxPosts int

	cmd := &cobra.Command{
		Use:   "city <city> [topic]",
		Short: "Analyze what a city's posts talk about",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := ""
			if len(args) == 2 {
				topic = args[1]
			}
			return runCity(cmd.Context(), args[0], topic, maxPosts)
		},
	}

	cmd.Flags().IntVar(&maxPosts, "max-posts", 10, "posts to analyze, 1-20")
	return cmd
}

func citiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List supported cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCities()
		},
	}
}

func compareCitiesCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "compare-cities <city> <city>...",
		Short: "Compare engagement of several cities on a topic",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompareCities(cmd.Context(), args, topic)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "topic to compare on")
	return cmd
}

func trendingCitiesCmd() *cobra.Command {
	var maxCities int

	cmd := &cobra.Command{
		Use:   "trending-cities <topic>",
		Short: "Rank sample cities by how hot a topic is there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrendingCities(cmd.Context(), args[0], maxCities)
		},
	}

	cmd.Flags().IntVar(&maxCities, "max", 5, "cities to list, 1-20")
	return cmd
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <item> <item>...",
		Short: "Compare engagement of 2-5 keywords",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), args)
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with ranking scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
