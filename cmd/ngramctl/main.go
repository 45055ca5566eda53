// Command ngramctl inspects n-gram generation and similarity locally and runs
// searches and reindex jobs against the configured database.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ngramctl",
		Usage: "n-gram search toolbox",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/development.yaml",
				Usage:   "path to config file",
				EnvVars: []string{"NGRAM_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "log level (debug, info, warn, error)",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Print the normalized n-grams of a text",
				ArgsUsage: "<text>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "n", Value: 2, Usage: "gram size"},
				},
				Action: generateCommand,
			},
			{
				Name:      "similarity",
				Usage:     "Score two texts against each other",
				ArgsUsage: "<query> <document>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "n", Value: 2, Usage: "gram size"},
					&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "jaccard or cosine (default cosine)"},
				},
				Action: similarityCommand,
			},
			{
				Name:      "search",
				Usage:     "Search a document type in the database",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "document type"},
					&cli.StringSliceFlag{Name: "field", Aliases: []string{"f"}, Required: true, Usage: "field to search (repeatable)"},
					&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "jaccard or cosine"},
					&cli.IntFlag{Name: "limit", Value: 10, Usage: "maximum results (0 for all)"},
				},
				Action: searchCommand,
			},
			{
				Name:  "validate",
				Usage: "Report stale or missing n-gram records without writing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "document type (default all)"},
				},
				Action: validateCommand,
			},
			{
				Name:  "reindex",
				Usage: "Validate and regenerate n-gram records",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "document type (default all)"},
				},
				Action: reindexCommand,
			},
		},
	}
}
