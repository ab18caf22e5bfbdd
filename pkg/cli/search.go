package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/ingest"
)

func searchCommand() *cli.Command {
	var (
		cfg            config
		limit          int64
		noTransform    bool
		includeContent bool
		rawOutput      bool
		interactive    bool
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of results",
			Value:       ingest.DefaultSearchLimit,
			Sources:     cli.EnvVars("MEMORIA_SEARCH_LIMIT"),
			Destination: &limit,
		},
		&cli.BoolFlag{
			Name:        "no-transform",
			Usage:       "Skip rewriting the query into question form",
			Destination: &noTransform,
		},
		&cli.BoolFlag{
			Name:        "content",
			Usage:       "Include the referenced chunk text in each result",
			Destination: &includeContent,
		},
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "Print results as JSON",
			Destination: &rawOutput,
		},
		&cli.BoolFlag{
			Name:        "interactive",
			Aliases:     []string{"i"},
			Usage:       "Start an interactive search session",
			Destination: &interactive,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search stored memories by semantic similarity",
		ArgsUsage: "[query]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx, c)
			if err != nil {
				return err
			}

			mgr, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}

			opts := ingest.SearchOptions{
				Transform:      !noTransform,
				IncludeContent: includeContent,
			}

			run := func(query string) error {
				result, err := mgr.Query(ctx, query, int(limit), opts)
				if err != nil {
					return err
				}
				return printResult(c.Root().Writer, result, rawOutput)
			}

			if !interactive {
				query := strings.Join(c.Args().Slice(), " ")
				if query == "" {
					return goerr.New("query is required (or use --interactive)")
				}
				return run(query)
			}

			rl, err := readline.New("memoria> ")
			if err != nil {
				return goerr.Wrap(err, "failed to start interactive session")
			}
			defer rl.Close()

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				query := strings.TrimSpace(line)
				if query == "" {
					continue
				}
				if query == "exit" || query == "quit" {
					break
				}

				if err := run(query); err != nil {
					fmt.Fprintf(c.Root().Writer, "error: %s\n", err)
				}
			}
			return nil
		},
	}
}

func printResult(w io.Writer, result *model.SearchResult, raw bool) error {
	if raw {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.TransformedQuery != "" {
		fmt.Fprintf(w, "Query rewritten to: %s\n", result.TransformedQuery)
	}
	if result.Total == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}

	for i, hit := range result.Hits {
		fmt.Fprintf(w, "%d. [%.3f] %s\n", i+1, hit.Relevance, hit.Question)
		if hit.Reference != nil {
			fmt.Fprintf(w, "   %s (chunk %d)\n", hit.Reference.FilePath, hit.Reference.ChunkIndex)
		}
		if hit.ReadError != "" {
			fmt.Fprintf(w, "   read error: %s\n", hit.ReadError)
		} else if hit.Content != "" {
			fmt.Fprintf(w, "   %s\n", hit.Content)
		}
	}
	return nil
}
