package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/memory"
)

func listCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of memories to list",
			Value:       memory.DefaultListLimit,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List stored memory entries",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx, c)
			if err != nil {
				return err
			}

			mgr, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}

			listed, err := mgr.List(ctx, int(limit))
			if err != nil {
				return err
			}

			if len(listed) == 0 {
				fmt.Fprintln(c.Root().Writer, "No memories stored")
				return nil
			}

			for _, row := range listed {
				fmt.Fprintf(c.Root().Writer, "%s  %s\n", row.ID, row.FilePath)
			}
			return nil
		},
	}
}

func countCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "count",
		Usage: "Count stored memory entries",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx, c)
			if err != nil {
				return err
			}

			mgr, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}

			count, err := mgr.Count(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "%d\n", count)
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:  "status",
		Usage: "Check that the vector index is reachable",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx, c)
			if err != nil {
				return err
			}

			index, err := cfg.newIndex()
			if err != nil {
				return err
			}

			if err := index.Heartbeat(ctx); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Index at %s:%d is reachable\n", cfg.chromaHost, cfg.chromaPort)
			return nil
		},
	}
}
