package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var (
		cfg       config
		rawOutput bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "Print the memory as JSON",
			Destination: &rawOutput,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a single memory by its entry ID",
		ArgsUsage: "<id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx, c)
			if err != nil {
				return err
			}

			id := c.Args().First()
			if id == "" {
				return goerr.New("memory id is required")
			}

			mgr, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}

			retrieved, err := mgr.Retrieve(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to retrieve memory")
			}
			if retrieved == nil {
				fmt.Fprintf(c.Root().Writer, "No memory found for id: %s\n", id)
				return nil
			}

			if rawOutput {
				enc := json.NewEncoder(c.Root().Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(retrieved)
			}

			fmt.Fprintf(c.Root().Writer, "ID:       %s\n", retrieved.ID)
			fmt.Fprintf(c.Root().Writer, "Question: %s\n", retrieved.Question)
			if retrieved.Metadata != nil && retrieved.Metadata.Reference != nil {
				ref := retrieved.Metadata.Reference
				fmt.Fprintf(c.Root().Writer, "Source:   %s (chunk %d, offset %d, %d bytes)\n",
					ref.FilePath, ref.ChunkIndex, ref.ChunkOffset, ref.ChunkLength)
			}
			if retrieved.ReadError != "" {
				fmt.Fprintf(c.Root().Writer, "Read error: %s\n", retrieved.ReadError)
			} else if retrieved.Content != "" {
				fmt.Fprintf(c.Root().Writer, "\n%s\n", retrieved.Content)
			}
			return nil
		},
	}
}
