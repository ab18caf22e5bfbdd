package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg      config
		patterns []string
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "pattern",
			Aliases:     []string{"p"},
			Usage:       "Filename glob to ingest from a directory (repeatable, default *.txt and *.md)",
			Destination: &patterns,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Ingest a file or a directory of files into the index",
		ArgsUsage: "<path>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx, c)
			if err != nil {
				return err
			}

			path := c.Args().First()
			if path == "" {
				return goerr.New("path is required")
			}

			info, err := os.Stat(path)
			if err != nil {
				return goerr.Wrap(err, "failed to stat path", goerr.V("path", path))
			}

			pipeline, _, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " ingesting..."
			sp.Start()
			defer sp.Stop()

			if !info.IsDir() {
				record, err := pipeline.ProcessFile(ctx, path, nil)
				sp.Stop()
				if err != nil {
					return goerr.Wrap(err, "failed to ingest file")
				}
				fmt.Fprintf(c.Root().Writer, "Ingested %s: %d entries from %d chars\n",
					path, record.Entries, record.Chars)
				return nil
			}

			report, err := pipeline.ProcessDirectory(ctx, path, patterns)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to ingest directory")
			}

			fmt.Fprintf(c.Root().Writer, "Run %s: %d stored, %d failed\n",
				report.RunID, report.Stored, report.Failed)
			for _, f := range report.Files {
				if f.Error != "" {
					fmt.Fprintf(c.Root().Writer, "  FAIL %s: %s\n", f.Path, f.Error)
				} else {
					fmt.Fprintf(c.Root().Writer, "  OK   %s (%d entries)\n", f.Path, f.Entries)
				}
			}
			return nil
		},
	}
}
