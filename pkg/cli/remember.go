package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func rememberCommand() *cli.Command {
	var (
		cfg   config
		metas []string
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "meta",
			Aliases:     []string{"m"},
			Usage:       "Metadata as key=value (repeatable)",
			Destination: &metas,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "remember",
		Usage:     "Store text as a memory (from argument or stdin)",
		ArgsUsage: "[text]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx, c)
			if err != nil {
				return err
			}

			content := strings.Join(c.Args().Slice(), " ")
			if content == "" {
				raw, err := io.ReadAll(c.Root().Reader)
				if err != nil {
					return goerr.Wrap(err, "failed to read stdin")
				}
				content = strings.TrimSpace(string(raw))
			}
			if content == "" {
				return goerr.New("no text given: pass it as an argument or on stdin")
			}

			var metadata map[string]string
			for _, kv := range metas {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return goerr.New("metadata must be key=value", goerr.V("got", kv))
				}
				if metadata == nil {
					metadata = map[string]string{}
				}
				metadata[key] = value
			}

			mgr, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " storing memory..."
			sp.Start()
			record, err := mgr.Store(ctx, content, metadata)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to store memory")
			}

			fmt.Fprintf(c.Root().Writer, "Stored memory %s (%d chars, %d entries)\n",
				record.ID, record.Chars, record.Entries)
			fmt.Fprintf(c.Root().Writer, "File: %s\n", record.Filename)
			return nil
		},
	}
}
