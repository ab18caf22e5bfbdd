package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/service/mcp"
)

func serveCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the memory tools over MCP on stdio",
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

			return mcp.NewServer(mgr, Version).Run(ctx)
		},
	}
}
