package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/utils/logging"
)

// Version is set at build time.
var Version = "dev"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:    "memoria",
		Usage:   "Question-based semantic memory for AI agents",
		Version: Version,
		Commands: []*cli.Command{
			rememberCommand(),
			ingestCommand(),
			searchCommand(),
			showCommand(),
			listCommand(),
			countCommand(),
			statusCommand(),
			serveCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// withLogger attaches a configured logger to the context after the
// config file has been applied.
func (cfg *config) withLogger(ctx context.Context, c *cli.Command) (context.Context, error) {
	if err := cfg.load(c); err != nil {
		return ctx, err
	}
	return logging.With(ctx, logging.New(cfg.logLevel, os.Stderr)), nil
}
