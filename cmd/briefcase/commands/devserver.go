package commands

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/iago/briefcase/internal/config"
	"github.com/iago/briefcase/internal/devserver"
	"github.com/urfave/cli/v3"
)

// DevServerAction runs the local backend until interrupted.
func DevServerAction(ctx context.Context, cmd *cli.Command) error {
	logger := log.New(os.Stdout, "[briefcase-dev] ", logFlags)
	if err := config.LoadDotEnv(cmd.String("env"), ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = strconv.Itoa(port)
	}

	server := devserver.New(ctx, cfg, logger)
	defer server.Close()

	server.StartWorker(ctx)
	return server.ListenAndServe(ctx, ":"+cfg.Port)
}
