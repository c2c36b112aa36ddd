package commands

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/iago/briefcase/internal/config"
	"github.com/iago/briefcase/internal/jobapi"
	"github.com/urfave/cli/v3"
)

const logFlags = log.LstdFlags | log.LUTC | log.Lmicroseconds

// AppContext holds what every client command needs.
type AppContext struct {
	Config config.Config
	Logger *log.Logger
	Client *jobapi.Client
}

func NewAppContext(cmd *cli.Command) (*AppContext, error) {
	if err := config.LoadDotEnv(cmd.String("env"), ".env.local"); err != nil {
		return nil, err
	}
	cfg := config.Load()

	var sink io.Writer = io.Discard
	if cmd.Bool("verbose") {
		sink = os.Stderr
	}
	logger := log.New(sink, "[briefcase] ", logFlags)

	client := jobapi.NewClient(jobapi.Config{
		BaseURL: cfg.APIURL,
		Token:   cfg.APIToken,
		Timeout: cfg.APITimeout(),
		Logger:  logger,
	})
	return &AppContext{Config: cfg, Logger: logger, Client: client}, nil
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	value := cmd.Args().First()
	if value == "" {
		return "", cli.Exit(fmt.Sprintf("missing %s argument", name), 2)
	}
	return value, nil
}
