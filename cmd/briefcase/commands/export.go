package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ExportAction exports a completed dossier. Never retried.
func ExportAction(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "job id")
	if err != nil {
		return err
	}
	appCtx, err := NewAppContext(cmd)
	if err != nil {
		return err
	}

	url, err := appCtx.Client.Export(ctx, jobID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Println(url)
	return nil
}
