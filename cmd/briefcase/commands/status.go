package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/iago/briefcase/internal/domain"
	"github.com/iago/briefcase/internal/jobapi"
	"github.com/iago/briefcase/internal/lifecycle"
	"github.com/iago/briefcase/internal/progress"
	"github.com/iago/briefcase/internal/render"
	"github.com/urfave/cli/v3"
)

// StatusAction polls a job once and prints where it stands.
func StatusAction(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "job id")
	if err != nil {
		return err
	}
	appCtx, err := NewAppContext(cmd)
	if err != nil {
		return err
	}

	snapshot, err := appCtx.Client.Poll(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobapi.ErrJobNotFound) {
			return cli.Exit(fmt.Sprintf("job %s not found", jobID), 1)
		}
		return fmt.Errorf("poll job: %w", err)
	}

	switch snapshot.Status {
	case domain.JobStatusComplete:
		if snapshot.Result == nil {
			return cli.Exit("job completed without a dossier", 1)
		}
		fmt.Printf("complete: %s\n%s\n", snapshot.Result.Company, render.Summary(snapshot.Result))
	case domain.JobStatusError:
		return cli.Exit(snapshot.Step, 1)
	default:
		frame := lifecycle.Frame{
			State: lifecycle.State{
				View:  lifecycle.ViewProgress,
				JobID: jobID,
				Progress: lifecycle.ProgressSnapshot{
					Progress: snapshot.Progress,
					Step:     snapshot.Step,
					Status:   snapshot.Status,
				},
			},
			Display: progress.MapDisplay(snapshot.Progress, snapshot.Step),
		}
		fmt.Fprintln(os.Stdout, render.ProgressLine(frame, render.DefaultBarWidth))
	}
	return nil
}
