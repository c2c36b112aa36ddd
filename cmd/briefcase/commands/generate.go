package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/iago/briefcase/internal/domain"
	"github.com/iago/briefcase/internal/lifecycle"
	"github.com/iago/briefcase/internal/render"
	"github.com/urfave/cli/v3"
)

// GenerateAction drives one job from submission to dossier. Ctrl-C resets
// the controller, which stops polling, and exits.
func GenerateAction(ctx context.Context, cmd *cli.Command) error {
	teamURL, err := requireArg(cmd, "team page url")
	if err != nil {
		return err
	}

	appCtx, err := NewAppContext(cmd)
	if err != nil {
		return err
	}

	bar := render.NewProgressBar(os.Stderr, render.DefaultBarWidth)
	finished := make(chan lifecycle.State, 1)

	controller := lifecycle.NewController(lifecycle.Options{
		API:    appCtx.Client,
		Logger: appCtx.Logger,
		OnChange: func(frame lifecycle.Frame) {
			state := frame.State
			switch {
			case state.View == lifecycle.ViewDossier:
				signalFinished(finished, state)
			case state.View == lifecycle.ViewForm && state.Error != "":
				signalFinished(finished, state)
			case state.View == lifecycle.ViewProgress || state.Submitting:
				bar.Update(frame)
			}
		},
	})

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	runDone := make(chan error, 1)
	go func() { runDone <- controller.Run(runCtx) }()

	if err := controller.Submit(runCtx, teamURL); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var state lifecycle.State
	select {
	case state = <-finished:
	case <-ctx.Done():
		resetCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = controller.Reset(resetCtx)
		cancel()
		bar.Finish()
		fmt.Fprintln(os.Stderr, "interrupted, job abandoned")
		return cli.Exit("", 130)
	case err := <-runDone:
		return err
	}
	bar.Finish()

	if state.View != lifecycle.ViewDossier {
		return cli.Exit(state.Error, 1)
	}

	if err := writeDossier(cmd, state.Dossier); err != nil {
		return err
	}

	if cmd.Bool("export") {
		exportCtx, cancel := context.WithTimeout(ctx, appCtx.Config.APITimeout())
		defer cancel()
		url, err := controller.Export(exportCtx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Exported to %s\n", url)
		}
	}

	cancelRun()
	if err := <-runDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func signalFinished(ch chan lifecycle.State, state lifecycle.State) {
	select {
	case ch <- state:
	default:
	}
}

func writeDossier(cmd *cli.Command, dossier *domain.Dossier) error {
	var out io.Writer = os.Stdout
	if path := cmd.String("out"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if cmd.Bool("json") {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(dossier); err != nil {
			return fmt.Errorf("encode dossier: %w", err)
		}
		return nil
	}
	return render.Dossier(out, dossier)
}
