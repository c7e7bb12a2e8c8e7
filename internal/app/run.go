package app

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/scheduler"
)

// Run loads the configured flow, executes it once and prints a per-vertex
// summary. It fails when the flow is invalid, when propagation stalls, or
// when any vertex did not succeed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.FlowPath == "" {
		return errors.New("no flow path configured")
	}

	if a.config.HTTPPort > 0 {
		a.startServer(ctx)
		defer func() { _ = a.closeServer(ctx) }()
	}

	def, err := a.LoadFlow(ctx, a.config.FlowPath)
	if err != nil {
		return err
	}
	g, err := graph.Build(ctx, def, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build flow graph: %w", err)
	}
	if g.Len() == 0 {
		a.logger.Warn("No vertices found in flow, execution not required.")
		return nil
	}

	a.logger.Info("🚀 Starting execution...", "vertices", g.Len(), "workers", a.config.WorkerCount)
	res, runErr := a.scheduler.Run(ctx, g)
	if res != nil {
		a.printSummary(res)
	}
	if runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}
	a.logger.Info("🏁 Execution finished.", "waves", res.Waves, "duration", res.Duration)

	if failed := res.Failed(); len(failed) > 0 {
		return fmt.Errorf("execution failed: %d of %d vertices did not succeed", len(failed), len(res.Vertices))
	}
	return nil
}

func (a *App) printSummary(res *scheduler.RunResult) {
	w := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "VERTEX\tSTATUS\tBUILDS\tDETAIL\n")
	for _, v := range res.Vertices {
		detail := ""
		switch {
		case v.Err != nil:
			detail = v.Err.Error()
		case v.Cached:
			detail = "cached"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", v.ID, v.Status, v.Builds, detail)
	}
	_ = w.Flush()
}
