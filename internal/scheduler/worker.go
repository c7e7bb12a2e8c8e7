package scheduler

import (
	"context"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/task"
)

// worker is the core processing loop for a single concurrent worker. Every
// task received on ready produces exactly one result on done.
func (s *Default) worker(ctx context.Context, ready <-chan *task.Task, done chan<- *task.Result, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for t := range ready {
		if err := ctx.Err(); err != nil {
			done <- &task.Result{Task: t, Err: err}
			continue
		}
		logger.Debug("Worker picked up vertex for execution.", "workerID", workerID, "vertex", t.Vertex.Key())
		done <- s.opts.Executor.Execute(ctx, t)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
