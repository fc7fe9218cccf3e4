package app

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/webitel/event-exporter/internal/model"
)

// isDuplicateStatus decides whether a popped task should be dropped given
// its status key. A missing key (lookup error, e.g. redis.Nil) or a pending
// status means the task has not been handled yet.
func isDuplicateStatus(status string, err error) bool {
	return err == nil && status != "" && status != string(model.ExportStatusPending)
}

// StartExportWorker launches background workers to process export tasks concurrently.
// If too many workers are configured, the number is automatically limited based on available CPU cores.
func (app *App) StartExportWorker(ctx context.Context) {
	numWorkers := app.Config.Export.Workers
	if numWorkers <= 0 {
		numWorkers = 4
	}

	maxWorkers := runtime.NumCPU() * 2
	if numWorkers > maxWorkers {
		numWorkers = maxWorkers
	}

	slog.InfoContext(ctx, "starting export workers", "count", numWorkers)

	for i := 0; i < numWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					return
				default:
					task, err := app.Cache.PopExportTask()
					if err != nil {
						time.Sleep(time.Second)
						continue
					}

					// A task id already processing or finished was popped
					// before; drop the duplicate. Pending is the state set by
					// the enqueuer and passes through.
					status, serr := app.Cache.GetExportStatus(task.TaskID)
					if isDuplicateStatus(status, serr) {
						slog.InfoContext(ctx, "duplicate export task skipped",
							"workerID", workerID,
							"taskID", task.TaskID,
							"status", status)
						continue
					}

					switch task.Type {
					case model.ResultsExportType, model.MergedExportType:
						if err := app.HandleExportTask(ctx, task); err != nil {
							slog.ErrorContext(ctx, "export task failed",
								"workerID", workerID,
								"taskID", task.TaskID,
								"error", err)
							_ = app.Cache.ClearExportTask(task.TaskID)
						}
					default:
						slog.WarnContext(ctx, "unknown export type",
							"workerID", workerID,
							"type", task.Type,
							"taskID", task.TaskID)
						_ = app.Cache.ClearExportTask(task.TaskID)
					}
				}
			}
		}(i + 1)
	}
}
