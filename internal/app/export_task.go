package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/model"
	"github.com/webitel/event-exporter/internal/service"
)

const exportMime = "application/pdf"

// HandleExportTask runs one queued export end to end: history row, status
// transitions, document rendering and the file written into the output
// directory. The document itself never fails past aggregation; a failed
// task here means the event is unknown or the infrastructure is down.
func (app *App) HandleExportTask(ctx context.Context, task model.ExportTask) error {
	_ = app.Cache.SetExportStatus(task.TaskID, string(model.ExportStatusProcessing))

	name := exportFileName(task)
	historyID, err := app.Store.History().Insert(ctx, &model.NewExportHistory{
		EventID:   task.EventID,
		Name:      name,
		Mime:      exportMime,
		CreatedAt: time.Now().UnixMilli(),
		CreatedBy: task.RequestedBy,
		Status:    model.ExportStatusProcessing,
	})
	if err != nil {
		_ = app.Cache.SetExportStatus(task.TaskID, string(model.ExportStatusFailed))
		return err
	}
	_ = app.Cache.SetExportHistoryID(task.TaskID, historyID)

	result, err := app.runExport(ctx, task)
	if err != nil {
		app.failTask(ctx, task.TaskID, historyID)
		return err
	}

	path := filepath.Join(app.Config.Export.OutputDir, name)
	if err := os.MkdirAll(app.Config.Export.OutputDir, 0o755); err != nil {
		app.failTask(ctx, task.TaskID, historyID)
		return errors.New("failed to create output directory", errors.WithCause(err))
	}
	if err := os.WriteFile(path, result.Data, 0o644); err != nil {
		app.failTask(ctx, task.TaskID, historyID)
		return errors.New("failed to write export file", errors.WithCause(err))
	}

	_ = app.Cache.SetExportFile(task.TaskID, path)
	_ = app.Cache.SetExportStatus(task.TaskID, string(model.ExportStatusDone))

	pages := result.Pages
	if err := app.Store.History().UpdateStatus(ctx, &model.UpdateExportStatus{
		ID:     historyID,
		Status: model.ExportStatusDone,
		Pages:  &pages,
	}); err != nil {
		app.log.WarnContext(ctx, "export history update failed",
			"taskID", task.TaskID, "historyID", historyID, "error", err)
	}
	return nil
}

func (app *App) runExport(ctx context.Context, task model.ExportTask) (*service.ExportResult, error) {
	opts := task.Options
	app.applyConfigDefaults(&opts)

	switch task.Type {
	case model.MergedExportType:
		return app.Exporter.ExportCustomMergedWithParticipants(ctx, task.EventID, &opts)
	default:
		return app.Exporter.ExportEventResults(ctx, task.EventID, &opts)
	}
}

// applyConfigDefaults fills options the caller left empty from the service
// configuration. Explicit values in the task always win.
func (app *App) applyConfigDefaults(opts *model.ExportOptions) {
	if opts.VerificationBaseURL == "" {
		opts.VerificationBaseURL = app.Config.Export.VerificationURL
	}
	if opts.BrandingText == "" {
		opts.BrandingText = app.Config.Export.BrandingText
	}
}

func (app *App) failTask(ctx context.Context, taskID string, historyID int64) {
	_ = app.Cache.SetExportStatus(taskID, string(model.ExportStatusFailed))
	if err := app.Store.History().UpdateStatus(ctx, &model.UpdateExportStatus{
		ID:     historyID,
		Status: model.ExportStatusFailed,
	}); err != nil {
		app.log.WarnContext(ctx, "export history update failed",
			"taskID", taskID, "historyID", historyID, "error", err)
	}
}

func exportFileName(task model.ExportTask) string {
	return fmt.Sprintf("event_%d_%s.pdf", task.EventID, task.TaskID)
}
