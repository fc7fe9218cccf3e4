package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	conf "github.com/webitel/event-exporter/config"
	"github.com/webitel/event-exporter/internal/app"
	"github.com/webitel/event-exporter/internal/model"
	logging "github.com/webitel/event-exporter/internal/otel"

	// ------------ logging ------------ //
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	// -------------------- plugin(s) -------------------- //
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/log/otlp"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/log/stdout"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/metric/otlp"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/metric/stdout"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/trace/otlp"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/trace/stdout"
)

func main() {

	// Load configuration
	config, appErr := conf.LoadConfig()
	if appErr != nil {
		slog.Error("event_exporter.main.configuration_error", slog.String("error", appErr.Error()))
		return
	}

	// slog + OTEL logging
	service := resource.NewSchemaless(
		semconv.ServiceName(model.AppServiceName),
		semconv.ServiceVersion(model.CurrentVersion),
		semconv.ServiceNamespace(model.NamespaceName),
	)
	shutdown := logging.Setup(service)

	// Initialize the application
	application, appErr := app.New(config, shutdown)
	if appErr != nil {
		slog.Error("event_exporter.main.application_initialization_error", slog.String("error", appErr.Error()))
		return
	}

	// One-shot mode: export a single event and exit.
	if eventID := viper.GetInt64("event_id"); eventID > 0 {
		runOnce(application, eventID, viper.GetBool("merged"))
		return
	}

	// Initialize signal handling for graceful shutdown
	initSignals(application)

	slog.Debug("event_exporter.main.configuration_loaded",
		slog.String("output_dir", config.Export.OutputDir),
		slog.Int("workers", config.Export.Workers),
	)

	// Start the application
	slog.Info("event_exporter.main.starting_application")
	startErr := application.Start(context.Background())
	if startErr != nil {
		slog.Error("event_exporter.main.application_start_error", slog.String("error", startErr.Error()))
	} else {
		slog.Info("event_exporter.main.application_started_successfully")
	}

}

func runOnce(application *app.App, eventID int64, merged bool) {
	ctx := context.Background()

	if err := application.Store.Open(); err != nil {
		slog.Error("event_exporter.main.store_open_error", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = application.Stop() }()

	taskType := model.ResultsExportType
	if merged {
		taskType = model.MergedExportType
	}
	task := model.ExportTask{
		TaskID:  uuid.NewString(),
		EventID: eventID,
		Type:    taskType,
	}

	if err := application.HandleExportTask(ctx, task); err != nil {
		slog.Error("event_exporter.main.export_error",
			slog.Int64("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return
	}
	slog.Info("event_exporter.main.export_complete", slog.Int64("event_id", eventID))
}

func initSignals(application *app.App) {
	slog.Info("event_exporter.main.initializing_stop_signals")
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch)

	go func() {
		for {
			s := <-sigch
			handleSignals(s, application)
		}
	}()
}

func handleSignals(signal os.Signal, application *app.App) {
	if signal == syscall.SIGTERM || signal == syscall.SIGINT || signal == syscall.SIGKILL {
		err := application.Stop()
		if err != nil {
			return
		}
		slog.Info(
			"event_exporter.main.received_kill_signal",
			slog.String(
				"signal",
				signal.String(),
			),
			slog.String(
				"status",
				"service gracefully stopped",
			),
		)
		os.Exit(0)
	}
}
