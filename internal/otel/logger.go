package logging

import (
	"context"
	"log/slog"
	"os"

	slogutil "github.com/webitel/webitel-go-kit/infra/otel/log/bridge/slog"
	otelsdk "github.com/webitel/webitel-go-kit/infra/otel/sdk"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/sdk/resource"

	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/log/otlp"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/log/stdout"
)

// Setup wires slog.Default() into the OpenTelemetry log pipeline and returns
// the SDK shutdown function. The filter level comes from OTEL_LOG_LEVEL and
// defaults to info.
func Setup(service *resource.Resource) func(context.Context) error {
	var verbose slog.LevelVar
	verbose.Set(slog.LevelInfo)
	if input := os.Getenv("OTEL_LOG_LEVEL"); input != "" {
		_ = verbose.UnmarshalText([]byte(input))
	}

	ctx := context.Background()
	shutdown, err := otelsdk.Configure(
		ctx,
		otelsdk.WithResource(service),
		otelsdk.WithLogBridge(func() {
			stdlog := slog.New(
				slogutil.WithLevel(
					&verbose,
					otelslog.NewHandler("slog"),
				),
			)
			slog.SetDefault(stdlog)
		}),
	)
	if err != nil {
		slog.ErrorContext(ctx, "OpenTelemetry setup failed", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "OpenTelemetry setup successful")

	return shutdown
}
